package allocate

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocation indicates the allocator reached an inconsistent state:
	// a bundle used twice or an eligible probe it could not serve.
	ErrAllocation = errors.New("allocation inconsistency")

	// ErrInventoryExhausted is reported, not returned: more eligible probes
	// than bundles left in the tile's inventory.
	ErrInventoryExhausted = errors.New("inventory exhausted")

	// ErrUnknownBundle indicates a record entry names a bundle outside the inventory.
	ErrUnknownBundle = errors.New("unknown bundle")
)

// AllocationError is fatal for the tile. It names enough to reproduce the run.
type AllocationError struct {
	Tile       string
	ProbeIndex int
	Bundle     string
	Reason     string
}

func (e *AllocationError) Error() string {
	if e.Bundle == "" {
		return fmt.Sprintf("tile %s: probe %d: %s", e.Tile, e.ProbeIndex, e.Reason)
	}
	return fmt.Sprintf("tile %s: probe %d: bundle %s: %s", e.Tile, e.ProbeIndex, e.Bundle, e.Reason)
}

func (e *AllocationError) Unwrap() error { return ErrAllocation }
