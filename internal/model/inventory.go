package model

import (
	"fmt"
	"sort"
	"strings"
)

// Spectrograph is the family a hexabundle's fibers are routed to.
type Spectrograph int

const (
	AAOmega Spectrograph = iota
	Spector
)

func (s Spectrograph) String() string {
	switch s {
	case AAOmega:
		return "AAOmega"
	case Spector:
		return "Spector"
	default:
		return fmt.Sprintf("Spectrograph(%d)", int(s))
	}
}

// Other returns the opposite family.
func (s Spectrograph) Other() Spectrograph {
	if s == AAOmega {
		return Spector
	}
	return AAOmega
}

// Bundle is one hexabundle of the fixed inventory.
type Bundle struct {
	ID     string       `json:"id"`
	Cores  int          `json:"cores"`
	Family Spectrograph `json:"family"`
}

// Fiber counts of the standard bundle denominations.
const (
	CoresHuge   = 169
	CoresLarge  = 127
	CoresMedium = 91
	CoresMid    = 61
	CoresSmall  = 37
)

// bundleTable lists the 21 hexabundles. A-H feed AAOmega, I-U feed Spector.
var bundleTable = []Bundle{
	{"A", CoresHuge, AAOmega},
	{"B", CoresHuge, AAOmega},
	{"C", CoresLarge, AAOmega},
	{"D", CoresMedium, AAOmega},
	{"E", CoresMid, AAOmega},
	{"F", CoresMid, AAOmega},
	{"G", CoresMid, AAOmega},
	{"H", CoresMid, AAOmega},
	{"I", CoresMedium, Spector},
	{"J", CoresMid, Spector},
	{"K", CoresMid, Spector},
	{"L", CoresMid, Spector},
	{"M", CoresMid, Spector},
	{"N", CoresMid, Spector},
	{"O", CoresMid, Spector},
	{"P", CoresMid, Spector},
	{"Q", CoresMid, Spector},
	{"R", CoresMid, Spector},
	{"S", CoresMid, Spector},
	{"T", CoresSmall, Spector},
	{"U", CoresSmall, Spector},
}

// LookupBundle returns the catalogue entry for a bundle letter.
func LookupBundle(id string) (Bundle, bool) {
	for _, b := range bundleTable {
		if b.ID == id {
			return b, true
		}
	}
	return Bundle{}, false
}

// AllBundleIDs returns every bundle letter in alphabetical order.
func AllBundleIDs() []string {
	ids := make([]string, len(bundleTable))
	for i, b := range bundleTable {
		ids[i] = b.ID
	}
	return ids
}

// IsGuideBundle reports whether id is a synthetic guide-probe identifier.
func IsGuideBundle(id string) bool {
	return strings.HasPrefix(id, "GS")
}

// Inventory is the set of bundles still available in the current tile.
type Inventory struct {
	free map[string]Bundle
}

// NewInventory returns a full inventory. Build a fresh one for every tile.
func NewInventory() *Inventory {
	inv := &Inventory{free: make(map[string]Bundle, len(bundleTable))}
	for _, b := range bundleTable {
		inv.free[b.ID] = b
	}
	return inv
}

// Len returns the number of bundles left.
func (inv *Inventory) Len() int { return len(inv.free) }

// Has reports whether id is still available.
func (inv *Inventory) Has(id string) bool {
	_, ok := inv.free[id]
	return ok
}

// Take removes id from the inventory. It returns false if id was not available.
func (inv *Inventory) Take(id string) (Bundle, bool) {
	b, ok := inv.free[id]
	if ok {
		delete(inv.free, id)
	}
	return b, ok
}

// Select returns the available bundles matching keep, ordered by cores
// then letter.
func (inv *Inventory) Select(keep func(Bundle) bool) []Bundle {
	var out []Bundle
	for _, b := range inv.free {
		if keep == nil || keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cores != out[j].Cores {
			return out[i].Cores < out[j].Cores
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IDs returns the available letters in alphabetical order.
func (inv *Inventory) IDs() []string {
	ids := make([]string, 0, len(inv.free))
	for id := range inv.free {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
