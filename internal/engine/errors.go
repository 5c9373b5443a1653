package engine

import "errors"

var (
	// ErrUnresolved is returned by callers that treat unresolved placement
	// as a failure. The planner itself only logs it.
	ErrUnresolved = errors.New("unresolved placement")

	// ErrInvalidLayout indicates probe input that breaks the pairing rules.
	ErrInvalidLayout = errors.New("invalid probe layout")
)
