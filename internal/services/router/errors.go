package router

import "errors"

var (
	// ErrInvalidInput covers malformed amounts and unknown assets. Rejected
	// before any search runs, never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoRouteFound means no pool path connects the pair within the hop
	// budget. Terminal; callers may retry with a wider maxHops.
	ErrNoRouteFound = errors.New("no route found")

	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrInvalidAmount         = errors.New("invalid amount")
)
