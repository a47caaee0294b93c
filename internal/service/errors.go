package service

import "errors"

// The service error taxonomy. Store failures are returned as-is (wrapped),
// so anything not matching these sentinels is a recoverable I/O problem the
// caller may retry wholesale.
var (
	// ErrUnauthorized: the caller may see the resource but not do this to it.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound covers both a genuinely absent resource and one the caller
	// may not view — read paths do not leak existence across the
	// authorization boundary.
	ErrNotFound = errors.New("not found")

	// ErrValidation: malformed input, rejected before any store mutation.
	ErrValidation = errors.New("validation")

	// ErrUnauthenticated: no signed-in user on a guarded path.
	ErrUnauthenticated = errors.New("unauthenticated")
)
