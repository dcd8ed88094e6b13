package types

import "errors"

// Sentinel errors produced by the data layer and checked with errors.Is at
// the HTTP boundary. Anything else surfaces as a generic server error.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("already exists")
	ErrSelfSign          = errors.New("authors cannot sign their own petition")
	ErrValidation        = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
)
