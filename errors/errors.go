package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable indicates that a model provider call failed
	// and the caller should fall through to the next tier.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrMalformedResponse indicates that a model returned output that
	// could not be parsed into the expected JSON contract.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)
