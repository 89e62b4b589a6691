package factory

import "errors"

var (
	// ErrNotFound is returned when a tab or instance id is not registered.
	ErrNotFound = errors.New("not found")

	// ErrMalformedInput is returned for payloads that cannot be decoded into
	// what the operation needs.
	ErrMalformedInput = errors.New("malformed input")
)
