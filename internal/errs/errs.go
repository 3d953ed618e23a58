// Package errs defines the error kinds shared by the factory, its stores and
// the host runtime.
//
// Every error returned across a package boundary wraps exactly one of the
// sentinels below, so callers classify failures with errors.Is:
//
//	if errors.Is(err, errs.ErrAlreadyExists) { ... }
package errs

import "errors"

var (
	// ErrUnauthorized is returned when the caller is not the configured owner.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists is returned when a pair is already registered or in flight.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is returned for missing config, pending records or pairs.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed identities, descriptors and messages.
	ErrValidation = errors.New("validation error")

	// ErrDecoding is returned when an acknowledgment payload cannot be parsed.
	ErrDecoding = errors.New("decoding error")

	// ErrProtocolViolation is returned when an acknowledgment has no staged
	// creation record. It means the host and the factory disagree about
	// what was dispatched.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrUnsupported is returned by entry points a contract does not implement.
	ErrUnsupported = errors.New("unsupported")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrAlreadyExists, "already_exists"},
	{ErrNotFound, "not_found"},
	{ErrValidation, "validation"},
	{ErrDecoding, "decoding"},
	{ErrProtocolViolation, "protocol_violation"},
	{ErrUnsupported, "unsupported"},
}

// Kind returns a short snake_case name for the error's kind, or "internal"
// if it wraps none of the sentinels.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}
