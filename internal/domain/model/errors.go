package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the vault and budget workflows. Adapters wrap
// them with context; callers test with errors.Is.
var (
	// ErrValidation marks malformed or out-of-range caller input, detected
	// before any remote effect.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned for a missing record and for a record owned by
	// another principal. The two cases are never distinguished.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a record exists and is owned by the caller
	// but is not usable in its current status.
	ErrForbidden = errors.New("forbidden")

	// ErrIntegrity is returned when an authentication tag does not verify.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrMalformedStorage is returned when a stored payload cannot be decoded.
	ErrMalformedStorage = errors.New("malformed stored secret")

	// ErrInternal marks failures that are not caller-correctable, such as a
	// corrupted stored secret.
	ErrInternal = errors.New("internal error")
)

// UpstreamError reports a failed call to a remote platform API. StatusCode is
// set for transport-level failures; APICode and Message for failures signalled
// inside a successful transport response.
type UpstreamError struct {
	Op         string
	StatusCode int
	APICode    int
	Message    string
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream returned HTTP %d", e.Op, e.StatusCode)
	}
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("%s: upstream api error %d: %s", e.Op, e.APICode, msg)
}

// Forbiddenf builds an ErrForbidden-wrapping error with a reason.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Validationf builds an ErrValidation-wrapping error with a reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
