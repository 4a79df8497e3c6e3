package compute

import (
	"errors"
	"fmt"
)

// Sentinel errors for compute operations.
var (
	// ErrInstanceNotFound indicates the instance does not exist.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrImageNotFound indicates no matching machine image was found.
	ErrImageNotFound = errors.New("image not found")

	// ErrUserDataTooLarge indicates first-boot data exceeds the
	// platform ceiling. This is a configuration error caught before any
	// provider call.
	ErrUserDataTooLarge = errors.New("user data exceeds platform limit")

	// ErrWaitExhausted indicates a state poll gave up before the
	// instance reached the expected state.
	ErrWaitExhausted = errors.New("wait attempts exhausted")
)

// ComputeError wraps provider-specific errors with context.
type ComputeError struct {
	// Op is the operation that failed (e.g., "Launch", "Terminate").
	Op string

	// InstanceID is the instance, if applicable.
	InstanceID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ComputeError) Error() string {
	if e.InstanceID != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.InstanceID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ComputeError) Unwrap() error {
	return e.Err
}

// IsInstanceNotFound returns true if the error indicates a missing instance.
func IsInstanceNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}
