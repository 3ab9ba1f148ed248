package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWindow is matched by every *WindowError.
	ErrInvalidWindow = errors.New("invalid window")

	// ErrDataUnavailable is matched by every *DataUnavailableError.
	ErrDataUnavailable = errors.New("task data unavailable")
)

// WindowError reports a rejected days value.
type WindowError struct {
	Raw    string
	Reason string
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("invalid days %q: %s", e.Raw, e.Reason)
}

func (e *WindowError) Unwrap() error {
	return ErrInvalidWindow
}

// DataUnavailableError wraps a failure to read the task snapshot.
type DataUnavailableError struct {
	UserID string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("failed to load tasks for user %s: %v", e.UserID, e.Err)
}

// Is matches ErrDataUnavailable so errors.Is works on the wrapper and its cause.
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}
