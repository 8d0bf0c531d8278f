package docscan

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrDeviceNotFound means no attached device matched the selector
	ErrDeviceNotFound = errors.New("no matching scanner device found")
	// ErrUnsupportedSource means the device lacks the requested paper path
	ErrUnsupportedSource = errors.New("device does not support the requested source")
	// ErrCancelled means a trigger fired or the deadline elapsed before completion
	ErrCancelled = errors.New("scan cancelled")
)

// ValidationError reports a single bad request field before any device
// interaction has happened.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// HardwareFault wraps a scan operation failure that was not a cancellation.
type HardwareFault struct {
	Err error
}

func (e *HardwareFault) Error() string {
	return "hardware fault: " + e.Err.Error()
}

func (e *HardwareFault) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err represents a cancellation outcome,
// whichever trigger produced it.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	cause := errors.Cause(err)
	return cause == ErrCancelled || cause == context.Canceled || cause == context.DeadlineExceeded
}
