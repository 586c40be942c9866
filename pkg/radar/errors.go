package radar

import (
	"errors"
	"fmt"

	"github.com/robotalks/radariq.go/pkg/msgs"
)

var (
	// ErrNoTransport indicates the session has no writer.
	ErrNoTransport = errors.New("no transport")
	// ErrCapturing rejects an operation not allowed during capture.
	ErrCapturing = errors.New("capture in progress")
	// ErrNotCapturing reports a data frame received while idle.
	ErrNotCapturing = errors.New("not capturing")
	// ErrUnknownValue indicates a cached value never reported by the device.
	ErrUnknownValue = errors.New("value unknown")
	// ErrCancelled resolves a pending request cancelled by the caller.
	ErrCancelled = errors.New("request cancelled")
	// ErrInFlight is returned by Pending.Result before the response arrives.
	ErrInFlight = errors.New("request in flight")
	// ErrUnexpectedResponse indicates a response of the wrong type.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// ModeMismatchError reports a data frame not matching the capture mode.
type ModeMismatchError struct {
	Mode msgs.CaptureMode
	Got  msgs.Command
}

// Error implements error.
func (e *ModeMismatchError) Error() string {
	return fmt.Sprintf("capturing %s, received %s", e.Mode, e.Got)
}

// ReturnError reports a non-OK return value from the device.
type ReturnError struct {
	Command msgs.Command
	Return  msgs.ReturnValue
}

// Error implements error.
func (e *ReturnError) Error() string {
	return fmt.Sprintf("%s returned %s", e.Command, e.Return)
}

// Warning returns true if the device accepted the command with a warning.
func (e *ReturnError) Warning() bool {
	return e.Return == msgs.ReturnWarning
}

func returnErr(cmd msgs.Command, rv msgs.ReturnValue) error {
	if rv == msgs.ReturnOK {
		return nil
	}
	return &ReturnError{Command: cmd, Return: rv}
}
