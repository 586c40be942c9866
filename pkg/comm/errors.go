package comm

import (
	"errors"
	"fmt"
)

// ErrBufferOverflow indicates a frame exceeded the receive buffer before
// a footer was seen.
var ErrBufferOverflow = errors.New("receive buffer overflow")

// ChecksumError reports a checksum mismatch of a decoded frame.
type ChecksumError struct {
	Expected uint16
	Actual   uint16
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%04x, got 0x%04x", e.Expected, e.Actual)
}

// MalformedError reports a structurally invalid frame.
type MalformedError struct {
	Reason string
}

// Error implements error.
func (e *MalformedError) Error() string {
	return "malformed frame: " + e.Reason
}

func malformed(reason string) error {
	return &MalformedError{Reason: reason}
}
