package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfOrder indicates a MIDDLE or END fragment without a START.
	ErrOutOfOrder = errors.New("subframe out of order")
	// ErrBadSubframe indicates an unknown subframe marker.
	ErrBadSubframe = errors.New("invalid subframe marker")
)

// CapacityError reports a logical frame larger than the assembler capacity.
type CapacityError struct {
	Capacity int
	Size     int
}

// Error implements error.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("frame of %d records exceeds capacity %d", e.Size, e.Capacity)
}
