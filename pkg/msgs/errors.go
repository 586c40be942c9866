package msgs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvertedRange indicates a filter minimum greater than its maximum.
	ErrInvertedRange = errors.New("minimum greater than maximum")
	// ErrNotQueryable indicates the command can't be requested.
	ErrNotQueryable = errors.New("command is not queryable")
)

// RangeError reports a value outside its valid range.
type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

// Error implements error.
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

// PayloadError reports a payload too short for its command.
type PayloadError struct {
	Command Command
	Length  int
	Want    int
}

// Error implements error.
func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s payload %d bytes, want %d", e.Command, e.Length, e.Want)
}

func checkRange(field string, value, min, max int) error {
	if value < min || value > max {
		return &RangeError{Field: field, Value: value, Min: min, Max: max}
	}
	return nil
}

func checkOrder(field string, min, max int) error {
	if min > max {
		return fmt.Errorf("%s [%d, %d]: %w", field, min, max, ErrInvertedRange)
	}
	return nil
}
