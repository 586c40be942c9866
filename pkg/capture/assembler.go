// Package capture stitches data frame fragments into complete frames.
package capture

import (
	"fmt"

	"github.com/robotalks/radariq.go/pkg/msgs"
)

// Result is the outcome of adding a fragment.
type Result[T any] struct {
	// Frame is the completed frame when Complete is set.
	Frame    []T
	Complete bool
	// Preempted is the number of records discarded from an unfinished
	// frame when a new START arrived.
	Preempted int
}

// Assembler accumulates fragments up to a fixed capacity.
type Assembler[T any] struct {
	capacity int
	buf      []T
	active   bool
}

// New creates an Assembler holding at most capacity records per frame.
func New[T any](capacity int) *Assembler[T] {
	return &Assembler[T]{capacity: capacity, buf: make([]T, 0, capacity)}
}

// Capacity returns the maximum number of records per frame.
func (a *Assembler[T]) Capacity() int {
	return a.capacity
}

// Len returns the number of records accumulated so far.
func (a *Assembler[T]) Len() int {
	return len(a.buf)
}

// InProgress reports whether a START has been seen without its END.
func (a *Assembler[T]) InProgress() bool {
	return a.active
}

// Reset discards any unfinished frame.
func (a *Assembler[T]) Reset() {
	a.buf = a.buf[:0]
	a.active = false
}

// Add feeds one fragment.
func (a *Assembler[T]) Add(sub msgs.Subframe, records []T) (res Result[T], err error) {
	switch sub {
	case msgs.SubframeStart:
		if a.active {
			res.Preempted = len(a.buf)
		}
		a.buf = a.buf[:0]
		a.active = true
	case msgs.SubframeMiddle, msgs.SubframeEnd:
		if !a.active {
			return res, fmt.Errorf("%s: %w", sub, ErrOutOfOrder)
		}
	default:
		a.Reset()
		return res, fmt.Errorf("%s: %w", sub, ErrBadSubframe)
	}

	if size := len(a.buf) + len(records); size > a.capacity {
		a.Reset()
		return res, &CapacityError{Capacity: a.capacity, Size: size}
	}
	a.buf = append(a.buf, records...)

	if sub == msgs.SubframeEnd {
		res.Frame = append([]T(nil), a.buf...)
		res.Complete = true
		a.Reset()
	}
	return res, nil
}
