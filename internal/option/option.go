// Package option provides bounded setters shared by the format option
// handlers. Every failure names the offending option.
package option

import (
	"errors"
	"fmt"
)

// ErrUnknown indicates an option name a format does not define.
var ErrUnknown = errors.New("option: unknown option")

// RangeError reports a value or index outside its allowed range.
type RangeError struct {
	Name  string
	Value int
	Min   int
	Max   int
	Index bool // The index, not the value, is out of range
}

func (e *RangeError) Error() string {
	what := "="
	if e.Index {
		what = "index"
	}
	return fmt.Sprintf("option: %s %s %d out of range [%d, %d]", e.Name, what, e.Value, e.Min, e.Max)
}

// Integer is the set of field types options are stored in.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~uint8 | ~uint16 | ~uint32
}

// Set stores value in dst if it lies in [lo, hi].
func Set[T Integer](dst *T, name string, value, lo, hi int) error {
	if value < lo || value > hi {
		return &RangeError{Name: name, Value: value, Min: lo, Max: hi}
	}
	*dst = T(value)
	return nil
}

// Bool stores value (0 or 1) in dst.
func Bool(dst *bool, name string, value int) error {
	if value != 0 && value != 1 {
		return &RangeError{Name: name, Value: value, Min: 0, Max: 1}
	}
	*dst = value == 1
	return nil
}

// Index checks that index addresses one of n elements.
func Index(name string, index, n int) error {
	if index < 0 || index >= n {
		return &RangeError{Name: name, Value: index, Min: 0, Max: n - 1, Index: true}
	}
	return nil
}

// Unknown returns an ErrUnknown naming the option and its scope.
func Unknown(scope, name string) error {
	return fmt.Errorf("%w: %s option %q", ErrUnknown, scope, name)
}
