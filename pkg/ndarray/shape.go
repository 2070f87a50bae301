// Package ndarray provides the dense N-dimensional arrays the viewer core
// works on: a read-only float64 backing array, boolean masks with the same
// indexing rules, and 2D planes cut out of either.
//
// All arrays are stored in row-major order, i.e. the last axis varies
// fastest, matching the layout of "C" order zarr chunks.
package ndarray

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrValidation is returned for invalid axis indices, out-of-range indices
// and shape mismatches. Callers test for it with errors.Is.
var ErrValidation = errors.New("validation error")

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Shape is the ordered list of per-axis sizes of an array.
type Shape []int

// Validate checks that the shape has at least one axis and that every axis
// has a positive size.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return Validationf("shape must have at least one dimension")
	}
	for i, n := range s {
		if n <= 0 {
			return Validationf("dimension %d has non-positive size %d", i, n)
		}
	}
	return nil
}

// NDim returns the number of axes.
func (s Shape) NDim() int { return len(s) }

// Size returns the total number of elements.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Strides returns the element strides of a row-major array of this shape.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	step := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = step
		step *= s[i]
	}
	return strides
}

// Equal reports whether both shapes have the same axes.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of s.
func (s Shape) Clone() Shape {
	return append(Shape(nil), s...)
}

// Offset returns the flat offset of idx, or an error if idx does not address
// an element of the shape.
func (s Shape) Offset(idx []int) (int, error) {
	if len(idx) != len(s) {
		return 0, Validationf("index has %d dimensions, shape has %d", len(idx), len(s))
	}
	off := 0
	for i, strides := 0, s.Strides(); i < len(s); i++ {
		if idx[i] < 0 || idx[i] >= s[i] {
			return 0, Validationf("index %d out of range [0,%d) on axis %d", idx[i], s[i], i)
		}
		off += idx[i] * strides[i]
	}
	return off, nil
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// ParseShape parses a comma separated list of axis sizes, e.g. "128,128,5".
func ParseShape(text string) (Shape, error) {
	fields := strings.Split(text, ",")
	shape := make(Shape, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, Validationf("invalid dimension %q", f)
		}
		shape = append(shape, n)
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return shape, nil
}
