package slicer

import (
	"fmt"
	"strconv"
	"strings"

	"arrview/pkg/ndarray"
)

// SliceState describes how an N-dimensional array is mapped to a 2D view:
// one axis is shown horizontally (x), one vertically (y), and every other
// axis is held at a fixed index.
//
// SliceState is a value type. Its methods never modify the receiver.
type SliceState struct {
	xdim  int
	ydim  int
	index []int // fixed indices, 0 at the two view positions
}

// NewSliceState returns a state for ndim axes with x and y as view axes and
// every free axis at index 0.
func NewSliceState(ndim, x, y int) (SliceState, error) {
	if err := checkViewDims(ndim, x, y); err != nil {
		return SliceState{}, err
	}
	return SliceState{xdim: x, ydim: y, index: make([]int, ndim)}, nil
}

// SliceStateFromArraySlice rebuilds a state from its legacy form: a full
// length index list with placeholders at the view positions, plus the
// (x, y) view axes.
func SliceStateFromArraySlice(arrslc []int, x, y int) (SliceState, error) {
	if err := checkViewDims(len(arrslc), x, y); err != nil {
		return SliceState{}, err
	}
	index := append([]int(nil), arrslc...)
	index[x], index[y] = 0, 0
	for i, v := range index {
		if v < 0 {
			return SliceState{}, ndarray.Validationf("negative index %d on axis %d", v, i)
		}
	}
	return SliceState{xdim: x, ydim: y, index: index}, nil
}

func checkViewDims(ndim, x, y int) error {
	if ndim < 2 {
		return ndarray.Validationf("need at least 2 dimensions, got %d", ndim)
	}
	if x < 0 || x >= ndim {
		return ndarray.Validationf("x dimension %d out of range [0,%d)", x, ndim)
	}
	if y < 0 || y >= ndim {
		return ndarray.Validationf("y dimension %d out of range [0,%d)", y, ndim)
	}
	if x == y {
		return ndarray.Validationf("x and y dimensions must differ, both are %d", x)
	}
	return nil
}

// NDim returns the number of axes described.
func (s SliceState) NDim() int { return len(s.index) }

// XDim returns the horizontal view axis.
func (s SliceState) XDim() int { return s.xdim }

// YDim returns the vertical view axis.
func (s SliceState) YDim() int { return s.ydim }

// ViewDims returns the (x, y) view axes.
func (s SliceState) ViewDims() (x, y int) { return s.xdim, s.ydim }

// IsView reports whether dim is one of the two view axes.
func (s SliceState) IsView(dim int) bool { return dim == s.xdim || dim == s.ydim }

// IsTransposed reports whether the raw array plane must be transposed to
// get screen order (rows along y, columns along x).
func (s SliceState) IsTransposed() bool { return s.ydim > s.xdim }

// FreeDims returns the fixed axes in ascending order.
func (s SliceState) FreeDims() []int {
	free := make([]int, 0, len(s.index))
	for i := range s.index {
		if !s.IsView(i) {
			free = append(free, i)
		}
	}
	return free
}

// Index returns the fixed index held on dim; 0 for view axes.
func (s SliceState) Index(dim int) int { return s.index[dim] }

// ArraySlice returns the fixed indices with 0 at the view positions.
func (s SliceState) ArraySlice() []int { return append([]int(nil), s.index...) }

// WithViewDims returns a copy of s with new view axes. The old view
// positions become free axes at index 0.
func (s SliceState) WithViewDims(x, y int) (SliceState, error) {
	if err := checkViewDims(len(s.index), x, y); err != nil {
		return SliceState{}, err
	}
	index := s.ArraySlice()
	index[s.xdim], index[s.ydim] = 0, 0
	index[x], index[y] = 0, 0
	return SliceState{xdim: x, ydim: y, index: index}, nil
}

// WithIndex returns a copy of s with dim fixed at val. dim must be a free
// axis.
func (s SliceState) WithIndex(dim, val int) (SliceState, error) {
	if dim < 0 || dim >= len(s.index) {
		return SliceState{}, ndarray.Validationf("dimension %d out of range [0,%d)", dim, len(s.index))
	}
	if s.IsView(dim) {
		return SliceState{}, ndarray.Validationf("dimension %d is a view dimension", dim)
	}
	index := s.ArraySlice()
	index[dim] = val
	return SliceState{xdim: s.xdim, ydim: s.ydim, index: index}, nil
}

// Validate checks the state against an array shape.
func (s SliceState) Validate(shape ndarray.Shape) error {
	if len(shape) != len(s.index) {
		return ndarray.Validationf("slice has %d dimensions, shape %v has %d", len(s.index), shape, len(shape))
	}
	if err := checkViewDims(len(s.index), s.xdim, s.ydim); err != nil {
		return err
	}
	for _, d := range s.FreeDims() {
		if s.index[d] < 0 || s.index[d] >= shape[d] {
			return ndarray.Validationf("index %d out of range [0,%d) on axis %d", s.index[d], shape[d], d)
		}
	}
	return nil
}

// RawPlane returns the plane of the array selected by s in storage order:
// rows run along the lower numbered view axis.
func (s SliceState) RawPlane() ndarray.Plane {
	lo, hi := s.ydim, s.xdim
	if s.IsTransposed() {
		lo, hi = s.xdim, s.ydim
	}
	return ndarray.Plane{RowAxis: lo, ColAxis: hi, Index: s.ArraySlice()}
}

// ScreenPlane returns the plane of the array selected by s in screen order:
// rows along y, columns along x.
func (s SliceState) ScreenPlane() ndarray.Plane {
	return ndarray.Plane{RowAxis: s.ydim, ColAxis: s.xdim, Index: s.ArraySlice()}
}

// ViewShape returns the (rows, cols) of the screen view within shape.
func (s SliceState) ViewShape(shape ndarray.Shape) ndarray.Shape {
	return ndarray.Shape{shape[s.ydim], shape[s.xdim]}
}

// Equal reports whether both states select the same view.
func (s SliceState) Equal(o SliceState) bool {
	return s.Compare(o) == 0
}

// Compare orders states position by position. At a single position a fixed
// index sorts before the x axis, which sorts before the y axis; fixed indices
// compare numerically. A shorter state sorts first when one is a prefix of
// the other.
func (s SliceState) Compare(o SliceState) int {
	n := len(s.index)
	if len(o.index) < n {
		n = len(o.index)
	}
	for i := 0; i < n; i++ {
		ka, va := s.key(i)
		kb, vb := o.key(i)
		if ka != kb {
			return ka - kb
		}
		if va != vb {
			if va < vb {
				return -1
			}
			return 1
		}
	}
	return len(s.index) - len(o.index)
}

func (s SliceState) key(i int) (kind, val int) {
	switch i {
	case s.xdim:
		return 1, 0
	case s.ydim:
		return 2, 0
	default:
		return 0, s.index[i]
	}
}

// String renders the state like "ArraySlice(y,x,0,3)".
func (s SliceState) String() string {
	parts := make([]string, len(s.index))
	for i, v := range s.index {
		switch i {
		case s.xdim:
			parts[i] = "x"
		case s.ydim:
			parts[i] = "y"
		default:
			parts[i] = strconv.Itoa(v)
		}
	}
	return fmt.Sprintf("ArraySlice(%s)", strings.Join(parts, ","))
}
