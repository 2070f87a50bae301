// Package slicer maps an N-dimensional array to a 2D view given a pair of
// view axes and fixed indices on the remaining free axes.
package slicer

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"arrview/pkg/ndarray"
)

// Default view axes: columns along axis 1, rows along axis 0.
const (
	DefaultXDim = 1
	DefaultYDim = 0
)

// Slicer keeps track of the 2D view of an N-dimensional array.
//
// A Slicer is not safe for concurrent mutation; a single caller owns it.
type Slicer struct {
	// arr is the backing array; never modified
	arr *ndarray.Array

	// state is the current view selection
	state SliceState

	listeners []*listener
	logger    *slog.Logger
}

type listener struct {
	fn func(SliceState)
}

// Option configures a Slicer.
type Option func(*options)

type options struct {
	xdim, ydim int
	logger     *slog.Logger
}

// WithViewDims selects the initial view axes.
func WithViewDims(x, y int) Option {
	return func(o *options) { o.xdim, o.ydim = x, y }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a slicer over arr. The array must have at least 2 dimensions.
func New(arr *ndarray.Array, opts ...Option) (*Slicer, error) {
	o := options{xdim: DefaultXDim, ydim: DefaultYDim}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	state, err := NewSliceState(arr.NDim(), o.xdim, o.ydim)
	if err != nil {
		return nil, err
	}
	return &Slicer{arr: arr, state: state, logger: o.logger}, nil
}

// Array returns the backing array.
func (s *Slicer) Array() *ndarray.Array { return s.arr }

// Shape returns the shape of the backing array.
func (s *Slicer) Shape() ndarray.Shape { return s.arr.Shape() }

// NDim returns the number of axes of the backing array.
func (s *Slicer) NDim() int { return s.arr.NDim() }

// DimSize returns the size of axis dim.
func (s *Slicer) DimSize(dim int) (int, error) {
	if dim < 0 || dim >= s.arr.NDim() {
		return 0, ndarray.Validationf("dimension %d out of range [0,%d)", dim, s.arr.NDim())
	}
	return s.arr.Shape()[dim], nil
}

// State returns the current slice state.
func (s *Slicer) State() SliceState { return s.state }

// SetViewDims selects a new pair of view axes. The previous view axes become
// free axes at index 0.
func (s *Slicer) SetViewDims(x, y int) error {
	state, err := s.state.WithViewDims(x, y)
	if err != nil {
		return err
	}
	s.setState(state)
	return nil
}

// SetFreeDim fixes axis dim at val. Setting a view axis is a no-op. Values
// outside the axis range are clamped to the nearest bound.
func (s *Slicer) SetFreeDim(dim, val int) error {
	size, err := s.DimSize(dim)
	if err != nil {
		return err
	}
	if s.state.IsView(dim) {
		s.logger.Debug("ignoring free dimension update on view dimension", "dim", dim)
		return nil
	}
	if val >= size {
		val = size - 1
	}
	if val < 0 {
		val = 0
	}
	if s.state.Index(dim) == val {
		return nil
	}
	state, err := s.state.WithIndex(dim, val)
	if err != nil {
		return err
	}
	s.setState(state)
	return nil
}

// View extracts the current 2D view: rows along the y axis, columns along
// the x axis.
func (s *Slicer) View() (*mat.Dense, error) {
	return ViewOf(s.arr, s.state)
}

// ViewOf extracts the 2D view of arr selected by state.
func ViewOf(arr *ndarray.Array, state SliceState) (*mat.Dense, error) {
	if err := state.Validate(arr.Shape()); err != nil {
		return nil, err
	}
	data, rows, cols, err := arr.Plane(state.RawPlane())
	if err != nil {
		return nil, err
	}
	raw := mat.NewDense(rows, cols, data)
	if state.IsTransposed() {
		return mat.DenseCopyOf(raw.T()), nil
	}
	return raw, nil
}

// OnChange registers fn to be called synchronously after every change of
// the slice state. The returned function removes the registration.
func (s *Slicer) OnChange(fn func(SliceState)) (unsubscribe func()) {
	l := &listener{fn: fn}
	s.listeners = append(s.listeners, l)
	return func() {
		for i, cur := range s.listeners {
			if cur == l {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Slicer) setState(state SliceState) {
	old := s.state
	s.state = state
	if old.Equal(state) {
		return
	}
	s.logger.Debug("slice changed", "from", old.String(), "to", state.String())
	for _, l := range append([]*listener(nil), s.listeners...) {
		l.fn(state)
	}
}
