// Package roi implements named, colored region of interest masks over an
// N-dimensional array, the statistics derived from them, and the manager
// that owns a collection of them for a viewer.
package roi

import (
	"fmt"

	"github.com/google/uuid"

	"arrview/pkg/ndarray"
	"arrview/pkg/slicer"
)

// ROI is a named, colored boolean mask with the full rank of the backing
// array. It is independent of any particular 2D view.
type ROI struct {
	// ID identifies the ROI for the lifetime of the process
	ID uuid.UUID

	Name    string
	Color   RGB
	Visible bool

	mask        *ndarray.Mask
	subscribers []*subscriber
}

type subscriber struct {
	fn func(*ROI)
}

// New creates a visible ROI with an all-false mask of the given shape.
func New(name string, shape ndarray.Shape) (*ROI, error) {
	mask, err := ndarray.NewMask(shape)
	if err != nil {
		return nil, err
	}
	return &ROI{ID: uuid.New(), Name: name, Visible: true, mask: mask}, nil
}

// FromMask creates a visible ROI that takes ownership of mask.
func FromMask(name string, mask *ndarray.Mask) *ROI {
	return &ROI{ID: uuid.New(), Name: name, Visible: true, mask: mask}
}

// Mask returns a copy of the ROI mask. Changes go through SetMask or Merge
// so subscribers see them.
func (r *ROI) Mask() *ndarray.Mask { return r.mask.Clone() }

// Count returns the number of elements inside the ROI.
func (r *ROI) Count() int { return r.mask.Count() }

// Shape returns the shape of the mask.
func (r *ROI) Shape() ndarray.Shape { return r.mask.Shape() }

// SetMask writes a 2D patch into the plane selected by state. The patch is
// in screen order, with shape (size(y), size(x)), and is transposed into
// storage order when the state is transposed. Subscribers are notified
// before SetMask returns.
func (r *ROI) SetMask(patch *ndarray.Mask, state slicer.SliceState) error {
	shape := r.mask.Shape()
	if err := state.Validate(shape); err != nil {
		return fmt.Errorf("set mask of %s: %w", r.Name, err)
	}
	if patch.NDim() != 2 {
		return fmt.Errorf("set mask of %s: %w", r.Name,
			ndarray.Validationf("patch must be 2D, got %d dimensions", patch.NDim()))
	}
	if want := state.ViewShape(shape); !patch.Shape().Equal(want) {
		return fmt.Errorf("set mask of %s: %w", r.Name,
			ndarray.Validationf("patch shape %v does not match view shape %v", patch.Shape(), want))
	}

	if state.IsTransposed() {
		t, err := patch.Transpose()
		if err != nil {
			return err
		}
		patch = t
	}
	if err := r.mask.SetPlane(state.RawPlane(), patch); err != nil {
		return fmt.Errorf("set mask of %s: %w", r.Name, err)
	}
	r.notify()
	return nil
}

// Merge adds every element set in m to the ROI and notifies subscribers.
// m must have the shape of the ROI.
func (r *ROI) Merge(m *ndarray.Mask) error {
	if err := r.mask.Or(m); err != nil {
		return fmt.Errorf("merge into %s: %w", r.Name, err)
	}
	r.notify()
	return nil
}

// MaskArray returns arr with every element outside the ROI masked out.
func (r *ROI) MaskArray(arr *ndarray.Array) (*ndarray.MaskedArray, error) {
	return ndarray.NewMaskedArray(arr, r.mask.Invert())
}

// Subscribe registers fn to be called synchronously whenever the mask is
// updated. The returned function removes the registration.
func (r *ROI) Subscribe(fn func(*ROI)) (unsubscribe func()) {
	s := &subscriber{fn: fn}
	r.subscribers = append(r.subscribers, s)
	return func() {
		for i, cur := range r.subscribers {
			if cur == s {
				r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (r *ROI) notify() {
	for _, s := range append([]*subscriber(nil), r.subscribers...) {
		s.fn(r)
	}
}

func (r *ROI) String() string {
	return fmt.Sprintf("ROI(name=%q, color=%s)", r.Name, r.Color)
}
