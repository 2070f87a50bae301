package ndarray

// MaskedArray pairs an array with a mask of hidden elements, in the manner
// of a numpy masked array: an element is hidden where Hidden is set.
type MaskedArray struct {
	Data   *Array
	Hidden *Mask
}

// NewMaskedArray returns arr with the elements set in hidden masked out.
func NewMaskedArray(arr *Array, hidden *Mask) (*MaskedArray, error) {
	if !arr.shape.Equal(hidden.shape) {
		return nil, Validationf("mask shape %v does not match array shape %v", hidden.shape, arr.shape)
	}
	return &MaskedArray{Data: arr, Hidden: hidden}, nil
}

// Compressed returns the visible elements in row-major order.
func (m *MaskedArray) Compressed() []float64 {
	values := make([]float64, 0, len(m.Hidden.data)-m.Hidden.Count())
	for i, hidden := range m.Hidden.data {
		if !hidden {
			values = append(values, m.Data.data[i])
		}
	}
	return values
}

// Count returns the number of visible elements.
func (m *MaskedArray) Count() int {
	return len(m.Hidden.data) - m.Hidden.Count()
}

// Filled returns a copy of the data with hidden elements replaced by fill.
func (m *MaskedArray) Filled(fill float64) []float64 {
	out := make([]float64, len(m.Data.data))
	for i, v := range m.Data.data {
		if m.Hidden.data[i] {
			out[i] = fill
		} else {
			out[i] = v
		}
	}
	return out
}

// IsHidden reports whether the element at idx is masked out.
func (m *MaskedArray) IsHidden(idx ...int) (bool, error) {
	return m.Hidden.At(idx...)
}
