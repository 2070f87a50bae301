package ndarray

// Mask is a dense, row-major, N-dimensional boolean array.
type Mask struct {
	shape Shape
	data  []bool
}

// NewMask returns an all-false mask of the given shape.
func NewMask(shape Shape) (*Mask, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Mask{shape: shape.Clone(), data: make([]bool, shape.Size())}, nil
}

// MaskFromBools wraps data as a mask of the given shape.
func MaskFromBools(shape Shape, data []bool) (*Mask, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.Size() {
		return nil, Validationf("data has %d elements, shape %v needs %d", len(data), shape, shape.Size())
	}
	return &Mask{shape: shape.Clone(), data: data}, nil
}

// MaskFromRows builds a 2D mask from equally long rows.
func MaskFromRows(rows [][]bool) (*Mask, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, Validationf("rows must be non-empty")
	}
	cols := len(rows[0])
	data := make([]bool, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, Validationf("row %d has %d columns, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return &Mask{shape: Shape{len(rows), cols}, data: data}, nil
}

// Shape returns a copy of the mask shape.
func (m *Mask) Shape() Shape { return m.shape.Clone() }

// NDim returns the number of axes.
func (m *Mask) NDim() int { return len(m.shape) }

// Data returns the flat row-major backing slice.
func (m *Mask) Data() []bool { return m.data }

// Count returns the number of set elements.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.data {
		if v {
			n++
		}
	}
	return n
}

// At returns the element at idx.
func (m *Mask) At(idx ...int) (bool, error) {
	off, err := m.shape.Offset(idx)
	if err != nil {
		return false, err
	}
	return m.data[off], nil
}

// Set stores v at idx.
func (m *Mask) Set(v bool, idx ...int) error {
	off, err := m.shape.Offset(idx)
	if err != nil {
		return err
	}
	m.data[off] = v
	return nil
}

// Clone returns a deep copy of m.
func (m *Mask) Clone() *Mask {
	return &Mask{shape: m.shape.Clone(), data: append([]bool(nil), m.data...)}
}

// Equal reports whether both masks have the same shape and elements.
func (m *Mask) Equal(o *Mask) bool {
	if o == nil || !m.shape.Equal(o.shape) {
		return false
	}
	for i := range m.data {
		if m.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// Or sets every element of m that is set in o.
func (m *Mask) Or(o *Mask) error {
	if !m.shape.Equal(o.shape) {
		return Validationf("cannot combine mask %v with mask %v", m.shape, o.shape)
	}
	for i, v := range o.data {
		if v {
			m.data[i] = true
		}
	}
	return nil
}

// Invert returns a new mask with every element negated.
func (m *Mask) Invert() *Mask {
	inv := &Mask{shape: m.shape.Clone(), data: make([]bool, len(m.data))}
	for i, v := range m.data {
		inv.data[i] = !v
	}
	return inv
}

// Transpose returns the transpose of a 2D mask.
func (m *Mask) Transpose() (*Mask, error) {
	if len(m.shape) != 2 {
		return nil, Validationf("transpose needs a 2D mask, got %d dimensions", len(m.shape))
	}
	rows, cols := m.shape[0], m.shape[1]
	t := &Mask{shape: Shape{cols, rows}, data: make([]bool, len(m.data))}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t.data[c*rows+r] = m.data[r*cols+c]
		}
	}
	return t, nil
}

// Plane copies the plane p out of the mask as a 2D mask.
func (m *Mask) Plane(p Plane) (*Mask, error) {
	w, err := p.walk(m.shape)
	if err != nil {
		return nil, err
	}
	out := &Mask{shape: Shape{w.rows, w.cols}, data: make([]bool, w.rows*w.cols)}
	for r := 0; r < w.rows; r++ {
		off := w.base + r*w.rowStride
		for c := 0; c < w.cols; c++ {
			out.data[r*w.cols+c] = m.data[off+c*w.colStride]
		}
	}
	return out, nil
}

// SetPlane overwrites the plane p with the 2D mask patch, whose shape must
// equal the plane dimensions.
func (m *Mask) SetPlane(p Plane, patch *Mask) error {
	w, err := p.walk(m.shape)
	if err != nil {
		return err
	}
	if !patch.shape.Equal(Shape{w.rows, w.cols}) {
		return Validationf("patch shape %v does not match plane shape (%d,%d)", patch.shape, w.rows, w.cols)
	}
	for r := 0; r < w.rows; r++ {
		off := w.base + r*w.rowStride
		for c := 0; c < w.cols; c++ {
			m.data[off+c*w.colStride] = patch.data[r*w.cols+c]
		}
	}
	return nil
}
