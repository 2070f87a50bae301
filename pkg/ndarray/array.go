package ndarray

// Array is a dense, row-major, N-dimensional float64 array.
//
// An Array is treated as read-only once constructed: the viewer core never
// writes to it, and callers handing data to NewArray must not modify the
// slice afterwards.
type Array struct {
	shape Shape
	data  []float64
}

// NewArray wraps data as an array of the given shape. A nil data slice
// allocates a zero filled array.
func NewArray(shape Shape, data []float64) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if data == nil {
		data = make([]float64, shape.Size())
	}
	if len(data) != shape.Size() {
		return nil, Validationf("data has %d elements, shape %v needs %d", len(data), shape, shape.Size())
	}
	return &Array{shape: shape.Clone(), data: data}, nil
}

// Arange returns an array of the given shape holding 0, 1, 2, ... in
// row-major order.
func Arange(shape Shape) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	data := make([]float64, shape.Size())
	for i := range data {
		data[i] = float64(i)
	}
	return &Array{shape: shape.Clone(), data: data}, nil
}

// Shape returns a copy of the array shape.
func (a *Array) Shape() Shape { return a.shape.Clone() }

// NDim returns the number of axes.
func (a *Array) NDim() int { return len(a.shape) }

// Size returns the number of elements.
func (a *Array) Size() int { return len(a.data) }

// Data returns the flat row-major backing slice. It must not be modified.
func (a *Array) Data() []float64 { return a.data }

// At returns the element at idx.
func (a *Array) At(idx ...int) (float64, error) {
	off, err := a.shape.Offset(idx)
	if err != nil {
		return 0, err
	}
	return a.data[off], nil
}

// Plane copies the 2D plane p out of the array. The result is row-major with
// rows running along p.RowAxis.
func (a *Array) Plane(p Plane) (data []float64, rows, cols int, err error) {
	w, err := p.walk(a.shape)
	if err != nil {
		return nil, 0, 0, err
	}
	data = make([]float64, w.rows*w.cols)
	for r := 0; r < w.rows; r++ {
		off := w.base + r*w.rowStride
		for c := 0; c < w.cols; c++ {
			data[r*w.cols+c] = a.data[off+c*w.colStride]
		}
	}
	return data, w.rows, w.cols, nil
}

// Select returns the elements where m is set, in row-major order.
func (a *Array) Select(m *Mask) ([]float64, error) {
	if !a.shape.Equal(m.shape) {
		return nil, Validationf("mask shape %v does not match array shape %v", m.shape, a.shape)
	}
	values := make([]float64, 0, m.Count())
	for i, set := range m.data {
		if set {
			values = append(values, a.data[i])
		}
	}
	return values, nil
}
