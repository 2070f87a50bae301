package ndarray

// Plane selects a 2D sub-region of an N-dimensional array: the full range of
// RowAxis and ColAxis, and exactly Index[i] on every other axis i. Entries of
// Index at the two plane axes are ignored.
type Plane struct {
	RowAxis int
	ColAxis int
	Index   []int
}

type planeWalk struct {
	base      int
	rowStride int
	colStride int
	rows      int
	cols      int
}

// Dims returns the (rows, cols) size of the plane within shape.
func (p Plane) Dims(shape Shape) (rows, cols int, err error) {
	w, err := p.walk(shape)
	if err != nil {
		return 0, 0, err
	}
	return w.rows, w.cols, nil
}

func (p Plane) walk(shape Shape) (planeWalk, error) {
	n := len(shape)
	if p.RowAxis < 0 || p.RowAxis >= n || p.ColAxis < 0 || p.ColAxis >= n {
		return planeWalk{}, Validationf("plane axes (%d,%d) out of range for %d dimensions", p.RowAxis, p.ColAxis, n)
	}
	if p.RowAxis == p.ColAxis {
		return planeWalk{}, Validationf("plane axes must differ, both are %d", p.RowAxis)
	}
	if len(p.Index) != n {
		return planeWalk{}, Validationf("plane index has %d dimensions, shape has %d", len(p.Index), n)
	}

	strides := shape.Strides()
	w := planeWalk{
		rowStride: strides[p.RowAxis],
		colStride: strides[p.ColAxis],
		rows:      shape[p.RowAxis],
		cols:      shape[p.ColAxis],
	}
	for i, v := range p.Index {
		if i == p.RowAxis || i == p.ColAxis {
			continue
		}
		if v < 0 || v >= shape[i] {
			return planeWalk{}, Validationf("index %d out of range [0,%d) on axis %d", v, shape[i], i)
		}
		w.base += v * strides[i]
	}
	return w, nil
}
