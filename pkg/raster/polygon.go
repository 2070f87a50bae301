// Package raster converts polygon outlines drawn on a 2D view into filled
// boolean masks.
package raster

import (
	"math"
	"sort"

	"arrview/pkg/ndarray"
)

// Point is a polygon vertex in view coordinates.
type Point struct {
	Row float64
	Col float64
}

// FillPolygon returns a rows x cols mask with pixel (r, c) set iff the point
// (r, c) lies inside poly under the even-odd rule. Edges are half-open in the
// row direction, so a pixel on the upper or left boundary of an axis aligned
// square is inside and one on the lower or right boundary is not.
//
// Pixels outside the grid are dropped. Fewer than three vertices give an
// empty mask. Vertices must be finite.
func FillPolygon(rows, cols int, poly []Point) (*ndarray.Mask, error) {
	mask, err := ndarray.NewMask(ndarray.Shape{rows, cols})
	if err != nil {
		return nil, err
	}
	for i, p := range poly {
		if !isFinite(p.Row) || !isFinite(p.Col) {
			return nil, ndarray.Validationf("polygon vertex %d (%g, %g) is not finite", i, p.Row, p.Col)
		}
	}
	if len(poly) < 3 || rows == 0 || cols == 0 {
		return mask, nil
	}

	minRow, maxRow := math.Inf(1), math.Inf(-1)
	for _, p := range poly {
		minRow = math.Min(minRow, p.Row)
		maxRow = math.Max(maxRow, p.Row)
	}
	// a row crosses an edge only when minRow <= row < maxRow; the bounds are
	// clamped before the int conversion so far away vertices cannot overflow
	r0f := math.Max(0, math.Ceil(minRow))
	r1f := math.Min(float64(rows-1), math.Ceil(maxRow)-1)
	if r0f > r1f {
		return mask, nil
	}
	r0, r1 := int(r0f), int(r1f)

	data := mask.Data()
	crossings := make([]float64, 0, len(poly))
	for r := r0; r <= r1; r++ {
		crossings = scanline(crossings[:0], poly, float64(r))
		// column c is inside when an odd number of crossings lie strictly to
		// its right, i.e. crossings[2k] <= c < crossings[2k+1]
		for i := 0; i+1 < len(crossings); i += 2 {
			c0 := columnBound(crossings[i], cols)
			c1 := columnBound(crossings[i+1], cols)
			for c := c0; c < c1; c++ {
				data[r*cols+c] = true
			}
		}
	}
	return mask, nil
}

// scanline appends the sorted column positions where the horizontal line at
// row crosses the polygon edges. An edge counts when exactly one of its
// endpoints has a row greater than the line.
func scanline(dst []float64, poly []Point, row float64) []float64 {
	j := len(poly) - 1
	for i := range poly {
		a, b := poly[i], poly[j]
		if (a.Row > row) != (b.Row > row) {
			dst = append(dst, (b.Col-a.Col)*(row-a.Row)/(b.Row-a.Row)+a.Col)
		}
		j = i
	}
	sort.Float64s(dst)
	return dst
}

// Contains reports whether (row, col) lies inside poly under the even-odd
// rule, using the same half-open convention as FillPolygon.
func Contains(poly []Point, row, col float64) bool {
	inside := false
	j := len(poly) - 1
	for i := range poly {
		a, b := poly[i], poly[j]
		if (a.Row > row) != (b.Row > row) &&
			col < (b.Col-a.Col)*(row-a.Row)/(b.Row-a.Row)+a.Col {
			inside = !inside
		}
		j = i
	}
	return inside
}

// columnBound returns the first column at or right of x, clamped to
// [0, cols]. Crossings that overflowed to NaN count as the left edge.
func columnBound(x float64, cols int) int {
	switch {
	case math.IsNaN(x) || x <= 0:
		return 0
	case x >= float64(cols):
		return cols
	}
	return int(math.Ceil(x))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
