package roi

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arrview/pkg/ndarray"
	"arrview/pkg/raster"
	"arrview/pkg/slicer"
)

func arange(t *testing.T, shape ...int) *ndarray.Array {
	t.Helper()
	arr, err := ndarray.Arange(ndarray.Shape(shape))
	require.NoError(t, err)
	return arr
}

func state(t *testing.T, ndim, x, y int) slicer.SliceState {
	t.Helper()
	s, err := slicer.NewSliceState(ndim, x, y)
	require.NoError(t, err)
	return s
}

func TestNewROI(t *testing.T) {
	r, err := New("name", ndarray.Shape{3, 3, 3})
	require.NoError(t, err)

	assert.Equal(t, "name", r.Name)
	assert.True(t, r.Visible)
	assert.Equal(t, 0, r.Mask().Count())
	assert.True(t, r.Shape().Equal(ndarray.Shape{3, 3, 3}))
}

func TestSetMask(t *testing.T) {
	r, err := New("a", ndarray.Shape{3, 3, 3})
	require.NoError(t, err)

	st, err := state(t, 3, 1, 0).WithIndex(2, 1)
	require.NoError(t, err)
	patch, err := ndarray.MaskFromRows([][]bool{
		{true, false, false},
		{false, false, false},
		{false, false, true},
	})
	require.NoError(t, err)

	var updates int
	r.Subscribe(func(*ROI) { updates++ })

	require.NoError(t, r.SetMask(patch, st))
	assert.Equal(t, 1, updates)
	assert.Equal(t, 2, r.Mask().Count())
	v, _ := r.Mask().At(0, 0, 1)
	assert.True(t, v)
	v, _ = r.Mask().At(2, 2, 1)
	assert.True(t, v)
}

func TestSetMaskTransposed(t *testing.T) {
	r, err := New("a", ndarray.Shape{3, 4})
	require.NoError(t, err)

	// x = 0, y = 1: the screen shows axis 1 as rows
	st := state(t, 2, 0, 1)
	require.True(t, st.IsTransposed())

	rows := make([][]bool, 4)
	for i := range rows {
		rows[i] = make([]bool, 3)
	}
	rows[1][2] = true
	rows[3][0] = true
	patch, err := ndarray.MaskFromRows(rows)
	require.NoError(t, err)

	require.NoError(t, r.SetMask(patch, st))

	want, err := patch.Transpose()
	require.NoError(t, err)
	raw, err := r.Mask().Plane(st.RawPlane())
	require.NoError(t, err)
	assert.True(t, raw.Equal(want), "stored plane should be the transposed patch")

	v, _ := r.Mask().At(2, 1)
	assert.True(t, v)
	v, _ = r.Mask().At(0, 3)
	assert.True(t, v)
}

func TestSetMaskShapeMismatch(t *testing.T) {
	r, err := New("a", ndarray.Shape{3, 4})
	require.NoError(t, err)

	var updates int
	r.Subscribe(func(*ROI) { updates++ })

	st := state(t, 2, 1, 0)
	wrong, _ := ndarray.NewMask(ndarray.Shape{4, 3})
	err = r.SetMask(wrong, st)
	assert.True(t, errors.Is(err, ndarray.ErrValidation), "got %v", err)

	flat, _ := ndarray.NewMask(ndarray.Shape{12})
	err = r.SetMask(flat, st)
	assert.True(t, errors.Is(err, ndarray.ErrValidation), "got %v", err)

	err = r.SetMask(wrong, state(t, 3, 1, 0))
	assert.True(t, errors.Is(err, ndarray.ErrValidation), "got %v", err)

	assert.Zero(t, updates)
}

func TestUnsubscribe(t *testing.T) {
	r, err := New("a", ndarray.Shape{2, 2})
	require.NoError(t, err)

	var updates int
	unsubscribe := r.Subscribe(func(*ROI) { updates++ })
	patch, _ := ndarray.NewMask(ndarray.Shape{2, 2})
	require.NoError(t, r.SetMask(patch, state(t, 2, 1, 0)))
	unsubscribe()
	require.NoError(t, r.SetMask(patch, state(t, 2, 1, 0)))

	assert.Equal(t, 1, updates)
}

func TestMaskIsCopy(t *testing.T) {
	r, err := New("a", ndarray.Shape{2, 2})
	require.NoError(t, err)
	var updates int
	r.Subscribe(func(*ROI) { updates++ })

	require.NoError(t, r.Mask().Set(true, 1, 1))
	assert.Equal(t, 0, r.Count(), "writes to the copy must not reach the ROI")
	assert.Equal(t, 0, updates)

	add, _ := ndarray.NewMask(ndarray.Shape{2, 2})
	require.NoError(t, add.Set(true, 1, 1))
	require.NoError(t, r.Merge(add))
	assert.Equal(t, 1, r.Count())
	assert.Equal(t, 1, updates)

	wrong, _ := ndarray.NewMask(ndarray.Shape{3, 3})
	err = r.Merge(wrong)
	assert.True(t, errors.Is(err, ndarray.ErrValidation), "got %v", err)
	assert.Equal(t, 1, updates)
}

func TestMaskArray(t *testing.T) {
	arr := arange(t, 3, 3, 3)
	mask, err := ndarray.NewMask(arr.Shape())
	require.NoError(t, err)
	require.NoError(t, mask.Set(true, 0, 0, 0))
	require.NoError(t, mask.Set(true, 1, 2, 0))
	r := FromMask("a", mask)

	masked, err := r.MaskArray(arr)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 15}, masked.Compressed())

	hidden, _ := masked.IsHidden(0, 0, 1)
	assert.True(t, hidden)
}

func TestStatsView(t *testing.T) {
	arr := arange(t, 2, 3, 4)
	mask, err := ndarray.NewMask(arr.Shape())
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			require.NoError(t, mask.Set(true, i, j, 0))
		}
	}

	view, err := NewStatsView(FromMask("a", mask), arr)
	require.NoError(t, err)

	assert.InDelta(t, 8.0, view.Mean(), 1e-12)
	assert.InDelta(t, 6.324555320336759, view.Std(), 1e-12)
	assert.Equal(t, 4, view.Size())
}

func TestStatsViewEmpty(t *testing.T) {
	arr := arange(t, 2, 2)
	r, err := New("a", arr.Shape())
	require.NoError(t, err)

	view, err := NewStatsView(r, arr)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(view.Mean()))
	assert.True(t, math.IsNaN(view.Std()))
	assert.Equal(t, 0, view.Size())
}

func TestStatsViewFollowsUpdates(t *testing.T) {
	arr := arange(t, 2, 3, 4)
	r, err := New("a", arr.Shape())
	require.NoError(t, err)
	view, err := NewStatsView(r, arr)
	require.NoError(t, err)

	// a 2x2 square drawn on the (y=0, x=1) view at index 0 of axis 2
	st := state(t, 3, 1, 0)
	patch, err := raster.FillPolygon(2, 3, []raster.Point{{Row: 0, Col: 0}, {Row: 0, Col: 2}, {Row: 2, Col: 2}, {Row: 2, Col: 0}})
	require.NoError(t, err)
	require.NoError(t, r.SetMask(patch, st))

	assert.Equal(t, 4, view.Size())
	assert.InDelta(t, 8.0, view.Mean(), 1e-12)
	assert.InDelta(t, math.Sqrt(40), view.Std(), 1e-12)

	// a different backing array with the same shape
	data := make([]float64, arr.Size())
	for i := range data {
		data[i] = 2
	}
	other, err := ndarray.NewArray(arr.Shape(), data)
	require.NoError(t, err)
	require.NoError(t, view.SetArray(other))
	assert.InDelta(t, 2.0, view.Mean(), 1e-12)
	assert.InDelta(t, 0.0, view.Std(), 1e-12)

	small := arange(t, 2, 2)
	assert.Error(t, view.SetArray(small))
	assert.InDelta(t, 2.0, view.Mean(), 1e-12)

	view.Close()
	empty, _ := ndarray.NewMask(ndarray.Shape{2, 3})
	require.NoError(t, r.SetMask(empty, st))
	assert.Equal(t, 4, view.Size(), "closed view should not follow updates")
}

func TestStatsViewShapeMismatch(t *testing.T) {
	r, err := New("a", ndarray.Shape{2, 2})
	require.NoError(t, err)
	_, err = NewStatsView(r, arange(t, 3, 3))
	assert.True(t, errors.Is(err, ndarray.ErrValidation), "got %v", err)
}

func TestStatsViewLogsFailedUpdate(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	arr := arange(t, 2, 2)
	r, err := New("liver", arr.Shape())
	require.NoError(t, err)
	view, err := NewStatsView(r, arr, WithStatsLogger(logger))
	require.NoError(t, err)

	// swap in an array the mask cannot select from
	view.arr = arange(t, 3, 3)
	full, _ := ndarray.MaskFromBools(ndarray.Shape{2, 2}, []bool{true, true, true, true})
	require.NoError(t, r.Merge(full))

	assert.Equal(t, 0, view.Size(), "failed update keeps previous statistics")
	assert.Contains(t, buf.String(), "stats not updated")
	assert.Contains(t, buf.String(), "liver")
}
