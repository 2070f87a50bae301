package persistence

import (
	"fmt"
	"math"
	"sort"

	"arrview/pkg/ndarray"
	"arrview/pkg/raster"
	"arrview/pkg/roi"
	"arrview/pkg/slicer"
)

// LegacyRecord is one polygon of a version 0 file: the polygon drawn on the
// screen view selected by State. Vertices are (row, col) in view
// coordinates. Several records may share a name; they form a single ROI.
type LegacyRecord struct {
	Name  string
	State slicer.SliceState
	Poly  []raster.Point
}

// SaveLegacy writes records as a version 0 container. It exists to produce
// legacy fixtures; applications write version 1 with Save.
func SaveLegacy(records []LegacyRecord, filename string) error {
	s := NewMemoryStore()
	if err := putJSON(s, keyAttributes, rootAttributes{Description: DefaultDescription}); err != nil {
		return err
	}
	for i, rec := range records {
		prefix := fmt.Sprintf("%s/roi_%d", groupPrefix, i)
		// view positions already hold the 0 placeholder
		x, y := rec.State.ViewDims()
		attrs := polyAttributes{Name: rec.Name, ViewDims: []int{x, y}, ArrSlc: rec.State.ArraySlice()}
		if err := putJSON(s, prefix+"/"+keyAttributes, attrs); err != nil {
			return err
		}

		coords := make([]float64, 0, 2*len(rec.Poly))
		for _, p := range rec.Poly {
			coords = append(coords, p.Row, p.Col)
		}
		meta := newArrayMeta([]int{len(rec.Poly), 2}, dtypeFloat64, DefaultCompressionLevel)
		if err := putArray(s, prefix+"/poly", meta, encodeFloat64s(coords)); err != nil {
			return err
		}
	}
	if err := writeArchive(filename, s); err != nil {
		return fmt.Errorf("write roi file %s: %w", filename, err)
	}
	return nil
}

// readRecords decodes every version 0 record in storage order.
func readRecords(s Store) ([]LegacyRecord, error) {
	var records []LegacyRecord
	for _, group := range groupNames(s, groupPrefix) {
		prefix := groupPrefix + "/" + group
		var attrs polyAttributes
		if err := getJSON(s, prefix+"/"+keyAttributes, &attrs); err != nil {
			return nil, err
		}
		if len(attrs.ViewDims) != 2 {
			return nil, fmt.Errorf("%w: group %s: viewdims %v must have 2 entries", ErrFormat, group, attrs.ViewDims)
		}
		state, err := slicer.SliceStateFromArraySlice(attrs.ArrSlc, attrs.ViewDims[0], attrs.ViewDims[1])
		if err != nil {
			return nil, fmt.Errorf("%w: group %s: %v", ErrFormat, group, err)
		}

		meta, raw, err := getArray(s, prefix+"/poly", dtypeFloat64)
		if err != nil {
			return nil, err
		}
		if len(meta.Shape) != 2 || meta.Shape[1] != 2 {
			return nil, fmt.Errorf("%w: group %s: polygon shape %v, want [n 2]", ErrFormat, group, meta.Shape)
		}
		coords, err := decodeFloat64s(raw, meta.size())
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", group, err)
		}
		poly := make([]raster.Point, meta.Shape[0])
		for i := range poly {
			row, col := coords[2*i], coords[2*i+1]
			if math.IsNaN(row) || math.IsInf(row, 0) || math.IsNaN(col) || math.IsInf(col, 0) {
				return nil, fmt.Errorf("%w: group %s: vertex %d (%g, %g) is not finite", ErrFormat, group, i, row, col)
			}
			poly[i] = raster.Point{Row: row, Col: col}
		}
		records = append(records, LegacyRecord{Name: attrs.Name, State: state, Poly: poly})
	}
	return records, nil
}

func loadVersion0(s Store, shape ndarray.Shape) ([]*roi.ROI, error) {
	records, err := readRecords(s)
	if err != nil {
		return nil, err
	}
	return Migrate(records, shape)
}

// Migrate rasterizes legacy records into dense masks of the given shape.
// Records sharing a name are OR combined into one ROI. The result is sorted
// by the slice state of each ROI's first record, then by name.
func Migrate(records []LegacyRecord, shape ndarray.Shape) ([]*roi.ROI, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	type group struct {
		first slicer.SliceState
		roi   *roi.ROI
	}
	var groups []*group
	byName := map[string]*group{}
	for _, rec := range records {
		mask, err := recordMask(rec, shape)
		if err != nil {
			return nil, fmt.Errorf("migrate %q: %w", rec.Name, err)
		}
		g, ok := byName[rec.Name]
		if !ok {
			g = &group{first: rec.State, roi: roi.FromMask(rec.Name, mask)}
			byName[rec.Name] = g
			groups = append(groups, g)
			continue
		}
		if err := g.roi.Merge(mask); err != nil {
			return nil, fmt.Errorf("migrate %q: %w", rec.Name, err)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if c := groups[i].first.Compare(groups[j].first); c != 0 {
			return c < 0
		}
		return groups[i].roi.Name < groups[j].roi.Name
	})
	rois := make([]*roi.ROI, len(groups))
	for i, g := range groups {
		rois[i] = g.roi
	}
	return rois, nil
}

// recordMask rasterizes one record into a full rank mask. The record's
// slice descriptor is collapsed to the rank of shape by dropping trailing
// positions.
func recordMask(rec LegacyRecord, shape ndarray.Shape) (*ndarray.Mask, error) {
	rank := len(shape)
	state := rec.State
	if state.NDim() < rank {
		return nil, fmt.Errorf("%w: %d dimensional slice cannot address shape %v", ErrFormat, state.NDim(), shape)
	}
	x, y := state.ViewDims()
	if x >= rank || y >= rank {
		return nil, fmt.Errorf("%w: view dimensions (%d, %d) outside shape %v", ErrFormat, x, y, shape)
	}
	collapsed, err := slicer.SliceStateFromArraySlice(state.ArraySlice()[:rank], x, y)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if err := collapsed.Validate(shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	view := collapsed.ViewShape(shape)
	patch, err := raster.FillPolygon(view[0], view[1], rec.Poly)
	if err != nil {
		return nil, err
	}
	scratch, err := roi.New(rec.Name, shape)
	if err != nil {
		return nil, err
	}
	if err := scratch.SetMask(patch, collapsed); err != nil {
		return nil, err
	}
	return scratch.Mask(), nil
}
