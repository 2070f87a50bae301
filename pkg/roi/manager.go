package roi

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"arrview/pkg/ndarray"
	"arrview/pkg/slicer"
)

// Default color cursor parameters.
const (
	DefaultHueStart   = 0.0
	DefaultSaturation = 1.0
	DefaultLightness  = 0.5
)

// Manager owns an ordered collection of ROIs over one backing array, the
// stats view paired with each of them, and the current selection.
//
// Display order is insertion order. Names generated by NewROI use a counter
// that is never reused while the collection is non-empty; the counter and
// the color cursor start over when the collection becomes empty.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	arr    *ndarray.Array
	rois   []*ROI
	stats  map[uuid.UUID]*StatsView
	colors *ColorCursor
	nextID int

	selection []*ROI
	logger    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	hueStart, saturation, lightness float64
	logger                          *slog.Logger
}

// WithHueStart sets the hue of the first generated color.
func WithHueStart(h float64) ManagerOption {
	return func(o *managerOptions) { o.hueStart = h }
}

// WithColors sets all color cursor parameters.
func WithColors(hueStart, saturation, lightness float64) ManagerOption {
	return func(o *managerOptions) {
		o.hueStart, o.saturation, o.lightness = hueStart, saturation, lightness
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(o *managerOptions) { o.logger = l }
}

// NewManager creates an empty manager for ROIs over arr.
func NewManager(arr *ndarray.Array, opts ...ManagerOption) (*Manager, error) {
	o := managerOptions{
		hueStart:   DefaultHueStart,
		saturation: DefaultSaturation,
		lightness:  DefaultLightness,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	colors, err := NewColorCursor(o.hueStart, o.saturation, o.lightness)
	if err != nil {
		return nil, fmt.Errorf("invalid color settings: %w", err)
	}
	return &Manager{
		arr:    arr,
		stats:  make(map[uuid.UUID]*StatsView),
		colors: colors,
		logger: o.logger,
	}, nil
}

// Array returns the backing array.
func (m *Manager) Array() *ndarray.Array { return m.arr }

// ROIs returns the ROIs in display order.
func (m *Manager) ROIs() []*ROI { return append([]*ROI(nil), m.rois...) }

// Len returns the number of ROIs.
func (m *Manager) Len() int { return len(m.rois) }

// NewROI creates an empty ROI named roi_NN, appends it and makes it the sole
// selection.
func (m *Manager) NewROI() (*ROI, error) {
	r, err := New(fmt.Sprintf("roi_%02d", m.nextID), m.arr.Shape())
	if err != nil {
		return nil, err
	}
	r.Color = m.colors.Next()
	if err := m.append(r); err != nil {
		return nil, err
	}
	m.nextID++
	m.selection = []*ROI{r}
	return r, nil
}

// AddROIs appends imported ROIs, assigning each a fresh color. Names are
// kept as they are.
func (m *Manager) AddROIs(rois []*ROI) error {
	shape := m.arr.Shape()
	seen := make(map[uuid.UUID]struct{}, len(rois))
	for _, r := range rois {
		if !r.Shape().Equal(shape) {
			return ndarray.Validationf("roi %s has shape %v, array has %v", r.Name, r.Shape(), shape)
		}
		_, managed := m.stats[r.ID]
		_, dup := seen[r.ID]
		if managed || dup {
			return ndarray.Validationf("roi %s is already managed", r.Name)
		}
		seen[r.ID] = struct{}{}
	}
	for _, r := range rois {
		r.Color = m.colors.Next()
		if err := m.append(r); err != nil {
			return err
		}
		m.nextID++
	}
	return nil
}

func (m *Manager) append(r *ROI) error {
	view, err := NewStatsView(r, m.arr, WithStatsLogger(m.logger))
	if err != nil {
		return err
	}
	m.rois = append(m.rois, r)
	m.stats[r.ID] = view
	view.Index = len(m.rois)
	return nil
}

// UpdateMask writes a screen ordered patch into roi at the plane selected
// by state.
func (m *Manager) UpdateMask(r *ROI, patch *ndarray.Mask, state slicer.SliceState) error {
	return r.SetMask(patch, state)
}

// StatsFor returns the stats view paired with r.
func (m *Manager) StatsFor(r *ROI) (*StatsView, bool) {
	v, ok := m.stats[r.ID]
	return v, ok
}

// StatsViews returns the stats views in display order.
func (m *Manager) StatsViews() []*StatsView {
	views := make([]*StatsView, len(m.rois))
	for i, r := range m.rois {
		views[i] = m.stats[r.ID]
	}
	return views
}

// Selection returns the currently selected ROIs.
func (m *Manager) Selection() []*ROI { return append([]*ROI(nil), m.selection...) }

// SetSelection replaces the selection. ROIs not managed by m are ignored.
func (m *Manager) SetSelection(rois ...*ROI) {
	sel := make([]*ROI, 0, len(rois))
	for _, r := range rois {
		if _, ok := m.stats[r.ID]; ok {
			sel = append(sel, r)
		}
	}
	m.selection = sel
}

// SelectROIByIndex selects the ROI at 1-based display position i. Positions
// outside [1, Len()] are ignored.
func (m *Manager) SelectROIByIndex(i int) {
	if i < 1 || i > len(m.rois) {
		m.logger.Debug("index is invalid for current roi list", "index", i, "count", len(m.rois))
		return
	}
	m.selection = []*ROI{m.rois[i-1]}
}

// Delete removes every ROI in selection, closes their stats views and clears
// the selection.
func (m *Manager) Delete(selection []*ROI) {
	drop := make(map[uuid.UUID]struct{}, len(selection))
	for _, r := range selection {
		drop[r.ID] = struct{}{}
	}

	kept := m.rois[:0]
	for _, r := range m.rois {
		if _, ok := drop[r.ID]; ok {
			m.stats[r.ID].Close()
			delete(m.stats, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(m.rois); i++ {
		m.rois[i] = nil
	}
	m.rois = kept
	m.selection = nil

	for i, r := range m.rois {
		m.stats[r.ID].Index = i + 1
	}
	if len(m.rois) == 0 {
		m.nextID = 0
		m.colors.Reset()
	}
}

// DeleteSelected removes the currently selected ROIs.
func (m *Manager) DeleteSelected() {
	m.Delete(m.selection)
}

// ByName returns the ROIs called name, in display order.
func (m *Manager) ByName(name string) []*ROI {
	var out []*ROI
	for _, r := range m.rois {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

// Names returns the set of ROI names.
func (m *Manager) Names() map[string]struct{} {
	names := make(map[string]struct{}, len(m.rois))
	for _, r := range m.rois {
		names[r.Name] = struct{}{}
	}
	return names
}

// SetArray switches every stats view to a new backing array with the same
// shape.
func (m *Manager) SetArray(arr *ndarray.Array) error {
	if !arr.Shape().Equal(m.arr.Shape()) {
		return ndarray.Validationf("array shape %v does not match %v", arr.Shape(), m.arr.Shape())
	}
	m.arr = arr
	for _, r := range m.rois {
		if err := m.stats[r.ID].SetArray(arr); err != nil {
			return err
		}
	}
	return nil
}
