package roi

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"arrview/pkg/ndarray"
)

// StatsView holds the mean, population standard deviation and voxel count
// of the backing array inside one ROI. It is recomputed eagerly whenever the
// ROI mask or the backing array changes.
type StatsView struct {
	roi *ROI
	arr *ndarray.Array

	// Index is the 1-based display position assigned by a Manager
	Index int

	mean float64
	std  float64
	size int

	logger      *slog.Logger
	unsubscribe func()
}

// StatsOption configures a StatsView.
type StatsOption func(*StatsView)

// WithStatsLogger sets the logger that reports failed recomputations.
func WithStatsLogger(l *slog.Logger) StatsOption {
	return func(v *StatsView) { v.logger = l }
}

// NewStatsView computes the statistics of arr inside r and keeps them up to
// date until Close is called.
func NewStatsView(r *ROI, arr *ndarray.Array, opts ...StatsOption) (*StatsView, error) {
	v := &StatsView{roi: r, arr: arr}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	if err := v.Recompute(); err != nil {
		return nil, err
	}
	v.unsubscribe = r.Subscribe(func(*ROI) {
		// the previous statistics are kept when the update fails
		if err := v.Recompute(); err != nil {
			v.logger.Debug("stats not updated", "roi", r.Name, "error", err)
		}
	})
	return v, nil
}

// ROI returns the ROI the view is computed from.
func (v *StatsView) ROI() *ROI { return v.roi }

// Name returns the ROI name.
func (v *StatsView) Name() string { return v.roi.Name }

// Mean returns the mean inside the ROI, NaN when it is empty.
func (v *StatsView) Mean() float64 { return v.mean }

// Std returns the population standard deviation inside the ROI, NaN when
// it is empty.
func (v *StatsView) Std() float64 { return v.std }

// Size returns the number of elements inside the ROI.
func (v *StatsView) Size() int { return v.size }

// SetArray replaces the backing array and recomputes.
func (v *StatsView) SetArray(arr *ndarray.Array) error {
	old := v.arr
	v.arr = arr
	if err := v.Recompute(); err != nil {
		v.arr = old
		return err
	}
	return nil
}

// Recompute refreshes the statistics from the current mask and array.
func (v *StatsView) Recompute() error {
	values, err := v.arr.Select(v.roi.mask)
	if err != nil {
		return fmt.Errorf("stats for %s: %w", v.roi.Name, err)
	}
	v.size = len(values)
	if v.size == 0 {
		v.mean, v.std = math.NaN(), math.NaN()
		return nil
	}
	v.mean, v.std = stat.PopMeanStdDev(values, nil)
	return nil
}

// Close stops tracking ROI updates.
func (v *StatsView) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

func (v *StatsView) String() string {
	return fmt.Sprintf("StatsView(name=%q, size=%d, mean=%g, std=%g)", v.roi.Name, v.size, v.mean, v.std)
}
