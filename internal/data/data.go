package data

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

// Data is a collection of trials sharing a data type.
type Data struct {
	Type      DataType
	SFreq     float64
	StartTime time.Time
	Trials    []Array
	// Axis maps an axis name to one Axis per trial.
	Axis map[string][]Axis
}

// New returns an empty Data of the given type.
func New(t DataType, sFreq float64, start time.Time) *Data {
	return &Data{
		Type:      t,
		SFreq:     sFreq,
		StartTime: start,
		Axis:      make(map[string][]Axis),
	}
}

// AddTrial appends a trial with its axes, given in the type's axis order.
func (d *Data) AddTrial(values Array, axes ...Axis) error {
	names := d.Type.Axes()
	if len(axes) != len(names) {
		return fmt.Errorf("%w: %d axes for %s", ErrDimensionMismatch, len(axes), d.Type)
	}
	for i, ax := range axes {
		if ax.Name != names[i] {
			return fmt.Errorf("%w: axis %d is %q, want %q", ErrDimensionMismatch, i, ax.Name, names[i])
		}
	}
	if err := checkShape(values, axes); err != nil {
		return err
	}
	d.Trials = append(d.Trials, values)
	for _, ax := range axes {
		d.Axis[ax.Name] = append(d.Axis[ax.Name], ax)
	}
	return nil
}

func (d *Data) NumTrial() int { return len(d.Trials) }

// AxisOf returns the named axis of one trial.
func (d *Data) AxisOf(name string, trial int) (Axis, error) {
	if !d.Type.Has(name) {
		return Axis{}, fmt.Errorf("%w: %q in %s", ErrUnknownAxis, name, d.Type)
	}
	axes := d.Axis[name]
	if trial < 0 || trial >= len(axes) {
		return Axis{}, fmt.Errorf("%w: %d of %d", ErrTrialRange, trial, len(axes))
	}
	return axes[trial], nil
}

// AxisValues returns the numeric values of a time or freq axis.
func (d *Data) AxisValues(name string, trial int) ([]float64, error) {
	ax, err := d.AxisOf(name, trial)
	if err != nil {
		return nil, err
	}
	return ax.Values, nil
}

// ChanNames returns the channel labels of one trial.
func (d *Data) ChanNames(trial int) ([]string, error) {
	ax, err := d.AxisOf(AxisChan, trial)
	if err != nil {
		return nil, err
	}
	return ax.Labels, nil
}

// Validate checks every trial against its axes.
func (d *Data) Validate() error {
	if _, ok := templates[d.Type]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDataType, d.Type)
	}
	var shape []int
	for i, trial := range d.Trials {
		axes := make([]Axis, 0, len(d.Type.Axes()))
		for _, name := range d.Type.Axes() {
			ax, err := d.AxisOf(name, i)
			if err != nil {
				return err
			}
			axes = append(axes, ax)
		}
		if err := checkShape(trial, axes); err != nil {
			return fmt.Errorf("trial %d: %w", i, err)
		}
		if shape == nil {
			shape = trial.Shape()
		} else if !sameShape(shape, trial.Shape()) {
			return fmt.Errorf("trial %d: %w: shape %v, want %v", i, ErrDimensionMismatch, trial.Shape(), shape)
		}
	}
	return nil
}

// ChanStats summarises one channel of a trial.
type ChanStats struct {
	Chan string  `json:"chan"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Summary returns mean and standard deviation per channel of a trial.
func (d *Data) Summary(trial int) ([]ChanStats, error) {
	if trial < 0 || trial >= d.NumTrial() {
		return nil, fmt.Errorf("%w: %d of %d", ErrTrialRange, trial, d.NumTrial())
	}
	names, err := d.ChanNames(trial)
	if err != nil {
		return nil, err
	}
	arr := d.Trials[trial]
	out := make([]ChanStats, len(names))
	for i, name := range names {
		row := arr.Row(i)
		mean, err := stats.Mean(row)
		if err != nil {
			return nil, fmt.Errorf("chan %s: %w", name, err)
		}
		std, err := stats.StandardDeviation(row)
		if err != nil {
			return nil, fmt.Errorf("chan %s: %w", name, err)
		}
		out[i] = ChanStats{Chan: name, Mean: mean, Std: std}
	}
	return out, nil
}

func checkShape(values Array, axes []Axis) error {
	shape := values.Shape()
	if len(shape) != len(axes) {
		return fmt.Errorf("%w: %d dims for %d axes", ErrDimensionMismatch, len(shape), len(axes))
	}
	for i, ax := range axes {
		if shape[i] != ax.Len() {
			return fmt.Errorf("%w: dim %d (%s) is %d, axis has %d", ErrDimensionMismatch, i, ax.Name, shape[i], ax.Len())
		}
	}
	return nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
