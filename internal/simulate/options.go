package simulate

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/phypno/internal/data"
)

const (
	DefaultDataType  = data.ChanTime
	DefaultNTrial    = 1
	DefaultNChan     = 8
	DefaultSFreq     = 256.0
	DefaultFreqStep  = 1.0
	DefaultSignal    = "random"
	DefaultAmplitude = 1.0
	DefaultSineFreq  = 10.0
)

// DefaultStartTime is the recording start used when none is given, so that
// repeated runs produce identical datasets.
var DefaultStartTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

var ErrInvalidArgument = errors.New("simulate: invalid argument")

// Options controls CreateData. Zero values select the defaults.
type Options struct {
	DataType  string       `json:"datatype" yaml:"datatype"`
	NTrial    int          `json:"n_trial" yaml:"n_trial"`
	Time      *data.Limits `json:"time,omitempty" yaml:"time,omitempty"`
	Freq      *data.Limits `json:"freq,omitempty" yaml:"freq,omitempty"`
	Chan      []string     `json:"chan,omitempty" yaml:"chan,omitempty"`
	NChan     int          `json:"n_chan,omitempty" yaml:"n_chan,omitempty"`
	SFreq     float64      `json:"s_freq,omitempty" yaml:"s_freq,omitempty"`
	FreqStep  float64      `json:"freq_step,omitempty" yaml:"freq_step,omitempty"`
	Signal    string       `json:"signal,omitempty" yaml:"signal,omitempty"`
	Amplitude float64      `json:"amplitude,omitempty" yaml:"amplitude,omitempty"`
	SineFreq  float64      `json:"sine_freq,omitempty" yaml:"sine_freq,omitempty"`
	Color     float64      `json:"color,omitempty" yaml:"color,omitempty"`
	Seed      int64        `json:"seed,omitempty" yaml:"seed,omitempty"`
	StartTime time.Time    `json:"start_time,omitempty" yaml:"start_time,omitempty"`
}

// withDefaults fills zero fields and validates the rest.
func (o Options) withDefaults() (Options, data.DataType, error) {
	if o.DataType == "" {
		o.DataType = string(DefaultDataType)
	}
	dt, err := data.ParseDataType(o.DataType)
	if err != nil {
		return o, "", err
	}

	if o.NTrial < 0 {
		return o, "", fmt.Errorf("%w: n_trial must be >= 0, got %d", ErrInvalidArgument, o.NTrial)
	}
	if o.NTrial == 0 {
		o.NTrial = DefaultNTrial
	}
	if o.SFreq < 0 || o.FreqStep < 0 || o.Amplitude < 0 || o.Color < 0 {
		return o, "", fmt.Errorf("%w: negative s_freq, freq_step, amplitude or color", ErrInvalidArgument)
	}
	if o.SFreq == 0 {
		o.SFreq = DefaultSFreq
	}
	if o.FreqStep == 0 {
		o.FreqStep = DefaultFreqStep
	}
	if o.Amplitude == 0 {
		o.Amplitude = DefaultAmplitude
	}
	if o.SineFreq == 0 {
		o.SineFreq = DefaultSineFreq
	}
	if o.Signal == "" {
		o.Signal = DefaultSignal
	}
	if o.StartTime.IsZero() {
		o.StartTime = DefaultStartTime
	}

	if o.Chan == nil {
		n := o.NChan
		if n == 0 {
			n = DefaultNChan
		}
		if n < 0 {
			return o, "", fmt.Errorf("%w: n_chan must be > 0, got %d", ErrInvalidArgument, n)
		}
		o.Chan = ChanNames(n)
	} else {
		if len(o.Chan) == 0 {
			return o, "", fmt.Errorf("%w: empty channel list", ErrInvalidArgument)
		}
		seen := make(map[string]bool, len(o.Chan))
		for _, c := range o.Chan {
			if seen[c] {
				return o, "", fmt.Errorf("%w: duplicate channel %q", ErrInvalidArgument, c)
			}
			seen[c] = true
		}
	}
	o.NChan = len(o.Chan)

	return o, dt, nil
}

// ChanNames returns chan00, chan01, ... for n channels.
func ChanNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("chan%02d", i)
	}
	return names
}

// axes builds the axis values for one trial, in the type's order.
func (o Options) axes(dt data.DataType) ([]data.Axis, error) {
	out := make([]data.Axis, 0, 3)
	for _, name := range dt.Axes() {
		switch name {
		case data.AxisChan:
			labels := make([]string, len(o.Chan))
			copy(labels, o.Chan)
			out = append(out, data.Axis{Name: name, Labels: labels})
		case data.AxisTime:
			lim := data.Limits{Start: 0, End: 1}
			if o.Time != nil {
				lim = *o.Time
			}
			v, err := data.Arange(lim.Start, lim.End, 1/o.SFreq)
			if err != nil {
				return nil, fmt.Errorf("time: %w", err)
			}
			out = append(out, data.Axis{Name: name, Values: v})
		case data.AxisFreq:
			lim := data.Limits{Start: 0, End: o.SFreq / 2}
			if o.Freq != nil {
				lim = *o.Freq
			}
			v, err := data.Arange(lim.Start, lim.End, o.FreqStep)
			if err != nil {
				return nil, fmt.Errorf("freq: %w", err)
			}
			out = append(out, data.Axis{Name: name, Values: v})
		}
	}
	return out, nil
}
