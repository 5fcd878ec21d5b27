// Package batch runs scripted sequences of dataset generations.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/montanaflynn/stats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/phypno/internal/config"
	"github.com/san-kum/phypno/internal/data"
	"github.com/san-kum/phypno/internal/simulate"
	"github.com/san-kum/phypno/internal/storage"
)

var (
	ErrUnknownPreset = errors.New("batch: unknown preset")
	ErrUnknownParam  = errors.New("batch: unknown sweep parameter")
	ErrInvalidSweep  = errors.New("batch: invalid sweep")
)

// Scenario defines a scripted generation sequence.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one generation. Fields left empty fall back to the preset, then
// to the generator defaults.
type Step struct {
	Preset   string       `yaml:"preset"`
	DataType string       `yaml:"datatype"`
	NTrial   int          `yaml:"n_trial"`
	Time     *data.Limits `yaml:"time"`
	Freq     *data.Limits `yaml:"freq"`
	Chan     []string     `yaml:"chan"`
	NChan    int          `yaml:"n_chan"`
	SFreq    float64      `yaml:"s_freq"`
	Signal   string       `yaml:"signal"`
	Color    float64      `yaml:"color"`
	Seed     int64        `yaml:"seed"`
	SaveAs   string       `yaml:"save_as"`
}

// Options merges the step over its preset.
func (s Step) Options() (simulate.Options, error) {
	var o simulate.Options
	if s.Preset != "" {
		p := config.GetPreset(s.Preset)
		if p == nil {
			return o, fmt.Errorf("%w: %s", ErrUnknownPreset, s.Preset)
		}
		o = *p
	}
	if s.DataType != "" {
		o.DataType = s.DataType
	}
	if s.NTrial != 0 {
		o.NTrial = s.NTrial
	}
	if s.Time != nil {
		o.Time = s.Time
	}
	if s.Freq != nil {
		o.Freq = s.Freq
	}
	if s.Chan != nil {
		o.Chan = s.Chan
	}
	if s.NChan != 0 {
		o.NChan = s.NChan
	}
	if s.SFreq != 0 {
		o.SFreq = s.SFreq
	}
	if s.Signal != "" {
		o.Signal = s.Signal
	}
	if s.Color != 0 {
		o.Color = s.Color
	}
	if s.Seed != 0 {
		o.Seed = s.Seed
	}
	return o, nil
}

func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(raw, &scenario); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &scenario, nil
}

type StepResult struct {
	Step int
	Data *data.Data
	// ID is set when the step was saved.
	ID string
}

type Runner struct {
	Registry *simulate.Registry
	Store    *storage.Store
	Logger   *log.Logger
}

// RunScenario runs every step with the default generators. A nil store
// disables saving.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store) ([]StepResult, error) {
	r := &Runner{Registry: simulate.NewRegistry(), Store: store}
	return r.Run(ctx, scenario)
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard)
	}
	return r.Logger
}

// Run stops at the first failing step or when ctx is done, returning the
// steps completed so far.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	logger := r.logger()
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		logger.Info("running step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "preset", step.Preset)

		opts, err := step.Options()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		d, err := r.Registry.Create(ctx, opts)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		res := StepResult{Step: i + 1, Data: d}
		if step.SaveAs != "" && r.Store != nil {
			id, err := r.Store.Save(d, step.SaveAs, storage.WithOptions(opts))
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			res.ID = id
			logger.Info("saved dataset", "id", id)
		}
		results = append(results, res)
	}
	return results, nil
}

// Sweep generates one dataset per value of a generator parameter.
type Sweep struct {
	Base     simulate.Options
	Param    string
	Min      float64
	Max      float64
	NumSteps int
}

// SweepResult summarises the first trial of one sweep value.
type SweepResult struct {
	Value float64
	Mean  float64
	Std   float64
}

func setParam(o *simulate.Options, name string, v float64) error {
	switch name {
	case "color":
		o.Color = v
	case "amplitude":
		o.Amplitude = v
	case "sine_freq":
		o.SineFreq = v
	case "s_freq":
		o.SFreq = v
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}

func (r *Runner) RunSweep(ctx context.Context, sw *Sweep) ([]SweepResult, error) {
	if sw.NumSteps < 1 || sw.Max < sw.Min {
		return nil, fmt.Errorf("%w: %d steps over [%g, %g]", ErrInvalidSweep, sw.NumSteps, sw.Min, sw.Max)
	}
	logger := r.logger()

	step := 0.0
	if sw.NumSteps > 1 {
		step = (sw.Max - sw.Min) / float64(sw.NumSteps-1)
	}
	results := make([]SweepResult, 0, sw.NumSteps)
	for i := 0; i < sw.NumSteps; i++ {
		val := sw.Min + float64(i)*step
		opts := sw.Base
		opts.NTrial = 1
		if err := setParam(&opts, sw.Param, val); err != nil {
			return nil, err
		}
		d, err := r.Registry.Create(ctx, opts)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sw.Param, val, err)
		}
		all := d.Trials[0].Values()
		mean, err := stats.Mean(all)
		if err != nil {
			return results, err
		}
		std, err := stats.StandardDeviation(all)
		if err != nil {
			return results, err
		}
		results = append(results, SweepResult{Value: val, Mean: mean, Std: std})
		logger.Debug("sweep", "param", sw.Param, "value", val, "step", i+1, "of", sw.NumSteps)
	}
	return results, nil
}
