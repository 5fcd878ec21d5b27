package simulate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/san-kum/phypno/internal/data"
)

// MaxSamples bounds the total number of values in one generated dataset.
const MaxSamples = 1 << 27

var defaultRegistry = NewRegistry()

// CreateData generates a simulated dataset. See CreateDataContext.
func CreateData(opts Options) (*data.Data, error) {
	return CreateDataContext(context.Background(), opts)
}

// CreateDataContext generates opts.NTrial independent trials of the requested
// data type. Trials are generated concurrently; trial i draws from a source
// seeded with opts.Seed+i, so the output does not depend on scheduling.
func CreateDataContext(ctx context.Context, opts Options) (*data.Data, error) {
	return defaultRegistry.Create(ctx, opts)
}

// Create generates a dataset using the generators of r.
func (r *Registry) Create(ctx context.Context, opts Options) (*data.Data, error) {
	o, dt, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	gen, err := r.Get(o.Signal, o)
	if err != nil {
		return nil, err
	}
	axes, err := o.axes(dt)
	if err != nil {
		return nil, err
	}
	size := float64(o.NTrial)
	for _, ax := range axes {
		size *= float64(ax.Len())
	}
	if size > MaxSamples {
		return nil, fmt.Errorf("%w: %d trials of %d axes exceed %d samples", ErrInvalidArgument, o.NTrial, len(axes), MaxSamples)
	}

	trials := make([]data.Array, o.NTrial)
	errs := make([]error, o.NTrial)

	workers := runtime.GOMAXPROCS(0)
	if workers > o.NTrial {
		workers = o.NTrial
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i := 0; i < o.NTrial; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			seed := uint64(o.Seed + int64(idx))
			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			trials[idx] = fillTrial(gen, rng, dt, axes)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	d := data.New(dt, o.SFreq, o.StartTime)
	for _, trial := range trials {
		trialAxes := make([]data.Axis, len(axes))
		for i, ax := range axes {
			trialAxes[i] = ax.Clone()
		}
		if err := d.AddTrial(trial, trialAxes...); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func fillTrial(gen Generator, rng *rand.Rand, dt data.DataType, axes []data.Axis) data.Array {
	shape := make([]int, len(axes))
	for i, ax := range axes {
		shape[i] = ax.Len()
	}
	arr := data.NewArray(shape...)

	for c := 0; c < shape[0]; c++ {
		row := arr.Row(c)
		switch dt {
		case data.ChanTime:
			gen.TimeSeries(rng, axes[1].Values, row)
		case data.ChanFreq:
			gen.Spectrum(rng, axes[1].Values, row)
		case data.ChanTimeFreq:
			nf := shape[2]
			for t := 0; t < shape[1]; t++ {
				gen.Spectrum(rng, axes[2].Values, row[t*nf:(t+1)*nf])
			}
		}
	}
	return arr
}
