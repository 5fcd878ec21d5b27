package simulate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/san-kum/phypno/internal/spectral"
	"gonum.org/v1/gonum/stat/distuv"
)

var ErrUnknownSignal = errors.New("simulate: unknown signal")

// Generator fills channel rows for one trial.
type Generator interface {
	// TimeSeries writes one channel sampled at times into out.
	TimeSeries(rng *rand.Rand, times, out []float64)
	// Spectrum writes one channel evaluated at freqs into out.
	Spectrum(rng *rand.Rand, freqs, out []float64)
}

type Registry struct {
	signals map[string]func(Options) Generator
}

func NewRegistry() *Registry {
	r := &Registry{signals: make(map[string]func(Options) Generator)}

	r.signals["random"] = func(o Options) Generator {
		return &randomSignal{amplitude: o.Amplitude, color: o.Color}
	}
	r.signals["sine"] = func(o Options) Generator {
		return &sineSignal{amplitude: o.Amplitude, freq: o.SineFreq}
	}

	return r
}

func (r *Registry) Get(name string, o Options) (Generator, error) {
	fn, ok := r.signals[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSignal, name)
	}
	return fn(o), nil
}

func (r *Registry) Register(name string, fn func(Options) Generator) {
	r.signals[name] = fn
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.signals))
	for name := range r.signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// randomSignal is Gaussian noise, optionally 1/f shaped.
type randomSignal struct {
	amplitude float64
	color     float64
}

func (s *randomSignal) TimeSeries(rng *rand.Rand, times, out []float64) {
	if s.color == 0 {
		n := distuv.Normal{Mu: 0, Sigma: s.amplitude, Src: rng}
		for i := range out {
			out[i] = n.Rand()
		}
		return
	}

	n := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	white := make([]float64, len(out))
	for i := range white {
		white[i] = n.Rand()
	}
	for i, v := range spectral.ColoredNoise(white, s.color) {
		out[i] = v * s.amplitude
	}
}

func (s *randomSignal) Spectrum(rng *rand.Rand, freqs, out []float64) {
	n := distuv.Normal{Mu: 0, Sigma: s.amplitude, Src: rng}
	for i, f := range freqs {
		v := math.Abs(n.Rand())
		if s.color > 0 && f > 0 {
			v /= math.Pow(f, s.color)
		}
		out[i] = v
	}
}

// sineSignal is a pure oscillation with a random phase per channel.
type sineSignal struct {
	amplitude float64
	freq      float64
}

func (s *sineSignal) TimeSeries(rng *rand.Rand, times, out []float64) {
	phase := rng.Float64() * 2 * math.Pi
	for i, t := range times {
		out[i] = s.amplitude * math.Sin(2*math.Pi*s.freq*t+phase)
	}
}

func (s *sineSignal) Spectrum(rng *rand.Rand, freqs, out []float64) {
	for i, f := range freqs {
		d := f - s.freq
		out[i] = s.amplitude * math.Exp(-d*d/2)
	}
}
