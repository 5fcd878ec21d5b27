package spectral

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

var ErrInvalidCutoff = errors.New("spectral: invalid filter cutoff")

// binFreq is the absolute frequency of bin k in an n-point spectrum.
func binFreq(k, n int, sFreq float64) float64 {
	if k > n/2 {
		k = n - k
	}
	return float64(k) * sFreq / float64(n)
}

// BandPass zeroes every spectral bin below hp or above lp. A zero cutoff
// disables that side of the filter.
func BandPass(signal []float64, sFreq, hp, lp float64) ([]float64, error) {
	if sFreq <= 0 || hp < 0 || lp < 0 || (lp > 0 && hp >= lp) {
		return nil, fmt.Errorf("%w: hp=%g lp=%g s_freq=%g", ErrInvalidCutoff, hp, lp, sFreq)
	}
	out := make([]float64, len(signal))
	if hp == 0 && lp == 0 || len(signal) == 0 {
		copy(out, signal)
		return out, nil
	}

	n := NextPow2(len(signal))
	spec := FFT(Real(signal, n))
	for k := range spec {
		f := binFreq(k, n, sFreq)
		if (hp > 0 && f < hp) || (lp > 0 && f > lp) {
			spec[k] = 0
		}
	}
	back := IFFT(spec)
	for i := range out {
		out[i] = real(back[i])
	}
	return out, nil
}

// ColoredNoise shapes white noise by 1/f^(exponent/2) in amplitude, i.e.
// 1/f^exponent in power, and rescales the result to zero mean and unit
// standard deviation.
func ColoredNoise(white []float64, exponent float64) []float64 {
	out := make([]float64, len(white))
	if len(white) == 0 {
		return out
	}
	if exponent == 0 {
		copy(out, white)
		return standardize(out)
	}

	n := NextPow2(len(white))
	spec := FFT(Real(white, n))
	spec[0] = 0
	for k := 1; k < n; k++ {
		f := float64(k)
		if k > n/2 {
			f = float64(n - k)
		}
		spec[k] *= complex(1/math.Pow(f, exponent/2), 0)
	}
	back := IFFT(spec)
	for i := range out {
		out[i] = real(back[i])
	}
	return standardize(out)
}

func standardize(x []float64) []float64 {
	mean, _ := stats.Mean(x)
	std, _ := stats.StandardDeviationPopulation(x)
	for i := range x {
		x[i] -= mean
		if std > 0 {
			x[i] /= std
		}
	}
	return x
}
