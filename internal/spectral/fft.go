package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT returns the discrete Fourier transform of x for any length.
func FFT(x []complex128) []complex128 {
	return fft.FFT(x)
}

// IFFT is the inverse of FFT, normalised by 1/n.
func IFFT(x []complex128) []complex128 {
	return fft.IFFT(x)
}

// Real lifts a real signal to complex, zero-padded to n samples.
func Real(data []float64, n int) []complex128 {
	out := make([]complex128, n)
	for i := 0; i < len(data) && i < n; i++ {
		out[i] = complex(data[i], 0)
	}
	return out
}

// NextPow2 returns the smallest power of two >= n.
func NextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// PowerSpectrum returns the magnitude of the first half of the spectrum.
func PowerSpectrum(data []float64) []float64 {
	spec := fft.FFTReal(data)
	ps := make([]float64, len(spec)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}
