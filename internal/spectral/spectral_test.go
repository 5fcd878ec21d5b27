package spectral

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func sine(n int, sFreq, freq float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / sFreq)
	}
	return x
}

func TestFFT_Peak(t *testing.T) {
	ps := PowerSpectrum(sine(256, 256, 10))
	maxIdx := 0
	for i := range ps {
		if ps[i] > ps[maxIdx] {
			maxIdx = i
		}
	}
	if maxIdx != 10 {
		t.Errorf("peak at bin %d, want 10", maxIdx)
	}
}

func TestFFT_RoundTrip(t *testing.T) {
	for _, n := range []int{1, 8, 12, 64} {
		x := make([]complex128, n)
		for i := range x {
			x[i] = complex(float64(i%5)-2, float64(i%3))
		}
		back := IFFT(FFT(x))
		for i := range x {
			if cmplx.Abs(back[i]-x[i]) > 1e-9 {
				t.Fatalf("n=%d: sample %d = %v, want %v", n, i, back[i], x[i])
			}
		}
	}
}

func naiveDFT(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	for k := range out {
		for t := range x {
			out[k] += x[t] * cmplx.Exp(complex(0, -2*math.Pi*float64(k*t)/float64(n)))
		}
	}
	return out
}

func TestFFT_MatchesDFT(t *testing.T) {
	x := Real(sine(12, 12, 3), 12)
	a := FFT(x)
	b := naiveDFT(x)
	for i := range a {
		if cmplx.Abs(a[i]-b[i]) > 1e-9 {
			t.Fatalf("bin %d: fft %v dft %v", i, a[i], b[i])
		}
	}
}

func TestNextPow2(t *testing.T) {
	tests := []struct{ in, want int }{{0, 1}, {1, 1}, {2, 2}, {3, 4}, {256, 256}, {2560, 4096}}
	for _, tt := range tests {
		if got := NextPow2(tt.in); got != tt.want {
			t.Errorf("NextPow2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func rms(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return math.Sqrt(s / float64(len(x)))
}

func TestBandPass(t *testing.T) {
	low := sine(256, 256, 10)
	high := sine(256, 256, 40)
	mixed := make([]float64, 256)
	for i := range mixed {
		mixed[i] = low[i] + high[i]
	}

	out, err := BandPass(mixed, 256, 0, 20)
	if err != nil {
		t.Fatal(err)
	}
	diff := make([]float64, len(out))
	for i := range out {
		diff[i] = out[i] - low[i]
	}
	if rms(diff) > 1e-6 {
		t.Errorf("low-pass residual rms = %g", rms(diff))
	}

	out, err = BandPass(mixed, 256, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range out {
		diff[i] = out[i] - high[i]
	}
	if rms(diff) > 1e-6 {
		t.Errorf("high-pass residual rms = %g", rms(diff))
	}
}

func TestBandPass_Passthrough(t *testing.T) {
	x := []float64{1, 2, 3}
	out, err := BandPass(x, 100, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	out[0] = 99
	if x[0] != 1 {
		t.Error("passthrough must copy")
	}
}

func TestBandPass_Invalid(t *testing.T) {
	cases := [][3]float64{{0, 1, 2}, {100, -1, 0}, {100, 30, 20}, {100, 20, 20}}
	for _, c := range cases {
		if _, err := BandPass([]float64{1}, c[0], c[1], c[2]); !errors.Is(err, ErrInvalidCutoff) {
			t.Errorf("BandPass(%v) err = %v", c, err)
		}
	}
}

func TestColoredNoise(t *testing.T) {
	white := make([]float64, 300)
	for i := range white {
		white[i] = math.Sin(float64(i)*1.7) + math.Cos(float64(i*i)*0.3)
	}
	for _, exp := range []float64{0, 1, 2} {
		out := ColoredNoise(white, exp)
		if len(out) != len(white) {
			t.Fatalf("len = %d", len(out))
		}
		mean := 0.0
		for _, v := range out {
			mean += v
		}
		mean /= float64(len(out))
		if math.Abs(mean) > 1e-9 {
			t.Errorf("exp %v: mean = %g", exp, mean)
		}
		if math.Abs(rms(out)-1) > 1e-9 {
			t.Errorf("exp %v: std = %g", exp, rms(out))
		}
	}
}
