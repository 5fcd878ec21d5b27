package data

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in   string
		want DataType
		err  bool
	}{
		{"ChanTime", ChanTime, false},
		{"ChanFreq", ChanFreq, false},
		{"ChanTimeFreq", ChanTimeFreq, false},
		{"xxx", "", true},
		{"", "", true},
		{"chantime", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDataType(tt.in)
		if tt.err {
			if !errors.Is(err, ErrUnknownDataType) {
				t.Errorf("ParseDataType(%q) err = %v, want ErrUnknownDataType", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDataType(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestDataTypeAxes(t *testing.T) {
	for _, dt := range DataTypes() {
		axes := dt.Axes()
		if axes[0] != AxisChan {
			t.Errorf("%s: first axis %q, want chan", dt, axes[0])
		}
	}
	if got := ChanTimeFreq.Axes(); len(got) != 3 || got[1] != AxisTime || got[2] != AxisFreq {
		t.Errorf("ChanTimeFreq axes = %v", got)
	}
	if ChanFreq.Has(AxisTime) {
		t.Error("ChanFreq should not have a time axis")
	}
}

func TestArange(t *testing.T) {
	tests := []struct {
		name             string
		start, end, step float64
		n                int
	}{
		{"unit", 0, 10, 1, 10},
		{"fine", 0, 1, 1.0 / 256, 256},
		{"offset", 2, 3, 0.25, 4},
		{"inexact", 0, 1, 0.3, 4},
		{"ten seconds", 0, 10, 1.0 / 256, 2560},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Arange(tt.start, tt.end, tt.step)
			if err != nil {
				t.Fatalf("Arange: %v", err)
			}
			if len(v) != tt.n {
				t.Fatalf("len = %d, want %d", len(v), tt.n)
			}
			if v[0] != tt.start {
				t.Errorf("first = %v, want %v", v[0], tt.start)
			}
			if v[len(v)-1] >= tt.end {
				t.Errorf("last = %v, not below %v", v[len(v)-1], tt.end)
			}
			for i := 1; i < len(v); i++ {
				if v[i] <= v[i-1] {
					t.Fatalf("not strictly increasing at %d", i)
				}
			}
		})
	}
}

func TestArange_Invalid(t *testing.T) {
	cases := [][3]float64{{1, 1, 1}, {2, 1, 1}, {0, 1, 0}, {0, 1, -1}, {math.NaN(), 1, 1},
		{0, math.Inf(1), 1}, {math.Inf(-1), 0, 1}, {0, 1e20, 1.0 / 256}, {0, 1, math.NaN()}}
	for _, c := range cases {
		if _, err := Arange(c[0], c[1], c[2]); !errors.Is(err, ErrInvalidLimits) {
			t.Errorf("Arange(%v) err = %v, want ErrInvalidLimits", c, err)
		}
	}
}

func TestArray(t *testing.T) {
	a := NewArray(2, 3, 4)
	if a.Len() != 24 || a.Dims() != 3 {
		t.Fatalf("len %d dims %d", a.Len(), a.Dims())
	}
	a.Set(7, 1, 2, 3)
	if a.At(1, 2, 3) != 7 {
		t.Error("Set/At mismatch")
	}
	if a.Values()[23] != 7 {
		t.Error("row-major layout broken")
	}
	if len(a.Row(1)) != 12 || a.Row(1)[11] != 7 {
		t.Error("Row does not share storage")
	}

	c := a.Clone()
	c.Set(0, 1, 2, 3)
	if a.At(1, 2, 3) != 7 {
		t.Error("Clone shares storage")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on out-of-range index")
		}
	}()
	a.At(2, 0, 0)
}

func TestFromValues(t *testing.T) {
	if _, err := FromValues(make([]float64, 5), 2, 3); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
	a, err := FromValues([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if a.At(1, 0) != 4 {
		t.Errorf("At(1,0) = %v", a.At(1, 0))
	}
}

func makeChanTime(t *testing.T, nTrial int) *Data {
	t.Helper()
	d := New(ChanTime, 4, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	for i := 0; i < nTrial; i++ {
		arr, _ := FromValues([]float64{1, 2, 3, 4, 10, 10, 10, 10}, 2, 4)
		err := d.AddTrial(arr,
			Axis{Name: AxisChan, Labels: []string{"a", "b"}},
			Axis{Name: AxisTime, Values: []float64{0, 0.25, 0.5, 0.75}},
		)
		if err != nil {
			t.Fatalf("AddTrial: %v", err)
		}
	}
	return d
}

func TestDataAxes(t *testing.T) {
	d := makeChanTime(t, 3)
	if d.NumTrial() != 3 {
		t.Fatalf("NumTrial = %d", d.NumTrial())
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	names, err := d.ChanNames(2)
	if err != nil || len(names) != 2 {
		t.Fatalf("ChanNames = %v, %v", names, err)
	}
	if _, err := d.AxisValues(AxisFreq, 0); !errors.Is(err, ErrUnknownAxis) {
		t.Errorf("freq on ChanTime: err = %v", err)
	}
	if _, err := d.AxisValues(AxisTime, 3); !errors.Is(err, ErrTrialRange) {
		t.Errorf("trial 3: err = %v", err)
	}
}

func TestAddTrial_Mismatch(t *testing.T) {
	d := New(ChanTime, 4, time.Time{})
	arr := NewArray(2, 3)
	err := d.AddTrial(arr,
		Axis{Name: AxisChan, Labels: []string{"a", "b"}},
		Axis{Name: AxisTime, Values: []float64{0, 1}},
	)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}

	err = d.AddTrial(arr,
		Axis{Name: AxisTime, Values: []float64{0, 1, 2}},
		Axis{Name: AxisChan, Labels: []string{"a", "b"}},
	)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("swapped axes: err = %v, want ErrDimensionMismatch", err)
	}
}

func TestSummary(t *testing.T) {
	d := makeChanTime(t, 1)
	s, err := d.Summary(0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s[0].Chan != "a" || math.Abs(s[0].Mean-2.5) > 1e-12 {
		t.Errorf("chan a = %+v", s[0])
	}
	if s[1].Std != 0 {
		t.Errorf("chan b std = %v, want 0", s[1].Std)
	}
	if _, err := d.Summary(1); !errors.Is(err, ErrTrialRange) {
		t.Errorf("err = %v", err)
	}
}
