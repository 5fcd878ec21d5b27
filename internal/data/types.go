package data

import (
	"fmt"
	"math"
)

// Axis names.
const (
	AxisChan = "chan"
	AxisTime = "time"
	AxisFreq = "freq"
)

// DataType names one of the fixed axis templates.
type DataType string

const (
	ChanTime     DataType = "ChanTime"
	ChanFreq     DataType = "ChanFreq"
	ChanTimeFreq DataType = "ChanTimeFreq"
)

var templates = map[DataType][]string{
	ChanTime:     {AxisChan, AxisTime},
	ChanFreq:     {AxisChan, AxisFreq},
	ChanTimeFreq: {AxisChan, AxisTime, AxisFreq},
}

// DataTypes lists the supported types in a stable order.
func DataTypes() []DataType {
	return []DataType{ChanTime, ChanFreq, ChanTimeFreq}
}

// ParseDataType validates a data type name.
func ParseDataType(s string) (DataType, error) {
	dt := DataType(s)
	if _, ok := templates[dt]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDataType, s)
	}
	return dt, nil
}

// Axes returns the axis order of the type, channel first.
func (t DataType) Axes() []string {
	names := templates[t]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Has reports whether the type carries the named axis.
func (t DataType) Has(axis string) bool {
	for _, name := range templates[t] {
		if name == axis {
			return true
		}
	}
	return false
}

func (t DataType) String() string { return string(t) }

// Axis is a named, ordered sequence of values. Channel axes use Labels,
// numeric axes use Values.
type Axis struct {
	Name   string
	Values []float64
	Labels []string
}

// Len returns the number of points on the axis.
func (a Axis) Len() int {
	if a.Labels != nil {
		return len(a.Labels)
	}
	return len(a.Values)
}

// Clone returns a deep copy.
func (a Axis) Clone() Axis {
	c := Axis{Name: a.Name}
	if a.Values != nil {
		c.Values = make([]float64, len(a.Values))
		copy(c.Values, a.Values)
	}
	if a.Labels != nil {
		c.Labels = make([]string, len(a.Labels))
		copy(c.Labels, a.Labels)
	}
	return c
}

// Limits is a half-open interval [Start, End).
type Limits struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// MaxAxisLen is the largest number of points Arange will produce.
const MaxAxisLen = 1 << 24

// Arange returns start, start+step, ... for every value strictly below end.
func Arange(start, end, step float64) ([]float64, error) {
	if !(step > 0) || !(end > start) || math.IsInf(start, 0) || math.IsInf(end, 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: [%g, %g) step %g", ErrInvalidLimits, start, end, step)
	}
	fn := math.Ceil((end - start) / step)
	if fn > MaxAxisLen {
		return nil, fmt.Errorf("%w: [%g, %g) step %g exceeds %d points", ErrInvalidLimits, start, end, step, MaxAxisLen)
	}
	n := int(fn)
	for n > 0 && start+float64(n-1)*step >= end {
		n--
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return values, nil
}
