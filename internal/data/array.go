package data

import "fmt"

// Array is a dense row-major float64 array.
type Array struct {
	shape   []int
	strides []int
	values  []float64
}

// NewArray allocates a zero-filled array with the given shape.
func NewArray(shape ...int) Array {
	s := make([]int, len(shape))
	copy(s, shape)
	strides := make([]int, len(s))
	n := 1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] < 0 {
			panic(fmt.Sprintf("data: negative dimension %d", s[i]))
		}
		strides[i] = n
		n *= s[i]
	}
	return Array{shape: s, strides: strides, values: make([]float64, n)}
}

// FromValues wraps values in an array of the given shape.
func FromValues(values []float64, shape ...int) (Array, error) {
	a := NewArray(shape...)
	if len(values) != len(a.values) {
		return Array{}, fmt.Errorf("%w: %d values for shape %v", ErrDimensionMismatch, len(values), shape)
	}
	a.values = values
	return a, nil
}

// Shape returns a copy of the dimensions.
func (a Array) Shape() []int {
	s := make([]int, len(a.shape))
	copy(s, a.shape)
	return s
}

func (a Array) Dims() int { return len(a.shape) }
func (a Array) Len() int  { return len(a.values) }

// Values exposes the backing slice in row-major order.
func (a Array) Values() []float64 { return a.values }

func (a Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("data: %d indices for %d dimensions", len(idx), len(a.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			panic(fmt.Sprintf("data: index %d out of range [0, %d)", v, a.shape[i]))
		}
		off += v * a.strides[i]
	}
	return off
}

func (a Array) At(idx ...int) float64 { return a.values[a.offset(idx)] }

func (a Array) Set(v float64, idx ...int) { a.values[a.offset(idx)] = v }

// Row returns the i-th slice along the first dimension, sharing storage.
func (a Array) Row(i int) []float64 {
	if len(a.shape) == 0 || i < 0 || i >= a.shape[0] {
		panic(fmt.Sprintf("data: row %d out of range", i))
	}
	return a.values[i*a.strides[0] : (i+1)*a.strides[0]]
}

// Clone returns a deep copy.
func (a Array) Clone() Array {
	c := NewArray(a.shape...)
	copy(c.values, a.values)
	return c
}
