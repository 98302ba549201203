// Package codec converts between linear state indices and coordinate
// tuples using mixed-radix encoding.
//
// The first dimension is the least significant:
//
//	index = c[0] + d[0]*(c[1] + d[1]*(c[2] + ...))
//
// Problem definitions use it to lay structured states out over the
// contiguous index range a solver works on.
package codec

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyDims         = errors.New("codec: no dimensions given")
	ErrDimensionSize     = errors.New("codec: dimension size must be positive")
	ErrDimensionMismatch = errors.New("codec: coordinate count does not match dimension count")
	ErrCoordinateRange   = errors.New("codec: coordinate out of range")
	ErrIndexRange        = errors.New("codec: index out of range")
	ErrOverflow          = errors.New("codec: index space overflows int")
)

// Size returns the number of distinct indices for dims.
func Size(dims []int) (int, error) {
	if len(dims) == 0 {
		return 0, ErrEmptyDims
	}
	n := 1
	for i, d := range dims {
		if d <= 0 {
			return 0, fmt.Errorf("%w: dims[%d] = %d", ErrDimensionSize, i, d)
		}
		if n > math.MaxInt/d {
			return 0, ErrOverflow
		}
		n *= d
	}
	return n, nil
}

// Encode maps coords onto a linear index.
func Encode(coords, dims []int) (int, error) {
	if _, err := Size(dims); err != nil {
		return 0, err
	}
	if len(coords) != len(dims) {
		return 0, fmt.Errorf("%w: %d coordinates for %d dimensions", ErrDimensionMismatch, len(coords), len(dims))
	}
	index := 0
	for i := len(dims) - 1; i >= 0; i-- {
		if coords[i] < 0 || coords[i] >= dims[i] {
			return 0, fmt.Errorf("%w: coords[%d] = %d not in [0, %d)", ErrCoordinateRange, i, coords[i], dims[i])
		}
		index = coords[i] + dims[i]*index
	}
	return index, nil
}

// Decode maps a linear index back onto its coordinates.
func Decode(index int, dims []int) ([]int, error) {
	n, err := Size(dims)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= n {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexRange, index, n)
	}
	coords := make([]int, len(dims))
	for i, d := range dims {
		coords[i] = index % d
		index /= d
	}
	return coords, nil
}

// Codec binds a dimension vector for repeated conversions.
type Codec struct {
	dims []int
	size int
}

// New validates dims and returns a codec over them.
func New(dims ...int) (*Codec, error) {
	n, err := Size(dims)
	if err != nil {
		return nil, err
	}
	d := make([]int, len(dims))
	copy(d, dims)
	return &Codec{dims: d, size: n}, nil
}

func (c *Codec) Size() int { return c.size }

// Dims returns a copy of the dimension sizes.
func (c *Codec) Dims() []int {
	d := make([]int, len(c.dims))
	copy(d, c.dims)
	return d
}

func (c *Codec) Encode(coords ...int) (int, error) { return Encode(coords, c.dims) }

func (c *Codec) Decode(index int) ([]int, error) { return Decode(index, c.dims) }
