// Package curve provides monotonic remap curves with lookup-table evaluation.
//
// A curve is a piecewise-linear function through sorted control points. It
// is flat before the first key and after the last one. Weighted blends
// remap every contribution weight through a curve, so the hot path uses a
// precomputed LUT instead of searching the keys.
package curve

import (
	"errors"
	"math"
	"slices"
)

// lutSize is the number of samples in a LUT. Samples are interpolated
// linearly, so the error is only introduced around keys.
const lutSize = 1024

var (
	// ErrNoKeys is returned when a curve is built without control points.
	ErrNoKeys = errors.New("curve: no keys")

	// ErrNotMonotonic is returned when key values decrease.
	ErrNotMonotonic = errors.New("curve: keys are not monotonic")

	// ErrDuplicateKey is returned when two keys share an X.
	ErrDuplicateKey = errors.New("curve: duplicate key")
)

// Key is one control point.
type Key struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Curve is an immutable non-decreasing piecewise-linear function.
type Curve struct {
	keys []Key
}

// New builds a curve from keys in any order.
func New(keys ...Key) (*Curve, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	sorted := slices.Clone(keys)
	slices.SortFunc(sorted, func(a, b Key) int {
		switch {
		case a.X < b.X:
			return -1
		case a.X > b.X:
			return 1
		default:
			return 0
		}
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].X == sorted[i-1].X {
			return nil, ErrDuplicateKey
		}
		if sorted[i].Y < sorted[i-1].Y {
			return nil, ErrNotMonotonic
		}
	}
	return &Curve{keys: sorted}, nil
}

// Linear returns the identity curve through (0,0) and (1,1).
func Linear() *Curve {
	return &Curve{keys: []Key{{0, 0}, {1, 1}}}
}

// Keys returns a copy of the control points in X order.
func (c *Curve) Keys() []Key { return slices.Clone(c.keys) }

// Eval evaluates the curve by searching its keys.
//
// This is the reference implementation. Use a LUT on hot paths.
func (c *Curve) Eval(x float64) float64 {
	keys := c.keys
	if math.IsNaN(x) {
		return keys[0].Y
	}
	if x <= keys[0].X {
		return keys[0].Y
	}
	last := keys[len(keys)-1]
	if x >= last.X {
		return last.Y
	}
	i, _ := slices.BinarySearchFunc(keys, x, func(k Key, x float64) int {
		switch {
		case k.X < x:
			return -1
		case k.X > x:
			return 1
		default:
			return 0
		}
	})
	if keys[i].X == x {
		return keys[i].Y
	}
	a, b := keys[i-1], keys[i]
	t := (x - a.X) / (b.X - a.X)
	return a.Y + (b.Y-a.Y)*t
}

// LUT is a sampled curve. It is read-only after construction and safe for
// concurrent use.
type LUT struct {
	table  [lutSize]float64
	lo, hi float64
}

// Lookup samples the curve over the X range of its keys.
func (c *Curve) Lookup() *LUT {
	l := &LUT{lo: c.keys[0].X, hi: c.keys[len(c.keys)-1].X}
	span := l.hi - l.lo
	for i := range l.table {
		l.table[i] = c.Eval(l.lo + span*float64(i)/(lutSize-1))
	}
	return l
}

// Eval evaluates the sampled curve at x, clamping outside the key range.
func (l *LUT) Eval(x float64) float64 {
	if l.hi == l.lo || math.IsNaN(x) || x <= l.lo {
		return l.table[0]
	}
	if x >= l.hi {
		return l.table[lutSize-1]
	}
	pos := (x - l.lo) / (l.hi - l.lo) * (lutSize - 1)
	i := int(pos)
	if i >= lutSize-1 {
		return l.table[lutSize-1]
	}
	frac := pos - float64(i)
	return l.table[i] + (l.table[i+1]-l.table[i])*frac
}
