package curve

import (
	"errors"
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		keys []Key
		want error
	}{
		{"empty", nil, ErrNoKeys},
		{"duplicate", []Key{{0, 0}, {0, 1}}, ErrDuplicateKey},
		{"decreasing", []Key{{0, 1}, {1, 0}}, ErrNotMonotonic},
		{"unsorted ok", []Key{{1, 1}, {0, 0}, {0.5, 0.2}}, nil},
		{"single", []Key{{0.3, 0.7}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.keys...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEval(t *testing.T) {
	c, err := New(Key{0, 0}, Key{0.5, 0.8}, Key{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		x, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.4},
		{0.5, 0.8},
		{0.75, 0.9},
		{1, 1},
		{3, 1},
	}
	for _, tt := range tests {
		if got := c.Eval(tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Eval(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

// TestLUTAccuracy checks that the sampled curve matches the reference.
func TestLUTAccuracy(t *testing.T) {
	c, err := New(Key{0, 0}, Key{0.25, 0.5}, Key{0.6, 0.6}, Key{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	lut := c.Lookup()
	maxError := 0.0
	for i := 0; i <= 1000; i++ {
		x := float64(i) / 1000
		diff := math.Abs(lut.Eval(x) - c.Eval(x))
		maxError = math.Max(maxError, diff)
	}
	t.Logf("Max LUT error: %g", maxError)
	if maxError > 1e-3 {
		t.Errorf("maximum error %g exceeds 1e-3", maxError)
	}
}

func TestLinearLUTIsIdentity(t *testing.T) {
	lut := Linear().Lookup()
	for _, x := range []float64{0, 0.1, 0.5, 0.999, 1} {
		if got := lut.Eval(x); math.Abs(got-x) > 1e-9 {
			t.Errorf("Eval(%v) = %v", x, got)
		}
	}
	if got := lut.Eval(math.NaN()); got != 0 {
		t.Errorf("Eval(NaN) = %v, want 0", got)
	}
}

func TestSingleKeyIsConstant(t *testing.T) {
	c, err := New(Key{0.3, 0.7})
	if err != nil {
		t.Fatal(err)
	}
	lut := c.Lookup()
	for _, x := range []float64{-5, 0.3, 8} {
		if got := lut.Eval(x); got != 0.7 {
			t.Errorf("Eval(%v) = %v, want 0.7", x, got)
		}
	}
}

func BenchmarkLUTEval(b *testing.B) {
	lut := Linear().Lookup()
	b.ReportAllocs()
	x := 0.0
	for b.Loop() {
		_ = lut.Eval(x)
		x += 0.001
		if x > 1 {
			x = 0
		}
	}
}

func BenchmarkCurveEval(b *testing.B) {
	c, _ := New(Key{0, 0}, Key{0.2, 0.1}, Key{0.4, 0.5}, Key{0.8, 0.6}, Key{1, 1})
	b.ReportAllocs()
	x := 0.0
	for b.Loop() {
		_ = c.Eval(x)
		x += 0.001
		if x > 1 {
			x = 0
		}
	}
}
