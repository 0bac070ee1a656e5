package attrblend

import (
	"fmt"
	"strings"

	"github.com/gogpu/attrblend/internal/curve"
)

// CurveKey is one control point of a weight remap curve.
type CurveKey = curve.Key

// WeightInput selects where weights come from.
type WeightInput uint8

const (
	// WeightConstant uses one weight for every index.
	WeightConstant WeightInput = iota
	// WeightAttribute reads the weight from a scalar attribute or property.
	WeightAttribute
)

func (w WeightInput) String() string {
	if w == WeightAttribute {
		return "attribute"
	}
	return "constant"
}

// MarshalText implements encoding.TextMarshaler.
func (w WeightInput) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *WeightInput) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "constant", "":
		*w = WeightConstant
	case "attribute":
		*w = WeightAttribute
	default:
		return fmt.Errorf("attrblend: unknown weight input %q", text)
	}
	return nil
}

// WeightConfig describes the weight operand of weighted blend modes.
type WeightConfig struct {
	Input     WeightInput
	Constant  float64
	Attribute Selector
	// Curve remaps every weight. An empty curve leaves weights untouched.
	Curve []CurveKey
}

// ConstantWeightConfig returns a config yielding w everywhere.
func ConstantWeightConfig(w float64) WeightConfig {
	return WeightConfig{Input: WeightConstant, Constant: w}
}

// Build resolves the config against the dataset that provides attribute
// weights.
func (c WeightConfig) Build(ds *Dataset) (*WeightSource, error) {
	var lut *curve.LUT
	if len(c.Curve) > 0 {
		cv, err := curve.New(c.Curve...)
		if err != nil {
			return nil, err
		}
		lut = cv.Lookup()
	}

	if c.Input == WeightConstant {
		return &WeightSource{constant: c.Constant, lut: lut}, nil
	}

	d := NewProxyDescriptor(ds, RoleRead)
	if err := d.Capture(c.Attribute, SideIn); err != nil {
		return nil, err
	}
	if !d.WorkingKind.IsScalar() {
		return nil, d.fail(fmt.Errorf("%w: weight must be scalar, got %s", ErrUnsupportedKind, d.WorkingKind))
	}
	d.WorkingKind = KindDouble
	p, err := d.Resolve()
	if err != nil {
		return nil, err
	}
	return &WeightSource{proxy: p, lut: lut}, nil
}

// WeightSource yields per-index weights, remapped through an optional curve.
// It is read-only and safe for concurrent use.
type WeightSource struct {
	proxy    BufferProxy
	constant float64
	lut      *curve.LUT
}

// ConstantWeight returns a source yielding w at every index.
func ConstantWeight(w float64) *WeightSource {
	return &WeightSource{constant: w}
}

// NewWeightSource wraps a proxy. Values are read as doubles.
func NewWeightSource(p BufferProxy) *WeightSource {
	return &WeightSource{proxy: p}
}

// Read returns the remapped weight at index i.
func (w *WeightSource) Read(i int) float64 {
	x := w.constant
	if w.proxy != nil {
		x = w.proxy.Read(i).AsDouble()
	}
	return w.Remap(x)
}

// Remap passes an externally supplied weight through the curve.
func (w *WeightSource) Remap(x float64) float64 {
	if w == nil || w.lut == nil {
		return x
	}
	return w.lut.Eval(x)
}
