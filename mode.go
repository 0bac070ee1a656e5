package attrblend

import (
	"fmt"
	"strings"
)

// BlendMode selects how operands are combined.
type BlendMode uint8

const (
	// ModeNone keeps operand A. During multi-source accumulation the last
	// contribution wins.
	ModeNone BlendMode = iota
	// ModeCopy takes operand B. During multi-source accumulation the last
	// contribution wins.
	ModeCopy
	// ModeSum computes A + B.
	ModeSum
	// ModeSubtract computes A - B.
	ModeSubtract
	// ModeAverage computes (A + B) / 2, or the weighted mean of all
	// contributions.
	ModeAverage
	// ModeMin takes the per-component minimum.
	ModeMin
	// ModeMax takes the per-component maximum.
	ModeMax
	// ModeWeight computes A*w + B*(1-w), or the weighted mean of all
	// contributions.
	ModeWeight
	// ModeWeightedAdd computes B + A*w.
	ModeWeightedAdd
	// ModeWeightedSubtract computes B - A*w.
	ModeWeightedSubtract
	// ModeLerp is ModeWeight with w clamped to [0, 1].
	ModeLerp

	modeCount
)

var modeNames = [modeCount]string{
	ModeNone:             "none",
	ModeCopy:             "copy",
	ModeSum:              "sum",
	ModeSubtract:         "subtract",
	ModeAverage:          "average",
	ModeMin:              "min",
	ModeMax:              "max",
	ModeWeight:           "weight",
	ModeWeightedAdd:      "weightedadd",
	ModeWeightedSubtract: "weightedsubtract",
	ModeLerp:             "lerp",
}

// Modes returns every blend mode in declaration order.
func Modes() []BlendMode {
	modes := make([]BlendMode, 0, modeCount)
	for m := range modeCount {
		modes = append(modes, m)
	}
	return modes
}

// String returns the lower-case mode name.
func (m BlendMode) String() string {
	if m >= modeCount {
		return fmt.Sprintf("BlendMode(%d)", uint8(m))
	}
	return modeNames[m]
}

// ParseBlendMode parses a mode name. Matching ignores case, dashes and
// underscores, so "weighted_add" and "WeightedAdd" both parse.
func ParseBlendMode(s string) (BlendMode, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	for m := range modeCount {
		if modeNames[m] == key {
			return m, nil
		}
	}
	return ModeNone, fmt.Errorf("attrblend: unknown blend mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BlendMode) UnmarshalText(text []byte) error {
	parsed, err := ParseBlendMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Valid reports whether m is a declared mode.
func (m BlendMode) Valid() bool { return m < modeCount }

// RequiresWeight reports whether the mode reads a weight operand.
func (m BlendMode) RequiresWeight() bool {
	switch m {
	case ModeLerp, ModeWeight, ModeWeightedAdd, ModeWeightedSubtract:
		return true
	default:
		return false
	}
}

// SupportsKind reports whether the mode is defined for values of kind k.
// Text kinds only support None, Copy, Min and Max.
func (m BlendMode) SupportsKind(k ValueKind) bool {
	if !k.Valid() || !m.Valid() {
		return false
	}
	if !k.IsText() {
		return true
	}
	switch m {
	case ModeNone, ModeCopy, ModeMin, ModeMax:
		return true
	default:
		return false
	}
}

// accumulatesInTracker reports whether multi-source blending sums
// contributions in the tracker and writes once at the end.
func (m BlendMode) accumulatesInTracker() bool {
	switch m {
	case ModeAverage, ModeWeight, ModeLerp:
		return true
	default:
		return false
	}
}

// apply computes the two-operand result of the mode.
func (m BlendMode) apply(ops kindOps, a, b Value, w float64) Value {
	switch m {
	case ModeCopy:
		return b
	case ModeSum:
		return ops.add(a, b)
	case ModeSubtract:
		return ops.sub(a, b)
	case ModeAverage:
		return ops.scale(ops.add(a, b), 0.5)
	case ModeMin:
		return ops.min(a, b)
	case ModeMax:
		return ops.max(a, b)
	case ModeWeight:
		return ops.lerp(b, a, w)
	case ModeLerp:
		return ops.lerp(b, a, clamp01(w))
	case ModeWeightedAdd:
		return ops.add(b, ops.scale(a, w))
	case ModeWeightedSubtract:
		return ops.sub(b, ops.scale(a, w))
	default:
		return a
	}
}

// neutral returns the value written into the destination before
// multi-source accumulation. ok is false when the destination must be left
// untouched.
func (m BlendMode) neutral(ops kindOps) (v Value, ok bool) {
	switch m {
	case ModeMin:
		return ops.highest(), true
	case ModeMax:
		return ops.lowest(), true
	case ModeNone, ModeCopy:
		return Value{}, false
	default:
		return ops.additive(), true
	}
}

func clamp01(w float64) float64 {
	return max(0, min(1, w))
}
