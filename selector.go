package attrblend

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SelectorTarget tells what a Selector points at.
type SelectorTarget uint8

const (
	// TargetAttribute selects a named attribute column.
	TargetAttribute SelectorTarget = iota
	// TargetProperty selects a fixed point property ("$Position").
	TargetProperty
	// TargetPrevious refers to the output of the preceding pipeline
	// operation ("#Previous").
	TargetPrevious
	// TargetOperation refers to the output of pipeline operation k ("#k").
	TargetOperation
	// TargetLast refers to the last attribute written on the output side
	// ("@Last").
	TargetLast
)

// Subfield narrows a composite value to one scalar component.
type Subfield uint8

const (
	SubfieldNone Subfield = iota
	SubfieldX
	SubfieldY
	SubfieldZ
	SubfieldW
	SubfieldLength
)

var subfieldNames = map[string]Subfield{
	"x": SubfieldX, "r": SubfieldX, "pitch": SubfieldX,
	"y": SubfieldY, "g": SubfieldY, "yaw": SubfieldY,
	"z": SubfieldZ, "b": SubfieldZ, "roll": SubfieldZ,
	"w": SubfieldW, "a": SubfieldW,
	"length": SubfieldLength, "len": SubfieldLength,
}

func (f Subfield) String() string {
	switch f {
	case SubfieldX:
		return "X"
	case SubfieldY:
		return "Y"
	case SubfieldZ:
		return "Z"
	case SubfieldW:
		return "W"
	case SubfieldLength:
		return "Length"
	default:
		return ""
	}
}

func parseSubfield(s string) (Subfield, bool) {
	f, ok := subfieldNames[strings.ToLower(s)]
	return f, ok
}

// Selector addresses a value source or destination on a dataset.
//
// The text form is one of:
//
//	Name         attribute
//	Name.X       attribute sub-field (X, Y, Z, W, Length; R, G, B, A aliases)
//	$Position.Z  point property, optionally with a sub-field
//	#Previous    output of the preceding pipeline operation
//	#3           output of pipeline operation 3
//	@Last        last attribute written on the output side
type Selector struct {
	Target    SelectorTarget
	Name      string
	Property  PointProperty
	Operation int
	Field     Subfield
}

// AttributeSelector selects a whole attribute.
func AttributeSelector(name string) Selector {
	return Selector{Target: TargetAttribute, Name: name}
}

// PropertySelector selects a whole point property.
func PropertySelector(p PointProperty) Selector {
	return Selector{Target: TargetProperty, Property: p}
}

// ParseSelector parses the text form of a selector.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selector{}, fmt.Errorf("attrblend: empty selector")
	}

	base, field := s, SubfieldNone
	if i := strings.LastIndexByte(s, '.'); i > 0 {
		if f, ok := parseSubfield(s[i+1:]); ok {
			base, field = s[:i], f
		}
	}

	sel := Selector{Field: field}
	switch {
	case strings.HasPrefix(base, "$"):
		p, err := ParsePointProperty(base[1:])
		if err != nil {
			return Selector{}, err
		}
		sel.Target, sel.Property = TargetProperty, p
	case strings.EqualFold(base, "#previous"):
		sel.Target = TargetPrevious
	case strings.HasPrefix(base, "#"):
		k, err := strconv.Atoi(base[1:])
		if err != nil || k < 0 {
			return Selector{}, fmt.Errorf("attrblend: bad operation reference %q", s)
		}
		sel.Target, sel.Operation = TargetOperation, k
	case strings.EqualFold(base, "@last"):
		sel.Target = TargetLast
	default:
		sel.Target, sel.Name = TargetAttribute, base
	}
	return sel, nil
}

// MustParseSelector is like ParseSelector but panics on error.
func MustParseSelector(s string) Selector {
	sel, err := ParseSelector(s)
	if err != nil {
		panic(err)
	}
	return sel
}

// String returns the text form.
func (s Selector) String() string {
	var base string
	switch s.Target {
	case TargetProperty:
		base = "$" + s.Property.String()
	case TargetPrevious:
		base = "#Previous"
	case TargetOperation:
		base = "#" + strconv.Itoa(s.Operation)
	case TargetLast:
		base = "@Last"
	default:
		base = s.Name
	}
	if s.Field != SubfieldNone {
		base += "." + s.Field.String()
	}
	return base
}

// MarshalText implements encoding.TextMarshaler.
func (s Selector) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Selector) UnmarshalText(text []byte) error {
	parsed, err := ParseSelector(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// IsReference reports whether the selector points at a sibling operation.
func (s Selector) IsReference() bool {
	return s.Target == TargetPrevious || s.Target == TargetOperation
}

// WithField returns a copy of s with the sub-field replaced.
func (s Selector) WithField(f Subfield) Selector {
	s.Field = f
	return s
}

// lanes returns how many components of v.v a kind uses for sub-field access.
func lanes(kind ValueKind) int {
	switch kind {
	case KindVector2:
		return 2
	case KindVector, KindRotator, KindTransform:
		return 3
	case KindVector4, KindQuat:
		return 4
	case KindBool, KindInt32, KindInt64, KindFloat, KindDouble:
		return 1
	default:
		return 0
	}
}

// validFor reports whether f can be extracted from values of kind.
func (f Subfield) validFor(kind ValueKind) bool {
	n := lanes(kind)
	switch f {
	case SubfieldNone:
		return true
	case SubfieldLength:
		return n >= 2 && kind != KindQuat && kind != KindRotator
	default:
		return int(f) <= n
	}
}

// sourceKind guesses the kind of a missing column from the sub-field used
// to address it.
func (f Subfield) sourceKind() ValueKind {
	switch f {
	case SubfieldNone:
		return KindUnknown
	case SubfieldW:
		return KindVector4
	default:
		return KindVector
	}
}

// lane returns the components addressed by sub-fields, aliasing v.
func (f Subfield) lane(v *Value) []float64 {
	if v.kind == KindTransform {
		return v.xf.Translation[:]
	}
	return v.v[:lanes(v.kind)]
}

// read extracts the component as a double.
func (f Subfield) read(v Value) float64 {
	if v.kind.IsScalar() {
		return v.scalar()
	}
	comps := f.lane(&v)
	if f == SubfieldLength {
		var sq float64
		for _, c := range comps {
			sq += c * c
		}
		return math.Sqrt(sq)
	}
	return comps[f-SubfieldX]
}

// write returns v with the component replaced by x. Writing Length rescales
// the vector; a zero vector stays zero.
func (f Subfield) write(v Value, x float64) Value {
	if v.kind.IsScalar() {
		return Convert(Double(x), v.kind)
	}
	comps := f.lane(&v)
	if f == SubfieldLength {
		if l := f.read(v); l != 0 {
			for i := range comps {
				comps[i] *= x / l
			}
		}
	} else {
		comps[f-SubfieldX] = x
	}
	return v
}
