package attrblend

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/math/f64"
)

// Value is a type-erased attribute value of one ValueKind.
//
// The zero Value has KindUnknown. Values are small, comparable structs and
// are passed by value everywhere; no kind holds references into storage.
type Value struct {
	kind ValueKind
	i    int64     // bool (0/1), int32, int64
	v    f64.Vec4  // float, double (v[0]), vectors, quat (x,y,z,w), rotator (pitch,yaw,roll)
	xf   Transform // transform only
	s    string    // text kinds
}

// Bool returns a KindBool value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

// Int32 returns a KindInt32 value.
func Int32(i int32) Value {
	return Value{kind: KindInt32, i: int64(i)}
}

// Int64 returns a KindInt64 value.
func Int64(i int64) Value {
	return Value{kind: KindInt64, i: i}
}

// Float returns a KindFloat value.
func Float(f float32) Value {
	return Value{kind: KindFloat, v: f64.Vec4{float64(f)}}
}

// Double returns a KindDouble value.
func Double(f float64) Value {
	return Value{kind: KindDouble, v: f64.Vec4{f}}
}

// Vector2 returns a KindVector2 value.
func Vector2(v f64.Vec2) Value {
	return Value{kind: KindVector2, v: f64.Vec4{v[0], v[1]}}
}

// Vector returns a KindVector value.
func Vector(v f64.Vec3) Value {
	return Value{kind: KindVector, v: f64.Vec4{v[0], v[1], v[2]}}
}

// Vector4 returns a KindVector4 value.
func Vector4(v f64.Vec4) Value {
	return Value{kind: KindVector4, v: v}
}

// QuatValue returns a KindQuat value.
func QuatValue(q Quat) Value {
	return Value{kind: KindQuat, v: f64.Vec4{q.X, q.Y, q.Z, q.W}}
}

// RotatorValue returns a KindRotator value.
func RotatorValue(r Rotator) Value {
	return Value{kind: KindRotator, v: f64.Vec4{r.Pitch, r.Yaw, r.Roll}}
}

// TransformValue returns a KindTransform value.
func TransformValue(t Transform) Value {
	return Value{kind: KindTransform, xf: t}
}

// StringValue returns a KindString value.
func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

// NameValue returns a KindName value.
func NameValue(s string) Value {
	return Value{kind: KindName, s: s}
}

// ObjectPathValue returns a KindSoftObjectPath value.
func ObjectPathValue(s string) Value {
	return Value{kind: KindSoftObjectPath, s: s}
}

// ClassPathValue returns a KindSoftClassPath value.
func ClassPathValue(s string) Value {
	return Value{kind: KindSoftClassPath, s: s}
}

// Zero returns the default value of a kind: numeric zero, identity rotation
// and transform, empty text.
func Zero(kind ValueKind) Value {
	switch kind {
	case KindQuat:
		return QuatValue(IdentityQuat())
	case KindTransform:
		return TransformValue(IdentityTransform())
	default:
		return Value{kind: kind}
	}
}

// Kind returns the kind of the value.
func (v Value) Kind() ValueKind { return v.kind }

// IsValid reports whether the value has a concrete kind.
func (v Value) IsValid() bool { return v.kind.Valid() }

// AsBool converts the value to a bool.
func (v Value) AsBool() bool { return Convert(v, KindBool).i != 0 }

// AsInt64 converts the value to an int64.
func (v Value) AsInt64() int64 { return Convert(v, KindInt64).i }

// AsInt32 converts the value to an int32.
func (v Value) AsInt32() int32 { return int32(Convert(v, KindInt32).i) } //nolint:gosec // G115: converted value is already wrapped to int32

// AsFloat converts the value to a float32.
func (v Value) AsFloat() float32 { return float32(Convert(v, KindFloat).v[0]) }

// AsDouble converts the value to a float64.
func (v Value) AsDouble() float64 { return Convert(v, KindDouble).v[0] }

// AsVector2 converts the value to a 2-component vector.
func (v Value) AsVector2() f64.Vec2 {
	c := Convert(v, KindVector2)
	return f64.Vec2{c.v[0], c.v[1]}
}

// AsVector converts the value to a 3-component vector.
func (v Value) AsVector() f64.Vec3 {
	c := Convert(v, KindVector)
	return f64.Vec3{c.v[0], c.v[1], c.v[2]}
}

// AsVector4 converts the value to a 4-component vector.
func (v Value) AsVector4() f64.Vec4 { return Convert(v, KindVector4).v }

// AsQuat converts the value to a quaternion.
func (v Value) AsQuat() Quat {
	c := Convert(v, KindQuat)
	return Quat{X: c.v[0], Y: c.v[1], Z: c.v[2], W: c.v[3]}
}

// AsRotator converts the value to a rotator.
func (v Value) AsRotator() Rotator {
	c := Convert(v, KindRotator)
	return Rotator{Pitch: c.v[0], Yaw: c.v[1], Roll: c.v[2]}
}

// AsTransform converts the value to a transform.
func (v Value) AsTransform() Transform { return Convert(v, KindTransform).xf }

// AsString converts the value to text.
func (v Value) AsString() string { return Convert(v, KindString).s }

// String implements fmt.Stringer.
func (v Value) String() string {
	switch v.kind {
	case KindUnknown:
		return "<unknown>"
	case KindBool:
		return strconv.FormatBool(v.i != 0)
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.v[0], 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(v.v[0], 'g', -1, 64)
	case KindVector2:
		return fmt.Sprintf("X=%g Y=%g", v.v[0], v.v[1])
	case KindVector:
		return fmt.Sprintf("X=%g Y=%g Z=%g", v.v[0], v.v[1], v.v[2])
	case KindVector4, KindQuat:
		return fmt.Sprintf("X=%g Y=%g Z=%g W=%g", v.v[0], v.v[1], v.v[2], v.v[3])
	case KindRotator:
		return fmt.Sprintf("P=%g Y=%g R=%g", v.v[0], v.v[1], v.v[2])
	case KindTransform:
		r, t, s := v.xf.Rotation, v.xf.Translation, v.xf.Scale
		return fmt.Sprintf("%g,%g,%g|%g,%g,%g,%g|%g,%g,%g",
			t[0], t[1], t[2], r.X, r.Y, r.Z, r.W, s[0], s[1], s[2])
	default:
		return v.s
	}
}

// Equal reports whether v and o have the same kind and strictly equal
// payloads according to the kind's equality rule.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || !v.kind.Valid() {
		return false
	}
	return opsFor(v.kind).equal(v, o)
}

// scalar returns the value as a float64 without kind conversion rules
// for text. Only meaningful for numeric kinds.
func (v Value) scalar() float64 {
	switch v.kind {
	case KindBool, KindInt32, KindInt64:
		return float64(v.i)
	default:
		return v.v[0]
	}
}

// wide returns the value spread over four components.
func (v Value) wide() f64.Vec4 {
	switch v.kind {
	case KindBool, KindInt32, KindInt64, KindFloat, KindDouble:
		s := v.scalar()
		return f64.Vec4{s, s, s, s}
	case KindTransform:
		t := v.xf.Translation
		return f64.Vec4{t[0], t[1], t[2]}
	case KindString, KindName, KindSoftObjectPath, KindSoftClassPath:
		s := parseScalar(v.s)
		return f64.Vec4{s, s, s, s}
	default:
		return v.v
	}
}

// Convert coerces v to kind. Conversions between any two kinds are defined;
// lossy conversions follow the usual narrowing rules (float to integer
// truncates toward zero, a vector narrows to its X component, text parses
// as a number or falls back to zero).
func Convert(v Value, kind ValueKind) Value {
	if v.kind == kind {
		return v
	}
	if !v.kind.Valid() {
		return Zero(kind)
	}

	switch kind {
	case KindBool:
		if v.kind.IsText() {
			b, err := strconv.ParseBool(strings.TrimSpace(v.s))
			return Bool(err == nil && b)
		}
		if v.kind == KindQuat {
			return Bool(v.AsQuat() != IdentityQuat())
		}
		return Bool(v.toDouble() != 0)
	case KindInt32:
		return Int32(int32(truncate(v.toDouble(), math.MinInt32, math.MaxInt32)))
	case KindInt64:
		if v.kind == KindInt32 {
			return Int64(v.i)
		}
		return Int64(int64(truncate(v.toDouble(), math.MinInt64, maxInt64Float)))
	case KindFloat:
		return Float(float32(v.toDouble()))
	case KindDouble:
		return Double(v.toDouble())
	case KindVector2:
		w := v.wide()
		return Vector2(f64.Vec2{w[0], w[1]})
	case KindVector:
		if v.kind == KindQuat {
			return Vector(v.AsRotator().vec())
		}
		w := v.wide()
		return Vector(f64.Vec3{w[0], w[1], w[2]})
	case KindVector4:
		return Vector4(v.wide())
	case KindQuat:
		switch v.kind {
		case KindRotator:
			return QuatValue(Rotator{Pitch: v.v[0], Yaw: v.v[1], Roll: v.v[2]}.Quat())
		case KindTransform:
			return QuatValue(v.xf.Rotation)
		case KindVector4:
			return QuatValue(Quat{X: v.v[0], Y: v.v[1], Z: v.v[2], W: v.v[3]}.Normalize())
		default:
			w := v.wide()
			return QuatValue(Rotator{Pitch: w[0], Yaw: w[1], Roll: w[2]}.Quat())
		}
	case KindRotator:
		switch v.kind {
		case KindQuat:
			return RotatorValue(Quat{X: v.v[0], Y: v.v[1], Z: v.v[2], W: v.v[3]}.Rotator())
		case KindTransform:
			return RotatorValue(v.xf.Rotation.Rotator())
		default:
			w := v.wide()
			return RotatorValue(Rotator{Pitch: w[0], Yaw: w[1], Roll: w[2]})
		}
	case KindTransform:
		t := IdentityTransform()
		switch v.kind {
		case KindQuat, KindRotator:
			t.Rotation = v.AsQuat()
		case KindVector, KindVector2, KindVector4:
			t.Translation = f64.Vec3{v.v[0], v.v[1], v.v[2]}
		}
		return TransformValue(t)
	case KindString, KindName, KindSoftObjectPath, KindSoftClassPath:
		text := v.s
		if !v.kind.IsText() {
			text = v.String()
		}
		return Value{kind: kind, s: text}
	default:
		return Value{}
	}
}

// toDouble narrows any kind to a single number.
func (v Value) toDouble() float64 {
	switch v.kind {
	case KindQuat:
		return v.v[3]
	case KindTransform:
		return v.xf.Translation[0]
	case KindString, KindName, KindSoftObjectPath, KindSoftClassPath:
		return parseScalar(v.s)
	default:
		return v.wide()[0]
	}
}

func parseScalar(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// maxInt64Float is the largest float64 strictly below 2^63.
const maxInt64Float = 9223372036854774784.0

// truncate truncates f toward zero and clamps it into [lo, hi].
// NaN maps to zero.
func truncate(f, lo, hi float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	f = math.Trunc(f)
	return math.Max(lo, math.Min(hi, f))
}
