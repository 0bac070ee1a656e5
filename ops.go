package attrblend

import (
	"cmp"
	"math"
	"math/big"

	"golang.org/x/image/math/f64"
	"golang.org/x/text/cases"
)

// kindOps is the arithmetic a kind provides to the blend modes.
//
// Accumulators are opaque Values produced by accZero and accumulate and
// only ever consumed by finalize of the same kindOps. Their kind may differ
// from the working kind (scalars accumulate as doubles).
type kindOps interface {
	additive() Value
	lowest() Value
	highest() Value

	add(a, b Value) Value
	sub(a, b Value) Value
	scale(a Value, s float64) Value
	// lerp returns a at t=0 and b at t=1.
	lerp(a, b Value, t float64) Value
	min(a, b Value) Value
	max(a, b Value) Value
	equal(a, b Value) bool

	accZero() Value
	accumulate(acc, v Value, w float64) Value
	finalize(acc Value, weightSum float64) Value
}

var opsTable [kindCount]kindOps

func init() {
	for _, k := range []ValueKind{KindBool, KindInt32, KindInt64, KindFloat, KindDouble} {
		opsTable[k] = scalarOps{kind: k}
	}
	opsTable[KindVector2] = vecOps{kind: KindVector2, n: 2}
	opsTable[KindVector] = vecOps{kind: KindVector, n: 3}
	opsTable[KindVector4] = vecOps{kind: KindVector4, n: 4}
	opsTable[KindRotator] = vecOps{kind: KindRotator, n: 3}
	opsTable[KindQuat] = quatOps{}
	opsTable[KindTransform] = transformOps{}
	for _, k := range []ValueKind{KindString, KindName, KindSoftObjectPath, KindSoftClassPath} {
		opsTable[k] = textOps{kind: k}
	}
}

// opsFor returns the operations of a kind. It panics on KindUnknown, which
// callers rule out before dispatching.
func opsFor(kind ValueKind) kindOps {
	if !kind.Valid() {
		panic("attrblend: no operations for kind " + kind.String())
	}
	return opsTable[kind]
}

// scalarOps covers bool, integer and floating point kinds. Integer kinds
// stay in integer arithmetic: weighted results are computed relative to an
// integer base so 64-bit values keep every bit.
type scalarOps struct {
	kind ValueKind
}

func (o scalarOps) make(f float64) Value {
	switch o.kind {
	case KindBool:
		return Bool(f >= 0.5)
	case KindInt32:
		return Int32(int32(roundClamp(f, math.MinInt32, math.MaxInt32)))
	case KindInt64:
		return Int64(int64(roundClamp(f, math.MinInt64, maxInt64Float)))
	case KindFloat:
		return Float(float32(f))
	default:
		return Double(f)
	}
}

func (o scalarOps) makeInt(i int64) Value {
	switch o.kind {
	case KindBool:
		return Bool(i > 0)
	case KindInt32:
		return Int32(int32(i)) //nolint:gosec // G115: int32 arithmetic wraps
	default:
		return Int64(i)
	}
}

func (o scalarOps) integral() bool {
	return o.kind == KindBool || o.kind == KindInt32 || o.kind == KindInt64
}

func (o scalarOps) additive() Value { return Zero(o.kind) }

func (o scalarOps) lowest() Value {
	switch o.kind {
	case KindBool:
		return Bool(false)
	case KindInt32:
		return Int32(math.MinInt32)
	case KindInt64:
		return Int64(math.MinInt64)
	default:
		return o.make(math.Inf(-1))
	}
}

func (o scalarOps) highest() Value {
	switch o.kind {
	case KindBool:
		return Bool(true)
	case KindInt32:
		return Int32(math.MaxInt32)
	case KindInt64:
		return Int64(math.MaxInt64)
	default:
		return o.make(math.Inf(1))
	}
}

func (o scalarOps) add(a, b Value) Value {
	if o.integral() {
		return o.makeInt(a.i + b.i)
	}
	return o.make(a.v[0] + b.v[0])
}

func (o scalarOps) sub(a, b Value) Value {
	if o.integral() {
		return o.makeInt(a.i - b.i)
	}
	return o.make(a.v[0] - b.v[0])
}

// fromInt converts an exact integer result back to the kind.
func (o scalarOps) fromInt(i int64) Value {
	if o.kind == KindInt64 {
		return Int64(i)
	}
	return o.make(float64(i))
}

func (o scalarOps) scale(a Value, s float64) Value {
	if o.integral() {
		return o.fromInt(mulRound(a.i, s))
	}
	return o.make(a.v[0] * s)
}

func (o scalarOps) lerp(a, b Value, t float64) Value {
	switch {
	case t == 0:
		return a
	case t == 1:
		return b
	case o.integral():
		return o.fromInt(lerpInt(a.i, b.i, t))
	}
	x, y := a.v[0], b.v[0]
	return o.make((1-t)*x + t*y)
}

func (o scalarOps) min(a, b Value) Value {
	if o.integral() {
		if b.i < a.i {
			return b
		}
		return a
	}
	if b.v[0] < a.v[0] {
		return b
	}
	return a
}

func (o scalarOps) max(a, b Value) Value {
	if o.integral() {
		if b.i > a.i {
			return b
		}
		return a
	}
	if b.v[0] > a.v[0] {
		return b
	}
	return a
}

func (o scalarOps) equal(a, b Value) bool {
	if o.integral() {
		return a.i == b.i
	}
	return a.v[0] == b.v[0]
}

// Scalar accumulators are doubles. Integer kinds keep the first
// contribution as an integer base in acc.i (v[1] marks it set) and sum the
// weighted offsets from it in v[0].
func (o scalarOps) accZero() Value { return Double(0) }

func (o scalarOps) accumulate(acc, v Value, w float64) Value {
	if !o.integral() {
		return Double(acc.v[0] + v.v[0]*w)
	}
	if acc.v[1] == 0 {
		acc.i, acc.v[1] = v.i, 1
	}
	acc.v[0] += offset(v.i, acc.i) * w
	return acc
}

func (o scalarOps) finalize(acc Value, weightSum float64) Value {
	if !o.integral() {
		return o.make(acc.v[0] / weightSum)
	}
	return o.fromInt(addRound(acc.i, acc.v[0]/weightSum))
}

// roundClamp rounds half away from zero and clamps into [lo, hi].
func roundClamp(f, lo, hi float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(lo, math.Min(hi, math.Round(f)))
}

// mulRound returns i*s rounded half away from zero, saturating at the int64
// range.
func mulRound(i int64, s float64) int64 {
	return lerpInt(0, i, s)
}

// lerpInt returns a+(b-a)*t rounded half away from zero, saturating at the
// int64 range. The arithmetic is exact for every finite t.
func lerpInt(a, b int64, t float64) int64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return int64(roundClamp(float64(a)+(float64(b)-float64(a))*t, math.MinInt64, maxInt64Float))
	}
	x := new(big.Float).SetPrec(192).SetInt64(a)
	p := new(big.Float).SetPrec(192).SetInt64(b)
	p.Sub(p, x).Mul(p, new(big.Float).SetFloat64(t)).Add(p, x)
	return roundBig(p)
}

// addRound returns base+f rounded half away from zero, saturating at the
// int64 range.
func addRound(base int64, f float64) int64 {
	if math.IsNaN(f) {
		return base
	}
	if math.IsInf(f, 0) {
		return int64(roundClamp(f, math.MinInt64, maxInt64Float))
	}
	p := new(big.Float).SetPrec(192).SetFloat64(f)
	return roundBig(p.Add(p, new(big.Float).SetInt64(base)))
}

func roundBig(p *big.Float) int64 {
	half := big.NewFloat(0.5)
	if p.Sign() < 0 {
		half.Neg(half)
	}
	r, _ := p.Add(p, half).Int64()
	return r
}

// offset returns v-base as a float64, exact whenever the difference fits.
func offset(v, base int64) float64 {
	if d := v - base; (d >= 0) == (v >= base) {
		return float64(d)
	}
	return float64(v) - float64(base)
}

// vecOps works component-wise on the first n lanes. Rotators use it too:
// their components blend as plain degrees.
type vecOps struct {
	kind ValueKind
	n    int
}

func (o vecOps) make(v f64.Vec4) Value {
	for i := o.n; i < 4; i++ {
		v[i] = 0
	}
	return Value{kind: o.kind, v: v}
}

func (o vecOps) fill(f float64) Value {
	return o.make(f64.Vec4{f, f, f, f})
}

func (o vecOps) zip(a, b Value, fn func(x, y float64) float64) Value {
	var r f64.Vec4
	for i := range o.n {
		r[i] = fn(a.v[i], b.v[i])
	}
	return Value{kind: o.kind, v: r}
}

func (o vecOps) additive() Value { return Value{kind: o.kind} }
func (o vecOps) lowest() Value   { return o.fill(math.Inf(-1)) }
func (o vecOps) highest() Value  { return o.fill(math.Inf(1)) }

func (o vecOps) add(a, b Value) Value {
	return o.zip(a, b, func(x, y float64) float64 { return x + y })
}

func (o vecOps) sub(a, b Value) Value {
	return o.zip(a, b, func(x, y float64) float64 { return x - y })
}

func (o vecOps) scale(a Value, s float64) Value {
	return o.zip(a, a, func(x, _ float64) float64 { return x * s })
}

func (o vecOps) lerp(a, b Value, t float64) Value {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return o.zip(a, b, func(x, y float64) float64 { return (1-t)*x + t*y })
}

func (o vecOps) min(a, b Value) Value { return o.zip(a, b, math.Min) }
func (o vecOps) max(a, b Value) Value { return o.zip(a, b, math.Max) }

func (o vecOps) equal(a, b Value) bool {
	for i := range o.n {
		if a.v[i] != b.v[i] {
			return false
		}
	}
	return true
}

func (o vecOps) accZero() Value { return o.additive() }

func (o vecOps) accumulate(acc, v Value, w float64) Value {
	return o.zip(acc, v, func(x, y float64) float64 { return x + y*w })
}

func (o vecOps) finalize(acc Value, weightSum float64) Value {
	return o.scale(acc, 1/weightSum)
}

// quatOps routes additive arithmetic and extremes through rotator space so
// that Sum of two rotations adds their angles. Interpolation is spherical.
type quatOps struct{}

var rotatorOps = vecOps{kind: KindRotator, n: 3}

func quatOf(v Value) Quat {
	return Quat{X: v.v[0], Y: v.v[1], Z: v.v[2], W: v.v[3]}
}

func (quatOps) viaRotator(a, b Value, fn func(x, y Value) Value) Value {
	ra := RotatorValue(quatOf(a).Rotator())
	rb := RotatorValue(quatOf(b).Rotator())
	r := fn(ra, rb)
	return QuatValue(Rotator{Pitch: r.v[0], Yaw: r.v[1], Roll: r.v[2]}.Quat())
}

func (quatOps) additive() Value { return QuatValue(IdentityQuat()) }
func (quatOps) lowest() Value   { return QuatValue(IdentityQuat()) }
func (quatOps) highest() Value  { return QuatValue(IdentityQuat()) }

func (o quatOps) add(a, b Value) Value { return o.viaRotator(a, b, rotatorOps.add) }
func (o quatOps) sub(a, b Value) Value { return o.viaRotator(a, b, rotatorOps.sub) }
func (o quatOps) min(a, b Value) Value { return o.viaRotator(a, b, rotatorOps.min) }
func (o quatOps) max(a, b Value) Value { return o.viaRotator(a, b, rotatorOps.max) }

func (o quatOps) scale(a Value, s float64) Value {
	return o.viaRotator(a, a, func(x, _ Value) Value { return rotatorOps.scale(x, s) })
}

func (quatOps) lerp(a, b Value, t float64) Value {
	return QuatValue(quatOf(a).Slerp(quatOf(b), t))
}

func (quatOps) equal(a, b Value) bool { return a.v == b.v }

func (quatOps) accZero() Value { return Value{kind: KindVector4} }

// accumulate flips contributions into the hemisphere of the running sum so
// that q and -q reinforce instead of cancelling.
func (quatOps) accumulate(acc, v Value, w float64) Value {
	q := quatOf(v)
	if quatOf(acc).Dot(q) < 0 {
		q = q.Neg()
	}
	return Vector4(f64.Vec4{
		acc.v[0] + q.X*w,
		acc.v[1] + q.Y*w,
		acc.v[2] + q.Z*w,
		acc.v[3] + q.W*w,
	})
}

func (quatOps) finalize(acc Value, _ float64) Value {
	return QuatValue(quatOf(acc).Normalize())
}

// transformOps blends rotation as a quaternion and translation and scale as
// vectors.
type transformOps struct{}

var vec3Ops = vecOps{kind: KindVector, n: 3}

func vec3Of(v f64.Vec3) Value { return Vector(v) }

func vec3From(v Value) f64.Vec3 { return f64.Vec3{v.v[0], v.v[1], v.v[2]} }

func (transformOps) combine(a, b Value, rot func(x, y Value) Value, vec func(x, y Value) Value) Value {
	x, y := a.xf, b.xf
	return TransformValue(Transform{
		Rotation:    quatOf(rot(QuatValue(x.Rotation), QuatValue(y.Rotation))),
		Translation: vec3From(vec(vec3Of(x.Translation), vec3Of(y.Translation))),
		Scale:       vec3From(vec(vec3Of(x.Scale), vec3Of(y.Scale))),
	})
}

func (transformOps) additive() Value {
	return TransformValue(Transform{Rotation: IdentityQuat()})
}

func (transformOps) lowest() Value {
	lo := math.Inf(-1)
	return TransformValue(Transform{
		Rotation:    IdentityQuat(),
		Translation: f64.Vec3{lo, lo, lo},
		Scale:       f64.Vec3{lo, lo, lo},
	})
}

func (transformOps) highest() Value {
	hi := math.Inf(1)
	return TransformValue(Transform{
		Rotation:    IdentityQuat(),
		Translation: f64.Vec3{hi, hi, hi},
		Scale:       f64.Vec3{hi, hi, hi},
	})
}

func (o transformOps) add(a, b Value) Value { return o.combine(a, b, quatOps{}.add, vec3Ops.add) }
func (o transformOps) sub(a, b Value) Value { return o.combine(a, b, quatOps{}.sub, vec3Ops.sub) }
func (o transformOps) min(a, b Value) Value { return o.combine(a, b, quatOps{}.min, vec3Ops.min) }
func (o transformOps) max(a, b Value) Value { return o.combine(a, b, quatOps{}.max, vec3Ops.max) }

func (o transformOps) scale(a Value, s float64) Value {
	return o.combine(a, a,
		func(x, _ Value) Value { return quatOps{}.scale(x, s) },
		func(x, _ Value) Value { return vec3Ops.scale(x, s) })
}

func (o transformOps) lerp(a, b Value, t float64) Value {
	return o.combine(a, b,
		func(x, y Value) Value { return quatOps{}.lerp(x, y, t) },
		func(x, y Value) Value { return vec3Ops.lerp(x, y, t) })
}

func (transformOps) equal(a, b Value) bool { return a.xf == b.xf }

func (transformOps) accZero() Value {
	return TransformValue(Transform{})
}

func (o transformOps) accumulate(acc, v Value, w float64) Value {
	q := quatOps{}.accumulate(raw(acc.xf.Rotation), QuatValue(v.xf.Rotation), w)
	return TransformValue(Transform{
		Rotation:    quatOf(q),
		Translation: vec3From(vec3Ops.accumulate(vec3Of(acc.xf.Translation), vec3Of(v.xf.Translation), w)),
		Scale:       vec3From(vec3Ops.accumulate(vec3Of(acc.xf.Scale), vec3Of(v.xf.Scale), w)),
	})
}

func (o transformOps) finalize(acc Value, weightSum float64) Value {
	return TransformValue(Transform{
		Rotation:    acc.xf.Rotation.Normalize(),
		Translation: vec3From(vec3Ops.finalize(vec3Of(acc.xf.Translation), weightSum)),
		Scale:       vec3From(vec3Ops.finalize(vec3Of(acc.xf.Scale), weightSum)),
	})
}

// raw wraps an unnormalized quaternion sum without touching its components.
func raw(q Quat) Value {
	return Vector4(f64.Vec4{q.X, q.Y, q.Z, q.W})
}

// textOps only defines ordering and equality. Names order and compare
// case-insensitively. Arithmetic is unreachable: modes that need it are
// rejected for text kinds before any blender is built.
type textOps struct {
	kind ValueKind
}

func (o textOps) key(v Value) string {
	if o.kind == KindName {
		return cases.Fold().String(v.s)
	}
	return v.s
}

func (o textOps) compare(a, b Value) int {
	return cmp.Compare(o.key(a), o.key(b))
}

func (o textOps) additive() Value { return Zero(o.kind) }
func (o textOps) lowest() Value   { return Zero(o.kind) }
func (o textOps) highest() Value  { return Zero(o.kind) }

func (o textOps) add(a, _ Value) Value           { return a }
func (o textOps) sub(a, _ Value) Value           { return a }
func (o textOps) scale(a Value, _ float64) Value { return a }

func (o textOps) lerp(a, b Value, t float64) Value {
	if t < 0.5 {
		return a
	}
	return b
}

func (o textOps) min(a, b Value) Value {
	if o.compare(b, a) < 0 {
		return b
	}
	return a
}

func (o textOps) max(a, b Value) Value {
	if o.compare(b, a) > 0 {
		return b
	}
	return a
}

func (o textOps) equal(a, b Value) bool { return o.compare(a, b) == 0 }

func (o textOps) accZero() Value { return Zero(o.kind) }

func (o textOps) accumulate(_, v Value, _ float64) Value { return v }

func (o textOps) finalize(acc Value, _ float64) Value { return acc }
