package attrblend

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"
)

// valueOpts compares values by payload with a small float tolerance. Kind,
// integer and text payloads must match exactly.
var valueOpts = cmp.Comparer(func(a, b Value) bool {
	if a.kind != b.kind || a.i != b.i || a.s != b.s {
		return false
	}
	x, y := a.xf, b.xf
	return near(a.v[:], b.v[:]) &&
		near([]float64{x.Rotation.X, x.Rotation.Y, x.Rotation.Z, x.Rotation.W}, []float64{y.Rotation.X, y.Rotation.Y, y.Rotation.Z, y.Rotation.W}) &&
		near(x.Translation[:], y.Translation[:]) &&
		near(x.Scale[:], y.Scale[:])
})

func near(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] && math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func assertValue(t *testing.T, want, got Value) {
	t.Helper()
	if diff := cmp.Diff(want, got, valueOpts); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

// scalarDataset returns a dataset with one double attribute "v".
func scalarDataset(t *testing.T, name string, vals ...float64) *Dataset {
	t.Helper()
	ds := NewDataset(name, len(vals))
	require.NoError(t, ds.In.AddAttribute("v", KindDouble, Double(0)))
	for i, v := range vals {
		require.NoError(t, ds.In.Set("v", i, Double(v)))
	}
	return ds
}

func captured(t *testing.T, ds *Dataset, sel string, role Role, side Side) *ProxyDescriptor {
	t.Helper()
	d := NewProxyDescriptor(ds, role)
	require.NoError(t, d.Capture(MustParseSelector(sel), side))
	return &d
}

func outValue(t *testing.T, ds *Dataset, name string, i int) Value {
	t.Helper()
	v, ok := ds.Out().Get(name, i)
	require.True(t, ok, "missing output attribute %q", name)
	return v
}

// sample returns a distinct value of kind k for each x.
func sample(k ValueKind, x float64) Value {
	rot := Rotator{Pitch: 10 * x, Yaw: 20 * x, Roll: 5 * x}
	switch k {
	case KindBool:
		return Bool(x > 1.5)
	case KindInt32:
		return Int32(int32(x * 10))
	case KindInt64:
		return Int64(int64(x * 100))
	case KindFloat:
		return Float(float32(x) / 4)
	case KindDouble:
		return Double(x / 8)
	case KindVector2:
		return Vector2(f64.Vec2{x, -x})
	case KindVector:
		return Vector(f64.Vec3{x, 2 * x, -x})
	case KindVector4:
		return Vector4(f64.Vec4{x, 2 * x, 3 * x, -x})
	case KindQuat:
		return QuatValue(rot.Quat())
	case KindRotator:
		return RotatorValue(rot)
	case KindTransform:
		return TransformValue(Transform{
			Rotation:    rot.Quat(),
			Translation: f64.Vec3{x, x, x},
			Scale:       f64.Vec3{1, 1, x},
		})
	case KindString:
		return StringValue("s" + Double(x).String())
	case KindName:
		return NameValue("n" + Double(x).String())
	case KindSoftObjectPath:
		return ObjectPathValue("/Game/Obj" + Double(x).String())
	default:
		return ClassPathValue("/Script/Cls" + Double(x).String())
	}
}

func allKinds() []ValueKind { return Kinds() }
