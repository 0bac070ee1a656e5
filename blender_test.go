package attrblend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairBlender(t *testing.T, mode BlendMode, a, b float64, opts ...Option) (*ProxyDataBlender, *Dataset) {
	t.Helper()
	src := scalarDataset(t, "src", a)
	dst := scalarDataset(t, "dst", b)
	bl, err := CreateProxyBlender(mode,
		captured(t, src, "v", RoleRead, SideIn),
		captured(t, dst, "v", RoleRead, SideIn),
		captured(t, dst, "v", RoleWrite, SideOut),
		opts...)
	require.NoError(t, err)
	return bl, dst
}

func TestBlendModes(t *testing.T) {
	tests := []struct {
		mode BlendMode
		want float64
	}{
		{ModeNone, 4},
		{ModeCopy, 2},
		{ModeSum, 6},
		{ModeSubtract, 2},
		{ModeAverage, 3},
		{ModeMin, 2},
		{ModeMax, 4},
		{ModeWeight, 2.5},
		{ModeLerp, 2.5},
		{ModeWeightedAdd, 3},
		{ModeWeightedSubtract, 1},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			bl, dst := pairBlender(t, tt.mode, 4, 2)
			bl.Blend(0, 0, 0, 0.25)
			assert.InDelta(t, tt.want, outValue(t, dst, "v", 0).AsDouble(), 1e-12)
		})
	}
}

func TestLerpClampsWeight(t *testing.T) {
	lerp, dst := pairBlender(t, ModeLerp, 4, 2)
	lerp.Blend(0, 0, 0, 3)
	assert.InDelta(t, 4, outValue(t, dst, "v", 0).AsDouble(), 1e-12)

	weight, dst := pairBlender(t, ModeWeight, 4, 2)
	weight.Blend(0, 0, 0, 2)
	assert.InDelta(t, 6, outValue(t, dst, "v", 0).AsDouble(), 1e-12)

	add, dst := pairBlender(t, ModeWeightedAdd, 4, 2)
	add.Blend(0, 0, 0, -2)
	assert.InDelta(t, -6, outValue(t, dst, "v", 0).AsDouble(), 1e-12)
}

func TestLerpEndpointsAllKinds(t *testing.T) {
	for _, k := range allKinds() {
		if !ModeLerp.SupportsKind(k) {
			continue
		}
		t.Run(k.String(), func(t *testing.T) {
			a, b := sample(k, 1), sample(k, 2)
			for _, mode := range []BlendMode{ModeLerp, ModeWeight} {
				ds := NewDataset("t", 1)
				out, err := ds.AllocateOutputBuffer("o", k, Zero(k))
				require.NoError(t, err)
				bl, err := NewProxyBlender(mode, NewConstantProxy(a, k), NewConstantProxy(b, k), out)
				require.NoError(t, err)

				bl.Blend(0, 0, 0, 0)
				assert.True(t, b.Equal(out.Read(0)), "%s w=0: want %s, got %s", mode, b, out.Read(0))
				bl.Blend(0, 0, 0, 1)
				assert.True(t, a.Equal(out.Read(0)), "%s w=1: want %s, got %s", mode, a, out.Read(0))
			}
		})
	}
}

func TestInt64BlendKeepsPrecision(t *testing.T) {
	const base = int64(1) << 60
	a, b := Int64(base+1), Int64(base+3)
	tests := []struct {
		mode BlendMode
		w    float64
		want int64
	}{
		{ModeLerp, 0, base + 3},
		{ModeLerp, 1, base + 1},
		{ModeLerp, 0.5, base + 2},
		{ModeWeight, 0, base + 3},
		{ModeWeight, 1, base + 1},
		{ModeWeight, 2, base - 1},
		{ModeAverage, 1, base + 2},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			ds := NewDataset("t", 1)
			out, err := ds.AllocateOutputBuffer("o", KindInt64, Zero(KindInt64))
			require.NoError(t, err)
			bl, err := NewProxyBlender(tt.mode, NewConstantProxy(a, KindInt64), NewConstantProxy(b, KindInt64), out)
			require.NoError(t, err)

			bl.Blend(0, 0, 0, tt.w)
			assert.Equal(t, tt.want, out.Read(0).AsInt64(), "w=%v", tt.w)
		})
	}
}

func TestInt64MultiBlendKeepsPrecision(t *testing.T) {
	const base = int64(1) << 60
	ds := NewDataset("t", 1)
	out, err := ds.AllocateOutputBuffer("o", KindInt64, Zero(KindInt64))
	require.NoError(t, err)
	src := NewDataset("src", 3)
	require.NoError(t, src.In.AddAttribute("v", KindInt64, Int64(0)))
	for i, d := range []int64{1, 3, 8} {
		require.NoError(t, src.In.Set("v", i, Int64(base+d)))
	}
	a, err := captured(t, src, "v", RoleRead, SideIn).Resolve()
	require.NoError(t, err)
	bl, err := NewProxyBlender(ModeAverage, a, a, out)
	require.NoError(t, err)

	st := bl.BeginMultiBlend(0)
	for i := range 3 {
		bl.MultiBlend(i, 0, 1, &st)
	}
	bl.EndMultiBlend(0, &st)
	assert.Equal(t, base+4, out.Read(0).AsInt64())
}

func TestBlendSugar(t *testing.T) {
	ds := scalarDataset(t, "self", 3, 5)
	bl, err := CreateProxyBlender(ModeSum,
		captured(t, ds, "v", RoleRead, SideIn),
		nil,
		captured(t, ds, "v", RoleWrite, SideOut))
	require.NoError(t, err)

	bl.BlendFrom(0, 1, 1)
	assert.InDelta(t, 8, outValue(t, ds, "v", 1).AsDouble(), 1e-12)

	bl.BlendSelf(0, 1)
	assert.InDelta(t, 6, outValue(t, ds, "v", 0).AsDouble(), 1e-12)

	bl.Div(1, 4)
	assert.InDelta(t, 2, outValue(t, ds, "v", 1).AsDouble(), 1e-12)
	bl.Div(1, 0)
	assert.InDelta(t, 2, outValue(t, ds, "v", 1).AsDouble(), 1e-12)
}

func TestBlendAutoWeight(t *testing.T) {
	src := scalarDataset(t, "src", 10)
	require.NoError(t, src.In.AddAttribute("w", KindFloat, Float(0.5)))
	dst := scalarDataset(t, "dst", 2)

	ws, err := WeightConfig{Input: WeightAttribute, Attribute: AttributeSelector("w")}.Build(src)
	require.NoError(t, err)

	bl, err := CreateProxyBlender(ModeWeightedAdd,
		captured(t, src, "v", RoleRead, SideIn),
		nil,
		captured(t, dst, "v", RoleWrite, SideOut),
		WithWeightSource(ws))
	require.NoError(t, err)

	bl.BlendAutoWeight(0, 0)
	assert.InDelta(t, 7, outValue(t, dst, "v", 0).AsDouble(), 1e-12)
}

func TestCreateProxyBlenderErrors(t *testing.T) {
	t.Run("text arithmetic", func(t *testing.T) {
		ds := NewDataset("t", 1)
		require.NoError(t, ds.In.AddAttribute("tag", KindString, StringValue("a")))
		_, err := CreateProxyBlender(ModeSum,
			captured(t, ds, "tag", RoleRead, SideIn), nil,
			captured(t, ds, "tag", RoleWrite, SideOut))
		var mce *ModeCompatibilityError
		require.ErrorAs(t, err, &mce)
		assert.Equal(t, KindString, mce.Kind)
		assert.ErrorIs(t, err, ErrModeUnsupported)
	})

	t.Run("text copy", func(t *testing.T) {
		ds := NewDataset("t", 1)
		require.NoError(t, ds.In.AddAttribute("tag", KindString, StringValue("a")))
		_, err := CreateProxyBlender(ModeCopy,
			captured(t, ds, "tag", RoleRead, SideIn), nil,
			captured(t, ds, "tag", RoleWrite, SideOut))
		assert.NoError(t, err)
	})

	t.Run("kind mismatch", func(t *testing.T) {
		ds := scalarDataset(t, "t", 1)
		require.NoError(t, ds.In.AddAttribute("p", KindVector, Zero(KindVector)))
		_, err := CreateProxyBlender(ModeSum,
			captured(t, ds, "p", RoleRead, SideIn), nil,
			captured(t, ds, "v", RoleWrite, SideOut))
		assert.ErrorIs(t, err, ErrKindMismatch)
	})

	t.Run("read-only output", func(t *testing.T) {
		c := NewConstantProxy(Double(1), KindDouble)
		_, err := NewProxyBlender(ModeSum, c, nil, c)
		var re *ResolutionError
		assert.True(t, errors.As(err, &re))
	})
}

// multi runs one accumulation of src values into target index 0.
func multi(t *testing.T, mode BlendMode, seed float64, contrib [][2]float64, opts ...Option) float64 {
	t.Helper()
	vals := make([]float64, len(contrib))
	for i, c := range contrib {
		vals[i] = c[0]
	}
	src := scalarDataset(t, "src", vals...)
	dst := scalarDataset(t, "dst", seed)
	bl, err := CreateProxyBlender(mode,
		captured(t, src, "v", RoleRead, SideIn), nil,
		captured(t, dst, "v", RoleWrite, SideOut), opts...)
	require.NoError(t, err)

	st := bl.BeginMultiBlend(0)
	for i, c := range contrib {
		bl.MultiBlend(i, 0, c[1], &st)
	}
	bl.EndMultiBlend(0, &st)
	return outValue(t, dst, "v", 0).AsDouble()
}

func TestMultiBlendWeightedMean(t *testing.T) {
	contrib := [][2]float64{{1, 1}, {2, 2}, {3, 1}}
	reversed := [][2]float64{{3, 1}, {2, 2}, {1, 1}}
	for _, mode := range []BlendMode{ModeAverage, ModeWeight, ModeLerp} {
		t.Run(mode.String(), func(t *testing.T) {
			assert.InDelta(t, 2, multi(t, mode, 99, contrib), 1e-12)
			assert.InDelta(t, 2, multi(t, mode, 99, reversed), 1e-12)
		})
	}
}

func TestMultiBlendExtremesOrderIndependent(t *testing.T) {
	perms := [][][2]float64{
		{{3, 1}, {-2, 1}, {7, 1}},
		{{7, 1}, {3, 1}, {-2, 1}},
		{{-2, 1}, {7, 1}, {3, 1}},
	}
	for i, p := range perms {
		assert.InDelta(t, -2, multi(t, ModeMin, 0, p), 0, "perm %d", i)
		assert.InDelta(t, 7, multi(t, ModeMax, 0, p), 0, "perm %d", i)
	}
}

func TestMultiBlendLastWins(t *testing.T) {
	for _, mode := range []BlendMode{ModeCopy, ModeNone} {
		t.Run(mode.String(), func(t *testing.T) {
			assert.InDelta(t, 9, multi(t, mode, 0, [][2]float64{{4, 1}, {9, 1}}), 0)
			assert.InDelta(t, 4, multi(t, mode, 0, [][2]float64{{9, 1}, {4, 1}}), 0)
		})
	}
}

func TestMultiBlendSum(t *testing.T) {
	assert.InDelta(t, 6, multi(t, ModeSum, 100, [][2]float64{{1, 1}, {2, 1}, {3, 1}}), 0)
	assert.InDelta(t, 106, multi(t, ModeSum, 100, [][2]float64{{1, 1}, {2, 1}, {3, 1}},
		WithResetBeforeMultiBlend(false)), 0)
}

func TestMultiBlendNoReset(t *testing.T) {
	got := multi(t, ModeAverage, 4, [][2]float64{{2, 1}}, WithResetBeforeMultiBlend(false))
	assert.InDelta(t, 3, got, 1e-12)

	got = multi(t, ModeMax, 10, [][2]float64{{2, 1}, {5, 1}}, WithResetBeforeMultiBlend(false))
	assert.InDelta(t, 10, got, 0)
}

func TestMultiBlendIdempotence(t *testing.T) {
	tests := []struct {
		mode BlendMode
		want float64
	}{
		{ModeSum, 0},
		{ModeAverage, 0},
		{ModeWeight, 0},
		{ModeCopy, 7},
		{ModeNone, 7},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.InDelta(t, tt.want, multi(t, tt.mode, 7, nil), 0)
		})
	}
}

func TestMultiBlendZeroWeight(t *testing.T) {
	got := multi(t, ModeAverage, 7, [][2]float64{{5, 0}, {3, 0}})
	assert.InDelta(t, 0, got, 0)
}

func TestMultiBlendTextExtremes(t *testing.T) {
	src := NewDataset("src", 3)
	require.NoError(t, src.In.AddAttribute("tag", KindName, NameValue("")))
	for i, s := range []string{"beta", "Alpha", "gamma"} {
		require.NoError(t, src.In.Set("tag", i, NameValue(s)))
	}
	dst := NewDataset("dst", 1)
	require.NoError(t, dst.In.AddAttribute("tag", KindName, NameValue("zzz")))

	for mode, want := range map[BlendMode]string{ModeMin: "Alpha", ModeMax: "gamma"} {
		bl, err := CreateProxyBlender(mode,
			captured(t, src, "tag", RoleRead, SideIn), nil,
			captured(t, dst, "tag", RoleWrite, SideOut))
		require.NoError(t, err)
		st := bl.BeginMultiBlend(0)
		for i := range 3 {
			bl.MultiBlend(i, 0, 1, &st)
		}
		bl.EndMultiBlend(0, &st)
		assert.Equal(t, want, outValue(t, dst, "tag", 0).AsString(), mode.String())
	}
}

func TestSubfieldBlendRoundTrip(t *testing.T) {
	ds := NewDataset("t", 1)
	require.NoError(t, ds.In.AddAttribute("p", KindVector, sample(KindVector, 1)))
	src := scalarDataset(t, "src", 42)

	bl, err := CreateProxyBlender(ModeNone,
		captured(t, src, "v", RoleRead, SideIn), nil,
		captured(t, ds, "p.Z", RoleWrite, SideOut))
	require.NoError(t, err)
	bl.BlendFrom(0, 0, 1)

	got := outValue(t, ds, "p", 0).AsVector()
	assert.Equal(t, [3]float64{1, 2, 42}, [3]float64(got))
}
