package attrblend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanBlend(t *testing.T) {
	tests := []struct {
		name   string
		filter FilterPolicy
		attr   string
		want   bool
	}{
		{"all", FilterAll, "x", true},
		{"include hit", FilterInclude, "a", true},
		{"include miss", FilterInclude, "x", false},
		{"exclude hit", FilterExclude, "a", false},
		{"exclude miss", FilterExclude, "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &BlendingDetails{Filter: tt.filter, FilteredAttributes: []string{"a", "b"}}
			assert.Equal(t, tt.want, d.CanBlend(tt.attr))
		})
	}
}

func TestModeForDowngrade(t *testing.T) {
	d := &BlendingDetails{
		DefaultMode:    ModeAverage,
		AttributeModes: map[string]BlendMode{"explicit": ModeSum},
	}
	assert.Equal(t, ModeAverage, d.ModeFor(NewAttributeIdentity("x", KindDouble)))
	assert.Equal(t, ModeCopy, d.ModeFor(NewAttributeIdentity("b", KindBool)))
	assert.Equal(t, ModeCopy, d.ModeFor(NewAttributeIdentity("s", KindName)))
	assert.Equal(t, ModeSum, d.ModeFor(NewAttributeIdentity("explicit", KindString)))

	d.DefaultMode = ModeMax
	assert.Equal(t, ModeMax, d.ModeFor(NewAttributeIdentity("s", KindString)))
}

func TestPropertyParams(t *testing.T) {
	d := &BlendingDetails{
		DefaultMode:   ModeAverage,
		PropertyModes: map[PointProperty]BlendMode{PropertyColor: ModeNone, PropertySeed: ModeMax},
	}
	params := d.PropertyParams()
	assert.Len(t, params, len(BlendableProperties)-1)
	for _, p := range params {
		assert.Equal(t, TargetProperty, p.Selector.Target)
		assert.NotEqual(t, PropertyColor, p.Selector.Property)
		if p.Selector.Property == PropertySeed {
			assert.Equal(t, ModeMax, p.Mode)
		}
	}

	d.SkipProperties = true
	assert.Empty(t, d.PropertyParams())
}

func TestParams(t *testing.T) {
	src := NewDataset("src", 1)
	require.NoError(t, src.In.AddAttribute("shared", KindDouble, Double(0)))
	require.NoError(t, src.In.AddAttribute("clash", KindDouble, Double(0)))
	require.NoError(t, src.In.AddAttribute("fresh", KindVector, Zero(KindVector)))
	require.NoError(t, src.In.AddAttribute("ignored", KindDouble, Double(0)))
	require.NoError(t, src.In.AddAttribute("skipped", KindDouble, Double(0)))

	dst := NewDataset("dst", 1)
	require.NoError(t, dst.In.AddAttribute("shared", KindDouble, Double(0)))
	require.NoError(t, dst.In.AddAttribute("clash", KindString, StringValue("")))
	require.NoError(t, dst.In.AddAttribute("targetOnly", KindDouble, Double(0)))

	d := &BlendingDetails{
		DefaultMode:    ModeAverage,
		AttributeModes: map[string]BlendMode{"skipped": ModeNone},
	}
	params := d.Params(src, dst, "ignored")

	var names []string
	for _, p := range params {
		names = append(names, p.Identity.Name)
		assert.Equal(t, p.Identity.Name == "fresh", p.New, p.Identity.Name)
	}
	assert.Equal(t, []string{"shared", "fresh"}, names)

	self := d.Params(dst, dst)
	assert.Len(t, self, 3)
}

func TestAssembleDetails(t *testing.T) {
	src := scalarDataset(t, "src", 1)
	d, missing := AssembleDetails(ModeCopy,
		map[PointProperty]BlendMode{PropertyDensity: ModeSum},
		map[string]BlendMode{"v": ModeMax, "gone": ModeSum, "lost": ModeMin},
		src)

	assert.Equal(t, []string{"gone", "lost"}, missing)
	assert.Equal(t, FilterInclude, d.Filter)
	assert.Equal(t, []string{"v"}, d.FilteredAttributes)
	assert.Equal(t, ModeMax, d.ModeFor(NewAttributeIdentity("v", KindDouble)))
	assert.Equal(t, ModeSum, d.PropertyMode(PropertyDensity))
	assert.Equal(t, ModeCopy, d.PropertyMode(PropertyColor))
}

func TestFilterPolicyText(t *testing.T) {
	var f FilterPolicy
	require.NoError(t, f.UnmarshalText([]byte("Exclude")))
	assert.Equal(t, FilterExclude, f)
	assert.Error(t, f.UnmarshalText([]byte("some")))
}
