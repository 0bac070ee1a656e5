package attrblend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataBlenderPairwise(t *testing.T) {
	src := scalarDataset(t, "src", 8, 4)
	require.NoError(t, src.In.AddAttribute("fresh", KindInt32, Int32(3)))
	dst := scalarDataset(t, "dst", 2, 2)

	m := NewMetadataBlender(&BlendingDetails{DefaultMode: ModeAverage, SkipProperties: true})
	require.NoError(t, m.Init(src, nil, dst))
	assert.Equal(t, 2, m.Len())

	m.BlendFrom(0, 1, 1)
	assert.InDelta(t, 5, outValue(t, dst, "v", 1).AsDouble(), 1e-12)
	assert.InDelta(t, 2, outValue(t, dst, "v", 0).AsDouble(), 0)
	// a new attribute blends against its own seed
	assert.Equal(t, int32(3), outValue(t, dst, "fresh", 1).AsInt32())
}

func TestMetadataBlenderSecondary(t *testing.T) {
	src := scalarDataset(t, "src", 10)
	other := scalarDataset(t, "other", 20)
	dst := scalarDataset(t, "dst", 0)

	m := NewMetadataBlender(&BlendingDetails{DefaultMode: ModeWeight, SkipProperties: true})
	require.NoError(t, m.Init(src, other, dst))

	m.Blend(0, 0, 0, 0.25)
	assert.InDelta(t, 17.5, outValue(t, dst, "v", 0).AsDouble(), 1e-12)
}

func TestMetadataBlenderMulti(t *testing.T) {
	src := scalarDataset(t, "src", 1, 5, 9)
	dst := scalarDataset(t, "dst", 100)

	m := NewMetadataBlender(&BlendingDetails{DefaultMode: ModeAverage})
	require.NoError(t, m.Init(src, nil, dst))
	assert.Greater(t, m.Len(), 1)

	trackers := m.InitTrackers()
	require.Len(t, trackers, m.Len())
	m.BeginMultiBlend(0, trackers)
	for i := range 3 {
		m.MultiBlend(i, 0, 1, trackers)
	}
	m.EndMultiBlend(0, trackers)
	assert.InDelta(t, 5, outValue(t, dst, "v", 0).AsDouble(), 1e-12)

	m.Div(0, 5)
	assert.InDelta(t, 1, outValue(t, dst, "v", 0).AsDouble(), 1e-12)
}

func TestMetadataBlenderFailsWhole(t *testing.T) {
	src := NewDataset("src", 1)
	require.NoError(t, src.In.AddAttribute("tag", KindString, StringValue("x")))
	require.NoError(t, src.In.AddAttribute("v", KindDouble, Double(1)))
	dst := NewDataset("dst", 1)

	m := NewMetadataBlender(&BlendingDetails{
		DefaultMode:    ModeAverage,
		AttributeModes: map[string]BlendMode{"tag": ModeSum},
		SkipProperties: true,
	})
	err := m.Init(src, nil, dst)
	var mce *ModeCompatibilityError
	require.ErrorAs(t, err, &mce)
	assert.Contains(t, err.Error(), "tag")
	assert.Zero(t, m.Len())
}

func TestMetadataBlenderIgnored(t *testing.T) {
	src := scalarDataset(t, "src", 1)
	require.NoError(t, src.In.AddAttribute("skip", KindDouble, Double(1)))
	dst := NewDataset("dst", 1)

	m := NewMetadataBlender(&BlendingDetails{DefaultMode: ModeCopy, SkipProperties: true},
		WithIgnoredAttributes("skip"))
	require.NoError(t, m.Init(src, nil, dst))
	require.Len(t, m.Params(), 1)
	assert.Equal(t, "v", m.Params()[0].Identity.Name)
}
