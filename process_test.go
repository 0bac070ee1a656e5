package attrblend

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func rampDataset(t *testing.T, name string, n int, scale float64) *Dataset {
	t.Helper()
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = scale * float64(i)
	}
	return scalarDataset(t, name, vals...)
}

func TestProcessUnion(t *testing.T) {
	defer goleak.VerifyNone(t)

	const n = 1000
	a := rampDataset(t, "a", n, 1)
	b := rampDataset(t, "b", n, 3)
	u := NewUnionBlender(&BlendingDetails{DefaultMode: ModeAverage, SkipProperties: true})
	u.AddSources(a, b)
	target := NewDataset("target", n)
	require.NoError(t, u.Init(target))

	pool := NewPool(4)
	defer pool.Close()

	err := ProcessUnion(context.Background(), pool, u, func(i int) []WeightedPoint {
		return []WeightedPoint{{Source: 0, Point: i, Weight: 1}, {Source: 1, Point: i, Weight: 1}}
	}, 64)
	require.NoError(t, err)

	for i := range n {
		if got := outValue(t, target, "v", i).AsDouble(); got != 2*float64(i) {
			t.Fatalf("point %d = %v, want %v", i, got, 2*float64(i))
		}
	}
}

func TestProcessMetadata(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := rampDataset(t, "src", 10, 1)
	target := rampDataset(t, "target", 10, 0)
	m := NewMetadataBlender(&BlendingDetails{DefaultMode: ModeSum, SkipProperties: true})
	require.NoError(t, m.Init(src, nil, target))

	// Every target reads the reversed source; odd targets are skipped.
	err := ProcessMetadata(context.Background(), nil, m, func(i int) (int, float64, bool) {
		return 9 - i, 1, i%2 == 0
	}, 3)
	require.NoError(t, err)

	for i := range 10 {
		want := 0.0
		if i%2 == 0 {
			want = float64(9 - i)
		}
		assert.InDelta(t, want, outValue(t, target, "v", i).AsDouble(), 0, "index %d", i)
	}
}

func TestProcessPipeline(t *testing.T) {
	defer goleak.VerifyNone(t)

	ds := pipelineDataset(t)
	m := NewBlendOpsManager(ds)
	require.NoError(t, m.Init([]BlendOpConfig{{
		Mode:        ModeSum,
		OperandA:    MustParseSelector("A"),
		UseOperandB: true,
		OperandB:    MustParseSelector("B"),
		OutputMode:  OutputNew,
		OutputTo:    MustParseSelector("X"),
	}}))

	require.NoError(t, ProcessPipeline(context.Background(), nil, m, 1))
	for i := range ds.Len() {
		assert.InDelta(t, float64(11*(i+1)), outValue(t, ds, "X", i).AsDouble(), 1e-12)
	}
}

func TestProcessNotInitialized(t *testing.T) {
	ctx := context.Background()

	assert.ErrorIs(t, ProcessUnion(ctx, nil, NewUnionBlender(nil), nil, 0), ErrNotInitialized)
	assert.ErrorIs(t, ProcessMetadata(ctx, nil, NewMetadataBlender(nil), nil, 0), ErrNotInitialized)
	assert.ErrorIs(t, ProcessPipeline(ctx, nil, NewBlendOpsManager(NewDataset("x", 1)), 0), ErrNotInitialized)
}

func TestProcessCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := rampDataset(t, "src", 4, 1)
	target := rampDataset(t, "target", 4, 0)
	m := NewMetadataBlender(&BlendingDetails{DefaultMode: ModeSum, SkipProperties: true})
	require.NoError(t, m.Init(src, nil, target))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, ProcessMetadata(ctx, nil, m, nil, 1), context.Canceled)
	for i := range 4 {
		assert.Zero(t, outValue(t, target, "v", i).AsDouble())
	}
}

func TestBatchCleansUpTransientOutputs(t *testing.T) {
	defer goleak.VerifyNone(t)

	ds := pipelineDataset(t)
	m := NewBlendOpsManager(ds)
	require.NoError(t, m.Init([]BlendOpConfig{
		{
			Mode:        ModeSum,
			OperandA:    MustParseSelector("A"),
			UseOperandB: true,
			OperandB:    MustParseSelector("B"),
			OutputMode:  OutputTransient,
			OutputTo:    MustParseSelector("tmp"),
		},
		{
			Mode:        ModeSum,
			OperandA:    MustParseSelector("#Previous"),
			UseOperandB: true,
			ConstantB:   ptr(Double(1)),
			OutputMode:  OutputNew,
			OutputTo:    MustParseSelector("final"),
		},
	}))

	pool := NewPool(2)
	defer pool.Close()

	batch := NewBatch(context.Background(), pool, 2, 0)
	batch.Pipeline(m)

	var result error = context.Canceled
	batch.OnComplete(func(err error) { result = err })
	require.NoError(t, batch.Wait())
	assert.NoError(t, result)

	_, ok := ds.Out().Attribute("tmp")
	assert.False(t, ok, "transient output removed after the batch")
	for i := range ds.Len() {
		assert.InDelta(t, float64(11*(i+1)+1), outValue(t, ds, "final", i).AsDouble(), 1e-12)
	}
}

func TestBatchFailureReported(t *testing.T) {
	defer goleak.VerifyNone(t)

	batch := NewBatch(context.Background(), nil, 0, 1)
	batch.Union(NewUnionBlender(nil), nil)

	var got error
	batch.OnComplete(func(err error) { got = err })
	require.ErrorIs(t, batch.Wait(), ErrNotInitialized)
	assert.ErrorIs(t, got, ErrNotInitialized)
}

func TestProcessRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(reg))
	defer func() { require.NoError(t, RegisterMetrics(nil)) }()

	src := rampDataset(t, "src", 6, 1)
	target := rampDataset(t, "target", 6, 0)
	m := NewMetadataBlender(&BlendingDetails{DefaultMode: ModeSum, SkipProperties: true})
	require.NoError(t, m.Init(src, nil, target))
	require.NoError(t, ProcessMetadata(context.Background(), nil, m, nil, 4))

	const expected = `
# HELP attrblend_points_blended_total Target points processed by batch helpers
# TYPE attrblend_points_blended_total counter
attrblend_points_blended_total{facade="metadata"} 6
# HELP attrblend_setups_total Facade initializations by facade and result
# TYPE attrblend_setups_total counter
attrblend_setups_total{facade="metadata",result="ok"} 1
`
	names := []string{"attrblend_points_blended_total", "attrblend_setups_total"}
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), names...))

	assert.Error(t, RegisterMetrics(reg), "collectors are already registered")
}
