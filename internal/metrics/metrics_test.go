package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Setup(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Setup(FacadeUnion, 3, nil)
	m.Setup(FacadeUnion, 2, nil)
	m.Setup(FacadeUnion, 4, errors.New("boom"))
	m.Setup(FacadePipeline, 1, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.setups.WithLabelValues(FacadeUnion, ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.setups.WithLabelValues(FacadeUnion, ResultFailed)))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.blenders.WithLabelValues(FacadeUnion)), "failed setups build nothing")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.blenders.WithLabelValues(FacadePipeline)))
}

func TestMetrics_MismatchesAndScopes(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Mismatches(2)
	m.Mismatches(0)
	m.Scope(FacadeMetadata, 10, time.Now())
	m.Scope(FacadeMetadata, 5, time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mismatches))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.points.WithLabelValues(FacadeMetadata)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.scopeDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Setup(FacadeUnion, 1, nil)
		m.Mismatches(3)
		m.Scope(FacadeUnion, 1, time.Now())
	})
}

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Setup(FacadeMetadata, 1, nil)

	families, err := reg.Gather()
	assert.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "attrblend_setups_total")
	assert.Contains(t, names, "attrblend_blenders_total")
}
