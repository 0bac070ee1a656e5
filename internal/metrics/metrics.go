// Package metrics holds the Prometheus instrumentation of attrblend.
//
// A nil *Metrics is valid and records nothing, so engine code calls the
// recording methods unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Facade labels.
const (
	FacadeMetadata = "metadata"
	FacadeUnion    = "union"
	FacadePipeline = "pipeline"
)

// Setup results.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics is the set of collectors for one registry.
type Metrics struct {
	setups        *prometheus.CounterVec
	blenders      *prometheus.CounterVec
	mismatches    prometheus.Counter
	points        *prometheus.CounterVec
	scopeDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		setups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "attrblend_setups_total",
			Help: "Facade initializations by facade and result",
		}, []string{"facade", "result"}),

		blenders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "attrblend_blenders_total",
			Help: "Proxy blenders built during setup",
		}, []string{"facade"}),

		mismatches: f.NewCounter(prometheus.CounterOpts{
			Name: "attrblend_type_mismatches_total",
			Help: "Attributes excluded from a union source because of a kind mismatch",
		}),

		points: f.NewCounterVec(prometheus.CounterOpts{
			Name: "attrblend_points_blended_total",
			Help: "Target points processed by batch helpers",
		}, []string{"facade"}),

		scopeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attrblend_scope_duration_seconds",
			Help:    "Duration of one processed scope",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.25},
		}, []string{"facade"}),
	}
}

// Setup records one facade initialization and the blenders it built.
func (m *Metrics) Setup(facade string, blenders int, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	m.setups.WithLabelValues(facade, result).Inc()
	if err == nil && blenders > 0 {
		m.blenders.WithLabelValues(facade).Add(float64(blenders))
	}
}

// Mismatches records attributes excluded by kind mismatches.
func (m *Metrics) Mismatches(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.mismatches.Add(float64(n))
}

// Scope records one processed scope of n points that started at start.
func (m *Metrics) Scope(facade string, n int, start time.Time) {
	if m == nil {
		return
	}
	m.points.WithLabelValues(facade).Add(float64(n))
	m.scopeDuration.WithLabelValues(facade).Observe(time.Since(start).Seconds())
}
