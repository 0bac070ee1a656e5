package attrblend

import (
	"sync/atomic"

	"github.com/gogpu/attrblend/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

var metricsPtr atomic.Pointer[metrics.Metrics]

// RegisterMetrics registers the attrblend collectors with reg and starts
// recording setups, type mismatches and processed scopes. Passing nil
// stops recording. By default nothing is recorded.
//
// Registering twice with the same registry fails with
// prometheus.AlreadyRegisteredError.
func RegisterMetrics(reg prometheus.Registerer) (err error) {
	if reg == nil {
		metricsPtr.Store(nil)
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	metricsPtr.Store(metrics.New(reg))
	return nil
}

func recorder() *metrics.Metrics { return metricsPtr.Load() }
