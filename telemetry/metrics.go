package telemetry

import (
	"github.com/HoneyDrunkStudios/gridkernel/operation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the propagation layer. It
// doubles as an operation.Sink and as the fallback observer the boundary
// mappers count synthesized roots on, so broken upstream propagation is
// visible without any request failing.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ContextFallbacks  *prometheus.CounterVec
}

// NewMetrics registers the collectors on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the collectors on reg. Tests pass their own
// registry to avoid duplicate-registration panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grid_operations_total",
				Help: "Total count of completed grid operations",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "grid_operation_duration_seconds",
				Help:    "Duration of grid operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ContextFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grid_context_fallback_total",
				Help: "Inbound carriers missing a correlation id, by carrier kind",
			},
			[]string{"carrier"},
		),
	}
}

// OperationCompleted records the completion counters and histogram.
func (m *Metrics) OperationCompleted(e operation.Event) {
	outcome := "success"
	if !e.Success {
		outcome = "failure"
	}
	m.OperationsTotal.WithLabelValues(e.OperationName, outcome).Inc()
	m.OperationDuration.WithLabelValues(e.OperationName).Observe(e.Duration.Seconds())
}

// ContextSynthesized counts a fresh root generated for a carrier that
// arrived without a correlation id.
func (m *Metrics) ContextSynthesized(carrier string) {
	m.ContextFallbacks.WithLabelValues(carrier).Inc()
}
