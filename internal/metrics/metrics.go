package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores the Prometheus collectors used across the service.
type Metrics struct {
	WSConnections   prometheus.Gauge
	InboundEvents   *prometheus.CounterVec
	Settlements     *prometheus.CounterVec
	Gifts           prometheus.Counter
	SessionDuration prometheus.Histogram
	Errors          *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Currently open websocket connections.",
			}),
			InboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inbound_events_total",
				Help:      "Total inbound realtime events by type.",
			}, []string{"type"}),
			Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlements_total",
				Help:      "Total session settlements written by outcome.",
			}, []string{"outcome"}),
			Gifts: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gift_transfers_total",
				Help:      "Total completed gift transfers.",
			}),
			SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_duration_seconds",
				Help:      "Duration distribution of settled sessions.",
				Buckets:   []float64{15, 60, 180, 600, 1200, 3600},
			}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.WSConnections,
			metricsInstance.InboundEvents,
			metricsInstance.Settlements,
			metricsInstance.Gifts,
			metricsInstance.SessionDuration,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
