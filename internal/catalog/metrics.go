package catalog

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the catalog services.
type Metrics struct {
	HydrationsTotal *prometheus.CounterVec
	UpdatesTotal    *prometheus.CounterVec
	UpdateDuration  prometheus.Histogram
}

// NewMetrics returns the process-wide catalog metrics, registering them on
// first use. Registration happens once so that building several services
// never panics with a duplicate collector.
//
// Metrics:
//   - projectindex_hydrations_total{source} - listing loads by source (remote, fallback, empty)
//   - projectindex_updates_total{outcome} - field updates by outcome
//   - projectindex_update_duration_seconds - read-modify-write latency
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			HydrationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "projectindex_hydrations_total",
					Help: "Total number of project document loads by source",
				},
				[]string{"source"},
			),
			UpdatesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "projectindex_updates_total",
					Help: "Total number of field updates by outcome",
				},
				[]string{"outcome"},
			),
			UpdateDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "projectindex_update_duration_seconds",
					Help:    "Duration of field updates including both store calls",
					Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				},
			),
		}
	})
	return globalMetrics
}

// Update outcomes.
const (
	outcomeSuccess       = "success"
	outcomeValidation    = "validation"
	outcomeConfiguration = "configuration"
	outcomeNotFound      = "not_found"
	outcomeReadError     = "read_error"
	outcomeWriteError    = "write_error"
	outcomeConflict      = "conflict"
)
