package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the worker engine and the CUG batch.
type Metrics struct {
	WorkerRegistered   prometheus.Counter
	WorkerAutoVerified prometheus.Counter
	CUGRowsMatched     prometheus.Counter
	CUGRowsSkipped     prometheus.Counter
	UpsertDuration     prometheus.Histogram
}

// New registers all worker module metrics.
func New() *Metrics {
	return &Metrics{
		WorkerRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "afya_workers_registered_total",
			Help: "Total number of new health worker identities created",
		}),
		WorkerAutoVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "afya_workers_auto_verified_total",
			Help: "Total number of workers promoted to verified automatically",
		}),
		CUGRowsMatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "afya_cug_rows_matched_total",
			Help: "Closed-user-group batch rows matched to a worker",
		}),
		CUGRowsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "afya_cug_rows_skipped_total",
			Help: "Closed-user-group batch rows with no matching worker",
		}),
		UpsertDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "afya_worker_upsert_duration_seconds",
			Help:    "Duration of health worker upsert operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveUpsert records the duration of an upsert. Call with time.Now() taken
// at the start of the operation.
func (m *Metrics) ObserveUpsert(start time.Time) {
	m.UpsertDuration.Observe(time.Since(start).Seconds())
}
