package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the structured logger.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Data change records emitted, by kind (created, updated, deleted)
	DataChanges *prometheus.CounterVec

	// Updates dropped because only the bookkeeping field changed
	UpdatesSuppressed prometheus.Counter

	// Data change calls that failed on an entity contract violation
	DataChangeFailures prometheus.Counter

	// Raw records accepted by batch handlers
	RecordsBuffered prometheus.Counter

	// Structured records written, by transport
	RecordsFlushed *prometheus.CounterVec

	// Batch flushes that failed to format or write
	FlushFailures prometheus.Counter

	// Time spent formatting and writing one batch
	FlushDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		DataChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "structlog_data_changes_total",
			Help: "Total data change records emitted by kind",
		}, []string{"kind"}),

		UpdatesSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "structlog_updates_suppressed_total",
			Help: "Total updates suppressed because only the bookkeeping field changed",
		}),

		DataChangeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "structlog_data_change_failures_total",
			Help: "Total data change calls that failed",
		}),

		RecordsBuffered: factory.NewCounter(prometheus.CounterOpts{
			Name: "structlog_records_buffered_total",
			Help: "Total raw records accepted by batch handlers",
		}),

		RecordsFlushed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "structlog_records_flushed_total",
			Help: "Total structured records written by transport",
		}, []string{"transport"}),

		FlushFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "structlog_flush_failures_total",
			Help: "Total batch flushes that failed",
		}),

		FlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "structlog_flush_duration_seconds",
			Help:    "Duration of formatting and writing one batch",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncDataChange records an emitted data change record
func (m *Metrics) IncDataChange(kind string) {
	if m != nil {
		m.DataChanges.WithLabelValues(kind).Inc()
	}
}

// IncUpdateSuppressed records a suppressed update
func (m *Metrics) IncUpdateSuppressed() {
	if m != nil {
		m.UpdatesSuppressed.Inc()
	}
}

// IncDataChangeFailure records a failed data change call
func (m *Metrics) IncDataChangeFailure() {
	if m != nil {
		m.DataChangeFailures.Inc()
	}
}

// IncBuffered records a raw record accepted by a batch handler
func (m *Metrics) IncBuffered() {
	if m != nil {
		m.RecordsBuffered.Inc()
	}
}

// AddFlushed records n structured records written to transport
func (m *Metrics) AddFlushed(transport string, n int) {
	if m != nil {
		m.RecordsFlushed.WithLabelValues(transport).Add(float64(n))
	}
}

// IncFlushFailure records a failed flush
func (m *Metrics) IncFlushFailure() {
	if m != nil {
		m.FlushFailures.Inc()
	}
}

// ObserveFlush records the duration of one flush
func (m *Metrics) ObserveFlush(d time.Duration) {
	if m != nil {
		m.FlushDuration.Observe(d.Seconds())
	}
}
