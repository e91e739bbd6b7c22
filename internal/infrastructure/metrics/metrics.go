package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics holds all Prometheus metrics.
//
// A nil *Metrics is valid and records nothing, so callers that do not care
// about instrumentation can pass nil.
type Metrics struct {
	// Ledger metrics
	EntriesAdded   prometheus.Counter
	EntriesUpdated prometheus.Counter
	EntriesDeleted prometheus.Counter
	Entries        prometheus.Gauge
	AmountTotal    prometheus.Gauge

	ValidationErrors  *prometheus.CounterVec
	ReconcileOutcomes *prometheus.CounterVec
	Exports           prometheus.Counter
	PublishErrors     prometheus.Counter

	// Store metrics
	StoreDuration *prometheus.HistogramVec
	StoreErrors   *prometheus.CounterVec

	// API metrics
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	HTTPInFlight      prometheus.Gauge
	RateLimitHits     prometheus.Counter
	IdempotentReplays prometheus.Counter
}

// New creates and registers all metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		EntriesAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "giftledger_entries_added_total",
			Help: "Total number of gift entries added",
		}),
		EntriesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "giftledger_entries_updated_total",
			Help: "Total number of gift entries edited",
		}),
		EntriesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "giftledger_entries_deleted_total",
			Help: "Total number of gift entries deleted",
		}),
		Entries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "giftledger_entries",
			Help: "Current number of entries in the ledger",
		}),
		AmountTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "giftledger_amount_total",
			Help: "Current sum of all entry amounts",
		}),
		ValidationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "giftledger_validation_errors_total",
				Help: "Rejected inputs by field",
			},
			[]string{"field"},
		),
		ReconcileOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "giftledger_reconcile_outcomes_total",
				Help: "Snapshot reconciliations by outcome",
			},
			[]string{"outcome"},
		),
		Exports: factory.NewCounter(prometheus.CounterOpts{
			Name: "giftledger_exports_total",
			Help: "Total number of CSV exports produced",
		}),
		PublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "giftledger_change_publish_errors_total",
			Help: "Change events that could not be published",
		}),

		// Store metrics
		StoreDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "giftledger_store_operation_duration_seconds",
				Help:    "Duration of storage operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "giftledger_store_errors_total",
				Help: "Storage operations that returned an error",
			},
			[]string{"operation"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "giftledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "giftledger_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "giftledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "giftledger_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "giftledger_idempotent_replays_total",
			Help: "Responses served from the idempotency store",
		}),
	}
}

// ObserveStore records the duration of a storage operation and whether it failed.
func (m *Metrics) ObserveStore(operation string, start time.Time, err error) {
	if m == nil {
		return
	}

	m.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(operation).Inc()
	}
}

// RecordValidationError counts a rejected input field.
func (m *Metrics) RecordValidationError(field string) {
	if m == nil {
		return
	}
	m.ValidationErrors.WithLabelValues(field).Inc()
}

// RecordReconcile counts a reconciliation outcome.
func (m *Metrics) RecordReconcile(outcome string) {
	if m == nil {
		return
	}
	m.ReconcileOutcomes.WithLabelValues(outcome).Inc()
}

// SetLedgerState publishes the current entry count and amount total.
func (m *Metrics) SetLedgerState(count int, total decimal.Decimal) {
	if m == nil {
		return
	}
	m.Entries.Set(float64(count))
	m.AmountTotal.Set(total.InexactFloat64())
}

// AddEntries increments the added counter.
func (m *Metrics) AddEntries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EntriesAdded.Add(float64(n))
}

// UpdateEntries increments the updated counter.
func (m *Metrics) UpdateEntries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EntriesUpdated.Add(float64(n))
}

// DeleteEntries increments the deleted counter.
func (m *Metrics) DeleteEntries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EntriesDeleted.Add(float64(n))
}

// RecordExport counts a produced export.
func (m *Metrics) RecordExport() {
	if m == nil {
		return
	}
	m.Exports.Inc()
}

// RecordPublishError counts a change event that failed to publish.
func (m *Metrics) RecordPublishError() {
	if m == nil {
		return
	}
	m.PublishErrors.Inc()
}
