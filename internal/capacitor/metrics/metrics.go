package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for log ingestion.
type Metrics struct {
	BlocksProcessed  prometheus.Counter
	LastBlockHeight  prometheus.Gauge
	OutcomesSeen     prometheus.Counter
	OutcomesEligible prometheus.Counter
	LogsPersisted    *prometheus.CounterVec
	LogDataErrors    prometheus.Counter
	WriteFailures    prometheus.Counter
	WriteRetries     prometheus.Counter
	WriteDuration    *prometheus.HistogramVec
	AllowlistSize    prometheus.Gauge
	AccountsAdded    prometheus.Counter
}

// New creates the ingestion metrics and registers them with reg. A nil reg
// yields working but unregistered metrics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BlocksProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "capacitor_blocks_processed_total",
			Help: "Total number of feed blocks fully processed",
		}),
		LastBlockHeight: f.NewGauge(prometheus.GaugeOpts{
			Name: "capacitor_last_block_height",
			Help: "Height of the most recently processed block",
		}),
		OutcomesSeen: f.NewCounter(prometheus.CounterOpts{
			Name: "capacitor_outcomes_seen_total",
			Help: "Total number of execution outcomes received",
		}),
		OutcomesEligible: f.NewCounter(prometheus.CounterOpts{
			Name: "capacitor_outcomes_eligible_total",
			Help: "Total number of execution outcomes that passed the allowlist filter",
		}),
		LogsPersisted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "capacitor_logs_persisted_total",
			Help: "Total number of log documents written, by write mode",
		}, []string{"mode"}),
		LogDataErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "capacitor_log_data_errors_total",
			Help: "Total number of logs skipped because their payload was malformed",
		}),
		WriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "capacitor_write_failures_total",
			Help: "Total number of log documents that could not be written",
		}),
		WriteRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "capacitor_write_retries_total",
			Help: "Total number of document write retries",
		}),
		WriteDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capacitor_write_duration_seconds",
			Help:    "Latency of document writes including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		AllowlistSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "capacitor_allowlist_size",
			Help: "Current number of monitored accounts",
		}),
		AccountsAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "capacitor_accounts_added_total",
			Help: "Total number of accounts added to the allowlist at runtime",
		}),
	}
}

func (m *Metrics) ObserveBlock(height uint64) {
	if m == nil {
		return
	}
	m.BlocksProcessed.Inc()
	m.LastBlockHeight.Set(float64(height))
}

func (m *Metrics) IncOutcomesSeen() {
	if m == nil {
		return
	}
	m.OutcomesSeen.Inc()
}

func (m *Metrics) IncOutcomesEligible() {
	if m == nil {
		return
	}
	m.OutcomesEligible.Inc()
}

func (m *Metrics) IncLogsPersisted(mode string) {
	if m == nil {
		return
	}
	m.LogsPersisted.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncLogDataErrors() {
	if m == nil {
		return
	}
	m.LogDataErrors.Inc()
}

func (m *Metrics) IncWriteFailures() {
	if m == nil {
		return
	}
	m.WriteFailures.Inc()
}

func (m *Metrics) IncWriteRetries() {
	if m == nil {
		return
	}
	m.WriteRetries.Inc()
}

func (m *Metrics) ObserveWrite(mode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.WriteDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *Metrics) SetAllowlistSize(n int) {
	if m == nil {
		return
	}
	m.AllowlistSize.Set(float64(n))
}

func (m *Metrics) IncAccountsAdded() {
	if m == nil {
		return
	}
	m.AccountsAdded.Inc()
}
