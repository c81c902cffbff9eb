package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes pipeline counters and gauges via Prometheus.
// A nil Recorder is valid and records nothing, so metrics stay optional.
type Recorder struct {
	fetchesTotal  *prometheus.CounterVec
	retriesTotal  prometheus.Counter
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	rowsWritten   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// New creates a Recorder registered on the default registry.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinscope_fetches_total",
				Help: "Total number of data source fetches",
			},
			[]string{"asset", "outcome"},
		),
		retriesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "coinscope_fetch_retries_total",
				Help: "Total number of fetch retries (rate limits, transport errors)",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinscope_errors_total",
				Help: "Total number of pipeline errors by stage",
			},
			[]string{"stage"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinscope_last_price",
				Help: "Last collected price for an asset",
			},
			[]string{"asset"},
		),
		rowsWritten: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinscope_rows_written_total",
				Help: "Total quote rows written to the store",
			},
			[]string{"asset"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinscope_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordFetch counts one fetch attempt's outcome ("ok" or "error").
func (r *Recorder) RecordFetch(asset, outcome string) {
	if r == nil {
		return
	}
	r.fetchesTotal.WithLabelValues(asset, outcome).Inc()
}

// RecordRetry counts one fetch retry.
func (r *Recorder) RecordRetry() {
	if r == nil {
		return
	}
	r.retriesTotal.Inc()
}

// RecordError counts one error in the given stage.
func (r *Recorder) RecordError(stage string) {
	if r == nil {
		return
	}
	r.errorsTotal.WithLabelValues(stage).Inc()
}

// RecordLastPrice records the most recent price for an asset.
func (r *Recorder) RecordLastPrice(asset string, price float64) {
	if r == nil {
		return
	}
	r.lastPrice.WithLabelValues(asset).Set(price)
}

// RecordRowsWritten counts rows persisted for an asset.
func (r *Recorder) RecordRowsWritten(asset string, n int) {
	if r == nil {
		return
	}
	r.rowsWritten.WithLabelValues(asset).Add(float64(n))
}

// RecordStageDuration records how long a pipeline stage took.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}
