package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the collection pipeline's operational counters.
type Recorder struct {
	cyclesTotal      *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	recordsStored    prometheus.Counter
	fetchErrors      *prometheus.CounterVec
	malformedRecords prometheus.Counter
	lastCycleTime    prometheus.Gauge
}

// New registers the collector metrics with reg. Taking an explicit registerer
// keeps repeated construction in tests from colliding.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		cyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bazaar_collection_cycles_total",
				Help: "Total number of collection cycles by outcome",
			},
			[]string{"status"},
		),
		cycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name: "bazaar_collection_cycle_duration_seconds",
				Help: "Wall clock duration of collection cycles in seconds",
				// Snapshot cycles take well under a second, a full history
				// backfill can run for minutes.
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
			},
		),
		recordsStored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bazaar_records_stored_total",
				Help: "Total number of market records written to the store",
			},
		),
		fetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bazaar_fetch_errors_total",
				Help: "Total number of upstream fetch failures by endpoint",
			},
			[]string{"endpoint"},
		),
		malformedRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bazaar_malformed_records_total",
				Help: "Total number of upstream entries rejected during normalization",
			},
		),
		lastCycleTime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bazaar_last_cycle_timestamp_seconds",
				Help: "Unix time of the most recently finished collection cycle",
			},
		),
	}
}

func (r *Recorder) RecordCycleSuccess(duration time.Duration, storedCount int) {
	r.cyclesTotal.WithLabelValues("success").Inc()
	r.cycleDuration.Observe(duration.Seconds())
	r.recordsStored.Add(float64(storedCount))
	r.lastCycleTime.SetToCurrentTime()
}

func (r *Recorder) RecordCycleFailure(duration time.Duration) {
	r.cyclesTotal.WithLabelValues("failure").Inc()
	r.cycleDuration.Observe(duration.Seconds())
	r.lastCycleTime.SetToCurrentTime()
}

func (r *Recorder) RecordFetchError(endpoint string) {
	r.fetchErrors.WithLabelValues(endpoint).Inc()
}

func (r *Recorder) RecordMalformedRecords(count int) {
	if count > 0 {
		r.malformedRecords.Add(float64(count))
	}
}
