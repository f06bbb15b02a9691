// Package metrics exposes Prometheus collectors for the journal engine and
// its HTTP surface. Collectors register with the default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	importRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optjournal_import_records_total",
			Help: "Imported broker rows by outcome",
		},
		[]string{"outcome"},
	)

	importBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optjournal_import_batches_total",
			Help: "Import batches by status",
		},
		[]string{"status"},
	)

	recomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "optjournal_recompute_duration_seconds",
			Help:    "Time spent re-deriving one trade date",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	roundTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optjournal_round_trips_total",
			Help: "Round trips emitted by the matcher",
		},
		[]string{"direction"},
	)

	leftoverQuantity = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optjournal_leftover_contracts_total",
			Help: "Contracts the matcher could not pair",
		},
		[]string{"side"},
	)

	lastDayNetPnL = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "optjournal_last_day_net_pnl",
			Help: "Net P/L of the most recently recomputed trade date",
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optjournal_http_requests_total",
			Help: "HTTP requests by route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optjournal_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordImport counts the rows of one batch by outcome.
func RecordImport(inserted, duplicates, invalid, nonOption int) {
	importRecords.WithLabelValues("inserted").Add(float64(inserted))
	importRecords.WithLabelValues("duplicate").Add(float64(duplicates))
	importRecords.WithLabelValues("invalid").Add(float64(invalid))
	importRecords.WithLabelValues("non_option").Add(float64(nonOption))
}

// RecordBatch counts a finished batch.
func RecordBatch(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	importBatches.WithLabelValues(status).Inc()
}

// RecordRecompute observes one day recomputation.
func RecordRecompute(d time.Duration, long, short, openLeft, closeLeft int, netPnL float64, hasSummary bool) {
	recomputeDuration.Observe(d.Seconds())
	roundTrips.WithLabelValues("long").Add(float64(long))
	roundTrips.WithLabelValues("short").Add(float64(short))
	leftoverQuantity.WithLabelValues("open").Add(float64(openLeft))
	leftoverQuantity.WithLabelValues("close").Add(float64(closeLeft))
	if hasSummary {
		lastDayNetPnL.Set(netPnL)
	}
}

// RecordHTTP observes one served request.
func RecordHTTP(method, route, status string, d time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
