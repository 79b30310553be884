// Package metrics holds the Prometheus collectors shared by the server, the
// CLI and the export worker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StoreMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bumdes_store_mutations_total",
			Help: "Ledger mutations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	MirrorWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bumdes_mirror_writes_total",
			Help: "Writes of the ledger document to the durable mirror",
		},
		[]string{"outcome"},
	)

	LedgerSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bumdes_ledger_transactions",
			Help: "Number of transactions currently held in the ledger",
		},
	)

	AdviceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bumdes_advice_requests_total",
			Help: "Advice requests by result status",
		},
		[]string{"status"},
	)

	AdviceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bumdes_advice_duration_seconds",
			Help:    "Time spent waiting for the text generation service",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bumdes_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bumdes_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"route"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bumdes_rate_limited_requests_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
	)

	ExportRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bumdes_sheet_exports_total",
			Help: "Spreadsheet export runs by outcome",
		},
		[]string{"outcome"},
	)
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
	OutcomeMissing  = "missing"
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
