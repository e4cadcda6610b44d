// Package metrics constructs the metrics the application will track.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledgerview"

// Outcomes recorded for calls against the ledger service.
const (
	OutcomeSuccess = "success"
	OutcomeStatus  = "status"
	OutcomeParse   = "parse"
	OutcomeNetwork = "network"
)

var (
	requests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Number of http requests handled.",
	})

	errs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Number of http requests that ended in an error.",
	})

	panics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "panics_total",
		Help:      "Number of panics recovered while handling requests.",
	})

	ledgerCalls = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ledger_call_duration_seconds",
		Help:      "Latency of calls against the ledger service by operation and outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
)

// AddRequests increments the request counter.
func AddRequests() {
	requests.Inc()
}

// AddErrors increments the error counter.
func AddErrors() {
	errs.Inc()
}

// AddPanics increments the panic counter.
func AddPanics() {
	panics.Inc()
}

// ObserveLedger records how long a ledger operation took and how it ended.
func ObserveLedger(operation string, outcome string, since time.Time) {
	ledgerCalls.WithLabelValues(operation, outcome).Observe(time.Since(since).Seconds())
}

// Handler returns the http handler that exposes the collected metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
