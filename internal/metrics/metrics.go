// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - API call counts by result
//   - Rolling health score and session success rate
//   - Records written and per-record write errors
//   - Seconds until the next scheduled call
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CallsTotal counts completed API call cycles, labelled success/failure.
	CallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmclogger_api_calls_total",
		Help: "Completed API call cycles by result.",
	}, []string{"result"})

	// CreditsUsed counts API credits consumed by successful calls.
	CreditsUsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cmclogger_api_credits_total",
		Help: "API credits consumed.",
	})

	// HealthScore is the rolling-window success percentage.
	HealthScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cmclogger_health_score",
		Help: "Rolling-window call success percentage.",
	})

	// RecordsWritten counts rows appended to the database.
	RecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cmclogger_records_written_total",
		Help: "Rows appended to symbol tables.",
	})

	// WriteErrors counts per-record storage failures that were skipped.
	WriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cmclogger_record_write_errors_total",
		Help: "Per-record storage failures.",
	})

	// SecondsToNextCall is the current scheduling delay.
	SecondsToNextCall = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cmclogger_seconds_to_next_call",
		Help: "Seconds until the next scheduled API call.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
