// Package metrics holds the Prometheus collectors of the entry pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntriesTotal counts entry creation attempts by input form and outcome
	EntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_entries_total",
			Help: "Total number of ledger entry creation attempts",
		},
		[]string{"input", "status"},
	)

	// PipelineDuration tracks how long building one entry takes
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_pipeline_duration_seconds",
			Help:    "Entry pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"input"},
	)

	// MappingResultsTotal counts account mappings by resolving stage
	MappingResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_account_mappings_total",
			Help: "Total number of account mappings by source",
		},
		[]string{"source"},
	)

	// DegradationsTotal counts soft failures that fell back to a weaker stage
	DegradationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_degradations_total",
			Help: "Total number of AI or LLM stages that failed and fell back",
		},
		[]string{"component", "strategy"},
	)

	// HTTPRequestsTotal tracks API requests by route and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	// HTTPRequestDuration tracks API request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// Component labels for DegradationsTotal.
const (
	ComponentMapper    = "mapper"
	ComponentSegmenter = "segmenter"
)

// ObserveEntry records one pipeline run.
func ObserveEntry(input string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EntriesTotal.WithLabelValues(input, status).Inc()
	PipelineDuration.WithLabelValues(input).Observe(time.Since(start).Seconds())
}

// Degraded records a soft failure in component.
func Degraded(component, strategy string) {
	DegradationsTotal.WithLabelValues(component, strategy).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and durations labelled by the chi route
// pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
