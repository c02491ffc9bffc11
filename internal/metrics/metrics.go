// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Enrichment
	EnrichmentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kingsroom_enrichment_requests_total",
			Help: "Enrichment invocations by mode (preview|commit) and outcome",
		},
		[]string{"mode", "outcome"},
	)

	EnrichmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kingsroom_enrichment_duration_seconds",
			Help:    "Wall time of one enrichment",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	ResolverOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kingsroom_enrichment_resolver_outcomes_total",
			Help: "Resolver results by resolver and status",
		},
		[]string{"resolver", "status"},
	)

	EnrichmentWritesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kingsroom_enrichment_writes_skipped_total",
			Help: "Commits skipped because the content hash was unchanged",
		},
	)

	TemplateTies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kingsroom_enrichment_template_ties_total",
			Help: "Recurring matches decided by template id ordering",
		},
	)

	// Store
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kingsroom_store_operations_total",
			Help: "Document-store operations by operation, table and result",
		},
		[]string{"operation", "table", "result"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kingsroom_store_operation_duration_seconds",
			Help:    "Document-store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Change stream
	ChangeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kingsroom_change_events_total",
			Help: "Change events by table, event name and decision",
		},
		[]string{"table", "event", "decision"},
	)

	VenueMetricsRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kingsroom_venue_metrics_recomputes_total",
			Help: "Venue aggregate updates by mode (full|incremental)",
		},
		[]string{"mode"},
	)

	// Bulk maintenance
	BulkBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kingsroom_bulk_batches_total",
			Help: "Bulk maintenance batches by job and result",
		},
		[]string{"job", "result"},
	)

	BulkItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kingsroom_bulk_items_total",
			Help: "Items processed by bulk maintenance jobs",
		},
		[]string{"job"},
	)

	BulkRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kingsroom_bulk_retries_total",
			Help: "Backoff retries taken by bulk jobs",
		},
		[]string{"job"},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kingsroom_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kingsroom_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kingsroom_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		},
		[]string{"name", "result"},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kingsroom_http_requests_total",
			Help: "API requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kingsroom_http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kingsroom_http_active_requests",
			Help: "API requests currently in flight",
		},
	)
)

// RecordEnrichment records one enrichment.
func RecordEnrichment(mode, outcome string, d time.Duration) {
	EnrichmentRequests.WithLabelValues(mode, outcome).Inc()
	EnrichmentDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// RecordResolverOutcome counts one resolver decision.
func RecordResolverOutcome(resolver, status string) {
	ResolverOutcomes.WithLabelValues(resolver, status).Inc()
}

// RecordWriteSkipped counts a commit suppressed by the content hash.
func RecordWriteSkipped() {
	EnrichmentWritesSkipped.Inc()
}

// RecordTemplateTie counts a recurring match decided by id ordering.
func RecordTemplateTie() {
	TemplateTies.Inc()
}

// RecordStoreOperation records one store call. Nil errors count as "ok".
func RecordStoreOperation(op, table string, err error, d time.Duration) {
	StoreOperations.WithLabelValues(op, table, resultLabel(err)).Inc()
	StoreOperationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordChangeEvent counts a change-stream decision (accepted, dropped, invalid).
func RecordChangeEvent(table, event, decision string) {
	ChangeEvents.WithLabelValues(table, event, decision).Inc()
}

// RecordVenueMetricsRecompute counts an aggregator run.
func RecordVenueMetricsRecompute(mode string) {
	VenueMetricsRecomputes.WithLabelValues(mode).Inc()
}

// RecordBulkBatch records one bulk batch of n items.
func RecordBulkBatch(job string, n int, err error) {
	BulkBatches.WithLabelValues(job, resultLabel(err)).Inc()
	if err == nil {
		BulkItems.WithLabelValues(job).Add(float64(n))
	}
}

// RecordBulkRetry counts a backoff retry.
func RecordBulkRetry(job string) {
	BulkRetries.WithLabelValues(job).Inc()
}

// RecordHTTPRequest records one API request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(start bool) {
	if start {
		HTTPActiveRequests.Inc()
		return
	}
	HTTPActiveRequests.Dec()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return "timeout"
	}
	return "error"
}
