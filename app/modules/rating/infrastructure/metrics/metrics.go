package ratingmetrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RatingMetrics records rating service telemetry.
type RatingMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)

	// RecordLedgerEntriesWritten counts inserted (positive) or deleted (negative) ledger rows.
	RecordLedgerEntriesWritten(ctx context.Context, operation string, n int64)
	// RecordRunningRatingsShifted counts later entries touched by propagation.
	RecordRunningRatingsShifted(ctx context.Context, operation string, n int64)
	RecordConsistencyFailure(ctx context.Context, operation string)
	RecordSharedTimestamp(ctx context.Context)
	RecordHTTPRequest(ctx context.Context, route, method string, status int, duration time.Duration)
}

type prometheusMetrics struct {
	attempts         *prometheus.CounterVec
	successes        *prometheus.CounterVec
	failures         *prometheus.CounterVec
	durations        *prometheus.HistogramVec
	entries          *prometheus.CounterVec
	shifted          *prometheus.CounterVec
	consistency      *prometheus.CounterVec
	sharedTimestamps prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDurations    *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the rating collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) (RatingMetrics, error) {
	if namespace == "" {
		namespace = "mahjong"
	}
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rating",
			Name:      "operation_attempts_total",
			Help:      "Rating service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rating",
			Name:      "operation_success_total",
			Help:      "Rating service operations that completed without an infrastructure error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rating",
			Name:      "operation_failures_total",
			Help:      "Rating service operations that returned an error or panicked.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rating",
			Name:      "operation_duration_seconds",
			Help:      "Duration of rating service operations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rating",
			Name:      "ledger_entries_total",
			Help:      "Ledger rows written, labelled by inserted or deleted.",
		}, []string{"operation", "direction"}),
		shifted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rating",
			Name:      "running_ratings_shifted_total",
			Help:      "Later ledger rows whose running rating was shifted by propagation.",
		}, []string{"operation"}),
		consistency: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rating",
			Name:      "consistency_failures_total",
			Help:      "Ledger internal consistency failures.",
		}, []string{"operation"}),
		sharedTimestamps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rating",
			Name:      "shared_timestamp_entries_total",
			Help:      "Ledger entries written at a timestamp the user already had an entry for.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed by the rating API.",
		}, []string{"route", "method", "status"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of rating API requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	for _, c := range []prometheus.Collector{
		m.attempts, m.successes, m.failures, m.durations, m.entries,
		m.shifted, m.consistency, m.sharedTimestamps, m.httpRequests, m.httpDurations,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordLedgerEntriesWritten(_ context.Context, operation string, n int64) {
	direction := "inserted"
	if n < 0 {
		direction, n = "deleted", -n
	}
	m.entries.WithLabelValues(operation, direction).Add(float64(n))
}

func (m *prometheusMetrics) RecordRunningRatingsShifted(_ context.Context, operation string, n int64) {
	m.shifted.WithLabelValues(operation).Add(float64(n))
}

func (m *prometheusMetrics) RecordConsistencyFailure(_ context.Context, operation string) {
	m.consistency.WithLabelValues(operation).Inc()
}

func (m *prometheusMetrics) RecordSharedTimestamp(context.Context) {
	m.sharedTimestamps.Inc()
}

func (m *prometheusMetrics) RecordHTTPRequest(_ context.Context, route, method string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDurations.WithLabelValues(route, method).Observe(duration.Seconds())
}
