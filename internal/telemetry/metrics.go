// Package telemetry wires the invocation engine's Metrics and Tracer
// hooks to Prometheus and OpenTelemetry.
package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// Metrics implements engine.Metrics over a set of Prometheus collectors.
type Metrics struct {
	InvocationsTotal  *prometheus.CounterVec
	DomainErrorsTotal *prometheus.CounterVec
	ChunkedCallsTotal prometheus.Counter
	ChunksPerCall     prometheus.Histogram
}

// NewMetrics creates and registers the client's metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		InvocationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cryptoproxy",
				Name:      "invocations_total",
				Help:      "Total Invocation Engine calls, by task and outcome",
			},
			[]string{"task", "outcome"}, // outcome=ok/domain_error
		),
		DomainErrorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cryptoproxy",
				Name:      "domain_errors_total",
				Help:      "Domain errors returned by the server, by task and kind",
			},
			[]string{"task", "kind"},
		),
		ChunkedCallsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "cryptoproxy",
				Name:      "chunked_calls_total",
				Help:      "Calls whose byte-region argument needed chunking",
			},
		),
		ChunksPerCall: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "cryptoproxy",
				Name:      "chunks_per_call",
				Help:      "Number of wire requests one chunked call was split into",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 8), // 1..128
			},
		),
	}
}

// ObserveInvocation implements engine.Metrics.
func (m *Metrics) ObserveInvocation(task wire.TaskID, err error) {
	taskLabel := strconv.FormatUint(uint64(task), 10)
	if err == nil {
		m.InvocationsTotal.WithLabelValues(taskLabel, "ok").Inc()
		return
	}
	m.InvocationsTotal.WithLabelValues(taskLabel, "domain_error").Inc()

	var domainErr *wire.DomainError
	kind := "unknown"
	if de, ok := err.(*wire.DomainError); ok {
		domainErr = de
		kind = domainErr.Kind.String()
	}
	m.DomainErrorsTotal.WithLabelValues(taskLabel, kind).Inc()
}

// ObserveChunkedCall implements engine.Metrics.
func (m *Metrics) ObserveChunkedCall(task wire.TaskID, chunks int) {
	if chunks <= 1 {
		return
	}
	m.ChunkedCallsTotal.Inc()
	m.ChunksPerCall.Observe(float64(chunks))
}
