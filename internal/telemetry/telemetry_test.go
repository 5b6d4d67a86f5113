package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

func TestMetricsObserveInvocationCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveInvocation(wire.TaskHashUpdate, nil)
	m.ObserveInvocation(wire.TaskHashUpdate, nil)
	m.ObserveInvocation(wire.TaskCipherCreate, &wire.DomainError{
		Task: wire.TaskCipherCreate,
		Kind: wire.ErrorKindUnknownIdentifier,
	})

	var counter dto.Metric
	if err := m.InvocationsTotal.WithLabelValues("5", "ok").Write(&counter); err != nil {
		t.Fatal(err)
	}
	if counter.Counter.GetValue() != 2 {
		t.Errorf("ok invocations = %f, want 2", counter.Counter.GetValue())
	}

	if err := m.DomainErrorsTotal.WithLabelValues("9", "UnknownIdentifier").Write(&counter); err != nil {
		t.Fatal(err)
	}
	if counter.Counter.GetValue() != 1 {
		t.Errorf("UnknownIdentifier errors = %f, want 1", counter.Counter.GetValue())
	}
}

func TestMetricsObserveChunkedCallIgnoresUnchunked(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveChunkedCall(wire.TaskHashUpdate, 1) // fit in one request, not a chunked call
	m.ObserveChunkedCall(wire.TaskHashUpdate, 4)

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "cryptoproxy_chunked_calls_total":
			if mf.GetMetric()[0].GetCounter().GetValue() != 1 {
				t.Errorf("chunked calls = %f, want 1", mf.GetMetric()[0].GetCounter().GetValue())
			}
			found = true
		case "cryptoproxy_chunks_per_call":
			if mf.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
				t.Errorf("histogram observations = %d, want 1", mf.GetMetric()[0].GetHistogram().GetSampleCount())
			}
		}
	}
	if !found {
		t.Error("cryptoproxy_chunked_calls_total was never registered")
	}
}

func TestTracerRecordsDomainErrorKind(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Fatal(err)
		}
	}()

	tr := NewTracer(tp)

	_, end := tr.StartInvocation(context.Background(), wire.TaskCipherCreate)
	end(&wire.DomainError{Task: wire.TaskCipherCreate, Kind: wire.ErrorKindUnsupported})

	_, end = tr.StartInvocation(context.Background(), wire.TaskHashUpdate)
	end(nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}

	errored := spans[0]
	if errored.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", errored.Status().Code)
	}
	var kindSeen bool
	for _, attr := range errored.Attributes() {
		if string(attr.Key) == "cryptoproxy.error_kind" && attr.Value.AsString() == "Unsupported" {
			kindSeen = true
		}
	}
	if !kindSeen {
		t.Error("span is missing the cryptoproxy.error_kind attribute")
	}

	if spans[1].Status().Code != codes.Ok {
		t.Errorf("successful call status = %v, want Ok", spans[1].Status().Code)
	}
}
