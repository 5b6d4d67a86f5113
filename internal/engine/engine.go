// Package engine implements the invocation engine: the one place a
// request is built into wire bytes, exchanged over the Transport, and
// decoded back. Handle lifecycle and the typed client surface are
// layered on top in other packages; this package knows nothing about
// handles, only about Request/Response plumbing.
package engine

import (
	"context"
	"log/slog"

	"github.com/cryptoproxy-io/cryptoproxy/internal/transport"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// Metrics is the instrumentation surface the engine drives. internal/
// telemetry supplies the Prometheus-backed implementation; tests can pass
// nil (Engine no-ops every call) or a fake.
type Metrics interface {
	ObserveInvocation(task wire.TaskID, err error)
	ObserveChunkedCall(task wire.TaskID, chunks int)
}

// Tracer starts a span around one Invoke call. internal/telemetry supplies
// the OpenTelemetry-backed implementation.
type Tracer interface {
	StartInvocation(ctx context.Context, task wire.TaskID) (context.Context, func(err error))
}

// Engine drives one Transport on behalf of every handle in the process.
// Each call runs the same sequence: build request, lock transport,
// serialize into the send buffer, exchange, decode, unlock.
type Engine struct {
	transport transport.Transport
	logger    *slog.Logger
	metrics   Metrics
	tracer    Tracer
	abort     AbortFunc

	maxRequestSize   int
	maxProxiesPerMsg int
}

// Option configures an Engine at construction.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }
func WithMetrics(m Metrics) Option     { return func(e *Engine) { e.metrics = m } }
func WithTracer(t Tracer) Option       { return func(e *Engine) { e.tracer = t } }
func WithAbortFunc(f AbortFunc) Option { return func(e *Engine) { e.abort = f } }

func WithMaxRequestSize(n int) Option { return func(e *Engine) { e.maxRequestSize = n } }
func WithMaxProxiesPerMsg(n int) Option {
	return func(e *Engine) { e.maxProxiesPerMsg = n }
}

// New builds an Engine over tr. Defaults: 64KiB requests, 64 proposed
// ids per message, slog.Default() logging, and an AbortFunc that logs
// and exits the process.
func New(tr transport.Transport, opts ...Option) *Engine {
	e := &Engine{
		transport:        tr,
		logger:           slog.Default(),
		maxRequestSize:   wire.DefaultMaxRequestSize,
		maxProxiesPerMsg: wire.DefaultMaxProxiesPerMsg,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.abort == nil {
		e.abort = defaultAbort(e.logger)
	}
	return e
}

func (e *Engine) MaxRequestSize() int   { return e.maxRequestSize }
func (e *Engine) MaxProxiesPerMsg() int { return e.maxProxiesPerMsg }

// TransportClosed reports whether the underlying Transport has already
// been torn down. Handle drop consults this before sending a destroy
// message: once the transport is gone there
// is nothing to notify and no fault to raise.
func (e *Engine) TransportClosed() bool { return e.transport.Closed() }

// Invoke runs one request-response exchange: lock, encode, send, decode,
// unlock. The returned error is non-nil only for a framing fault (which
// has already gone through the Engine's AbortFunc by the time Invoke
// returns); a domain-level failure is reported on resp.Err() instead, with
// a nil error here, since it is not a reason to tear anything down.
func (e *Engine) Invoke(ctx context.Context, req *wire.Request) (resp *wire.Response, err error) {
	if e.tracer != nil {
		var end func(error)
		ctx, end = e.tracer.StartInvocation(ctx, req.Task)
		defer func() {
			if err == nil && resp != nil {
				end(resp.Err()) // domain errors reach the span, not the logs
				return
			}
			end(err)
		}()
	}

	e.transport.Lock()
	defer e.transport.Unlock()

	data, err := wire.EncodeRequestInto(e.transport.SendBuffer(), req)
	if err != nil {
		// Malformed request construction is a programmer error, not a wire
		// desync, but it leaves the caller in the same bind: there is no
		// well-formed message to send. Route it through the same fatal path.
		return nil, e.fatal(ctx, "encode", err)
	}

	raw, err := e.transport.SendAndReceive(data)
	if err != nil {
		fault := e.fatal(ctx, "send-and-receive", err)
		e.observe(req.Task, fault)
		return nil, fault
	}

	var decodeErr error
	resp, decodeErr = wire.DecodeResponse(raw)
	if decodeErr != nil {
		err = decodeErr
		fault := e.fatal(ctx, "decode", err)
		e.observe(req.Task, fault)
		return nil, fault
	}

	e.observe(req.Task, resp.Err())
	return resp, nil
}

func (e *Engine) observe(task wire.TaskID, err error) {
	if e.metrics != nil {
		e.metrics.ObserveInvocation(task, err)
	}
}
