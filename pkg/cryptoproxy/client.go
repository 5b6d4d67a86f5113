package cryptoproxy

import (
	"context"
	"log/slog"
	"net"
	"os"

	"github.com/cryptoproxy-io/cryptoproxy/internal/config"
	"github.com/cryptoproxy-io/cryptoproxy/internal/engine"
	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/registry"
	"github.com/cryptoproxy-io/cryptoproxy/internal/telemetry"
	"github.com/cryptoproxy-io/cryptoproxy/internal/transport"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// Client is the entry point into the cryptography service: one Client
// owns one Transport/Engine pair, its own Identity Registry for the ids
// it hands out, and the Provider Registry that lets repeated
// lookups of the same provider UID share a handle.
type Client struct {
	eng   *engine.Engine
	ids   *registry.IdentityRegistry
	provs *registry.ProviderRegistry[Provider]
	sink  *handle.AsyncDestroySink
	tr    *transport.Conn

	// stopTracing is non-nil only for DialConfig clients that own their
	// tracer provider's lifecycle.
	stopTracing func() error
}

// Option configures a Client at construction.
type Option func(*clientConfig)

type clientConfig struct {
	logger           *slog.Logger
	metrics          engine.Metrics
	tracer           engine.Tracer
	maxRequestSize   int
	maxProxiesPerMsg int
	destroyQueueSize int
}

func WithLogger(l *slog.Logger) Option  { return func(c *clientConfig) { c.logger = l } }
func WithMetrics(m engine.Metrics) Option { return func(c *clientConfig) { c.metrics = m } }
func WithTracer(t engine.Tracer) Option { return func(c *clientConfig) { c.tracer = t } }

func WithMaxRequestSize(n int) Option {
	return func(c *clientConfig) { c.maxRequestSize = n }
}

func WithMaxProxiesPerMsg(n int) Option {
	return func(c *clientConfig) { c.maxProxiesPerMsg = n }
}

// WithDestroyQueueSize sizes the best-effort destroy queue. Defaults to
// 256.
func WithDestroyQueueSize(n int) Option {
	return func(c *clientConfig) { c.destroyQueueSize = n }
}

// Dial opens a net.Conn to endpoint and wraps it as a Client. network and
// endpoint are passed to net.Dial unchanged (e.g. "unix" with a socket
// path, or "tcp" with "host:port"); DialConfig is the entry point that
// accepts the "unix://<path>" form of internal/config.ClientConfig.Endpoint.
func Dial(network, endpoint string, opts ...Option) (*Client, error) {
	conn, err := net.Dial(network, endpoint)
	if err != nil {
		return nil, err
	}
	return New(conn, opts...), nil
}

// DialConfig dials the endpoint named by cfg and applies its size limits
// and log level. Options given here layer on top of what cfg sets, so a
// host can load a validated ClientConfig (internal/config) and still
// inject its own metrics registry or tracer.
func DialConfig(cfg *config.ClientConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	network, address := cfg.DialTarget()
	merged := []Option{
		WithLogger(logger),
		WithMaxRequestSize(cfg.MaxRequestSize),
		WithMaxProxiesPerMsg(cfg.MaxProxiesPerMsg),
	}

	var stopTracing func() error
	if cfg.Tracing.Enabled {
		tp, err := telemetry.NewStdoutTracerProvider()
		if err != nil {
			return nil, err
		}
		stopTracing = func() error { return tp.Shutdown(context.Background()) }
		merged = append(merged, WithTracer(telemetry.NewTracer(tp)))
	}

	merged = append(merged, opts...)
	c, err := Dial(network, address, merged...)
	if err != nil {
		if stopTracing != nil {
			_ = stopTracing()
		}
		return nil, err
	}
	c.stopTracing = stopTracing
	return c, nil
}

// New wraps an already-established net.Conn as a Client: the host
// application supplies whichever connection it already dialed, and New
// never dials anything itself when called this way.
func New(conn net.Conn, opts ...Option) *Client {
	cfg := clientConfig{
		logger:           slog.Default(),
		maxRequestSize:   wire.DefaultMaxRequestSize,
		maxProxiesPerMsg: wire.DefaultMaxProxiesPerMsg,
		destroyQueueSize: 256,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	tr := transport.NewConn(conn, cfg.maxRequestSize)
	engOpts := []engine.Option{
		engine.WithLogger(cfg.logger),
		engine.WithMaxRequestSize(cfg.maxRequestSize),
		engine.WithMaxProxiesPerMsg(cfg.maxProxiesPerMsg),
	}
	if cfg.metrics != nil {
		engOpts = append(engOpts, engine.WithMetrics(cfg.metrics))
	}
	if cfg.tracer != nil {
		engOpts = append(engOpts, engine.WithTracer(cfg.tracer))
	}
	eng := engine.New(tr, engOpts...)

	c := &Client{
		eng:   eng,
		ids:   registry.NewIdentityRegistry(),
		provs: registry.NewProviderRegistry[Provider](),
		tr:    tr,
	}
	c.sink = handle.NewAsyncDestroySink(eng, cfg.destroyQueueSize)
	return c
}

// MaxProxiesPerMsg reports the configured vector-of-handles bound, used
// by certificate-chain style factories.
func (c *Client) MaxProxiesPerMsg() int { return c.eng.MaxProxiesPerMsg() }

func (c *Client) coreOpts() []handle.Option {
	return []handle.Option{handle.WithDestroySink(c.sink)}
}

// Close tears the session down: it stops the destroy-sink worker (which
// first sends the destroy messages already queued) and then marks the
// Transport gone, so handle drops after this degrade to a silent no-op
// rather than sending a destroy message the server has no socket left to
// receive.
func (c *Client) Close() error {
	c.sink.Close()
	err := c.tr.Close()
	if c.stopTracing != nil {
		if terr := c.stopTracing(); err == nil {
			err = terr
		}
	}
	return err
}
