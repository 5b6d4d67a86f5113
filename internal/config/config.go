// Package config provides configuration types for the cryptoproxy client
// runtime: where the server lives, how big a single wire message is
// allowed to get before the engine starts chunking, and whether call
// tracing is on.
package config

import (
	"log/slog"
	"strings"
)

// ClientConfig is the top-level configuration for one Engine instance.
type ClientConfig struct {
	// Endpoint names the Transport's connection target. "unix:///path"
	// dials a UNIX domain socket; anything else is treated as a TCP
	// host:port, which exists mainly for tests that want a loopback
	// listener instead of a filesystem path.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required,endpointaddr"`

	// MaxRequestSize bounds a single wire message.
	// Defaults to wire.DefaultMaxRequestSize if zero.
	MaxRequestSize int `yaml:"max_request_size" mapstructure:"max_request_size" validate:"omitempty,min=256"`

	// MaxProxiesPerMsg bounds the NewIDs vector of a single factory
	// request. Defaults to wire.DefaultMaxProxiesPerMsg
	// if zero.
	MaxProxiesPerMsg int `yaml:"max_proxies_per_msg" mapstructure:"max_proxies_per_msg" validate:"omitempty,min=1"`

	// LogLevel sets the minimum level for the client's slog logger.
	// Valid values: "debug", "info", "warn" (or "warning"), "error".
	// Defaults to "info".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Tracing configures OpenTelemetry span emission around every
	// Invocation Engine call.
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// TracingConfig toggles span emission. There is deliberately no exporter
// endpoint field here: the shipped exporter writes spans to stdout (see
// internal/telemetry), matching a library that has no opinion about
// where a host application ships its traces.
type TracingConfig struct {
	// Enabled turns span emission on or off. Default: false.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// SetDefaults fills zero-valued optional fields with their defaults.
// Mirrors the pattern of applying defaults before validation; the size
// defaults are local copies of the wire package's constants (see below).
func (c *ClientConfig) SetDefaults() {
	if c.MaxRequestSize == 0 {
		c.MaxRequestSize = defaultMaxRequestSize
	}
	if c.MaxProxiesPerMsg == 0 {
		c.MaxProxiesPerMsg = defaultMaxProxiesPerMsg
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// SlogLevel maps LogLevel onto its slog.Level. Unrecognized values fall
// back to Info, matching SetDefaults.
func (c *ClientConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DialTarget splits Endpoint into the (network, address) pair net.Dial
// takes: "unix:///path" becomes ("unix", "/path"), anything else is a TCP
// host:port.
func (c *ClientConfig) DialTarget() (network, address string) {
	if path, ok := strings.CutPrefix(c.Endpoint, "unix://"); ok {
		return "unix", path
	}
	return "tcp", c.Endpoint
}

// These mirror wire.DefaultMaxRequestSize/DefaultMaxProxiesPerMsg without
// importing the wire package, keeping config free of a dependency on the
// wire format it is merely sizing.
const (
	defaultMaxRequestSize   = 64 * 1024
	defaultMaxProxiesPerMsg = 64
)
