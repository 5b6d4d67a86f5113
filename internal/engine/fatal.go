package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// FramingFault marks a desynchronized wire: a partial write, a partial
// read, or a Response that failed to decode. Every one of these is
// unrecoverable -- the byte stream no longer lines up
// with message boundaries, so no later call on this Transport can be
// trusted either.
type FramingFault struct {
	Op  string
	Err error
}

func (f *FramingFault) Error() string { return fmt.Sprintf("framing fault during %s: %v", f.Op, f.Err) }
func (f *FramingFault) Unwrap() error { return f.Err }

// AbortFunc is the process-level reaction to a FramingFault. The default
// logs and exits -- there is no recovery path once the stream is
// desynchronized. Tests substitute a non-exiting AbortFunc via
// WithAbortFunc so they can assert the fault was raised without killing
// the test binary, the same trick logrus's ExitFunc uses.
type AbortFunc func(ctx context.Context, fault *FramingFault)

func defaultAbort(logger *slog.Logger) AbortFunc {
	return func(ctx context.Context, fault *FramingFault) {
		logger.ErrorContext(ctx, "fatal framing fault, aborting", "op", fault.Op, "err", fault.Err)
		os.Exit(1)
	}
}

func (e *Engine) fatal(ctx context.Context, op string, err error) *FramingFault {
	fault := &FramingFault{Op: op, Err: err}
	e.abort(ctx, fault)
	return fault
}
