package engine

import (
	"context"
	"fmt"

	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// InvokeStreaming runs a call whose argument list carries exactly one
// byte-region argument (an Update-style call over caller-supplied data).
// When the full request fits under MaxRequestSize it is a single Invoke;
// otherwise region is split into successive slices, each reissued as its
// own request against the same task and caller, so neither end of the
// wire ever has to buffer a message larger than the configured limit.
//
// region is sliced starting at regionIndex within args; before/after hold
// the arguments that surround it in the wire tuple (e.g. a Hash Update
// call has no trailing arguments, so after is empty, while a Cipher Update
// carries its out buffer in after).
func (e *Engine) InvokeStreaming(
	ctx context.Context,
	task wire.TaskID,
	caller wire.ProxyID,
	before []wire.Value,
	region []byte,
	after []wire.Value,
) (*wire.Response, error) {
	regionIndex := len(before)
	build := func(slice []byte) *wire.Request {
		args := make([]wire.Value, 0, len(before)+1+len(after))
		args = append(args, before...)
		args = append(args, wire.BytesValue(slice))
		args = append(args, after...)
		return &wire.Request{Task: task, CallerProxyID: caller, Args: args}
	}

	full := build(region)
	if wire.PredictRequestSize(full) <= e.maxRequestSize {
		return e.Invoke(ctx, full)
	}

	overhead := wire.ChunkOverhead(full, regionIndex)
	sliceSize := e.maxRequestSize - overhead
	if sliceSize <= 0 {
		return nil, e.fatal(ctx, "chunk-size",
			fmt.Errorf("fixed overhead %d already exceeds max request size %d", overhead, e.maxRequestSize))
	}

	var resp *wire.Response
	chunks := 0
	for offset := 0; offset < len(region); offset += sliceSize {
		end := offset + sliceSize
		if end > len(region) {
			end = len(region)
		}
		r, err := e.Invoke(ctx, build(region[offset:end]))
		chunks++
		if err != nil {
			return nil, err
		}
		if err := r.Err(); err != nil {
			return r, nil
		}
		resp = r
	}
	// An empty region still issues one request (with a zero-length chunk)
	// so Start/Update/Finish-style calls that permit a zero-length update
	// behave the same whether or not chunking was needed.
	if len(region) == 0 {
		r, err := e.Invoke(ctx, build(nil))
		chunks++
		if err != nil {
			return nil, err
		}
		resp = r
	}

	if e.metrics != nil {
		e.metrics.ObserveChunkedCall(task, chunks)
	}
	return resp, nil
}
