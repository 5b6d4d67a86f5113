package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// Hash is a remote digest context. Algorithm identifies which digest
// the server instantiates; it is opaque to the client beyond being
// echoed in the creation call.
type Hash struct{ core *handle.Core }

// NewHash creates a hash context under provider p for the given
// algorithm id.
func (c *Client) NewHash(ctx context.Context, p *Provider, algorithm uint32) (*Hash, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindHash, wire.TaskHashCreate, p.ProxyID(),
		[]wire.Value{wire.Uint32Value(algorithm)}, append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &Hash{core: core}, nil
}

// ProxyID is this handle's server-side identity.
func (h *Hash) ProxyID() wire.ProxyID { return h.core.ID() }

// Start resets the running digest state, ready for Update.
func (h *Hash) Start(ctx context.Context) error {
	resp, err := h.core.Call(ctx, wire.TaskHashStart, nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Update feeds data into the running digest. Larger-than-MaxRequestSize
// inputs are transparently chunked; Update is idempotent
// under that slicing because the server only ever appends.
func (h *Hash) Update(ctx context.Context, data []byte) error {
	resp, err := h.core.CallStreaming(ctx, wire.TaskHashUpdate, nil, data, nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Finish closes the digest to further Update calls; GetDigest may be
// called any number of times afterward.
func (h *Hash) Finish(ctx context.Context) error {
	resp, err := h.core.Call(ctx, wire.TaskHashFinish, nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// GetDigest writes the finished digest, starting at byte offset of the
// digest, into out from its first byte and returns the number of bytes
// written.
func (h *Hash) GetDigest(ctx context.Context, out []byte, offset uint32) (int, error) {
	resp, err := h.core.Call(ctx, wire.TaskHashGetDigest,
		[]wire.Value{wire.BytesValue(out), wire.Uint32Value(offset)})
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	n := copy(out, resp.Values[0].Bytes)
	return n, nil
}

// Reset returns the context to its freshly-created state, ready for a new
// Start/Update/Finish cycle.
func (h *Hash) Reset(ctx context.Context) error {
	resp, err := h.core.Call(ctx, wire.TaskHashReset, nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Release sends this handle's destroy message. Safe to call
// multiple times; safe to omit (the GC backstop covers it).
func (h *Hash) Release() { h.core.Release() }
