package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// Cipher is a remote symmetric cipher context. encrypt selects encrypt
// vs. decrypt direction at creation,
// matching how the server's skeleton is instantiated once for the whole
// Start/Update/Finish cycle.
type Cipher struct{ core *handle.Core }

// NewCipher creates a cipher context under provider p, bound to key and
// an initialization vector, running in the given algorithm/direction.
func (c *Client) NewCipher(ctx context.Context, p *Provider, algorithm uint32, key *Key, iv []byte, encrypt bool) (*Cipher, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindCipher, wire.TaskCipherCreate, p.ProxyID(),
		[]wire.Value{
			wire.Uint32Value(algorithm),
			wire.ProxyIDValue(key.ProxyID()),
			wire.BytesValue(iv),
			wire.BoolValue(encrypt),
		},
		append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &Cipher{core: core}, nil
}

// ProxyID is this handle's server-side identity.
func (ci *Cipher) ProxyID() wire.ProxyID { return ci.core.ID() }

// Start resets the running cipher state, ready for Update.
func (ci *Cipher) Start(ctx context.Context) error {
	resp, err := ci.core.Call(ctx, wire.TaskCipherStart, nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Update processes in, writing the transformed bytes into out, and
// returns the number of bytes written. Oversized in is chunked
// transparently; out is sized to the last chunk's result,
// matching the "last result wins" rule for idempotent Update-style calls.
func (ci *Cipher) Update(ctx context.Context, out, in []byte) (int, error) {
	resp, err := ci.core.CallStreaming(ctx, wire.TaskCipherUpdate, nil, in, []wire.Value{wire.BytesValue(out)})
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	if len(resp.Values) == 0 {
		return 0, nil
	}
	return copy(out, resp.Values[len(resp.Values)-1].Bytes), nil
}

// Finish flushes any buffered block-cipher padding into out and returns
// the number of bytes written.
func (ci *Cipher) Finish(ctx context.Context, out []byte) (int, error) {
	resp, err := ci.core.Call(ctx, wire.TaskCipherFinish, []wire.Value{wire.BytesValue(out)})
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return copy(out, resp.Values[0].Bytes), nil
}

// Reset returns the context to its freshly-created state.
func (ci *Cipher) Reset(ctx context.Context) error {
	resp, err := ci.core.Call(ctx, wire.TaskCipherReset, nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Release sends this handle's destroy message.
func (ci *Cipher) Release() { ci.core.Release() }
