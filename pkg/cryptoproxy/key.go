package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// Key is a remote key-material handle. Keys are created through a
// Provider and carry a non-owning back-reference to it; the provider
// outlives every key it produced by construction.
type Key struct {
	core *handle.Core
	prov *Provider
}

// ImportKey imports raw key material of the given algorithm under
// provider p. The server is the sole owner of the decoded bytes from this
// point on; Go's copy of raw is not retained.
func (c *Client) ImportKey(ctx context.Context, p *Provider, algorithm uint32, raw []byte) (*Key, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindKey, wire.TaskKeyImport, p.ProxyID(),
		[]wire.Value{wire.Uint32Value(algorithm), wire.BytesValue(raw)},
		append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &Key{core: core, prov: p}, nil
}

// ProxyID is this handle's server-side identity.
func (k *Key) ProxyID() wire.ProxyID { return k.core.ID() }

// Provider is the owning provider this key was imported/generated under.
func (k *Key) Provider() *Provider { return k.prov }

// Export returns the key material re-encoded by the server, writing into
// out and returning the number of bytes written.
func (k *Key) Export(ctx context.Context, out []byte) (int, error) {
	resp, err := k.core.Call(ctx, wire.TaskKeyExport, []wire.Value{wire.BytesValue(out)})
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return copy(out, resp.Values[0].Bytes), nil
}

// Release sends this handle's destroy message.
func (k *Key) Release() { k.core.Release() }
