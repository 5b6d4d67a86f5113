package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// TrustedContainer is a remote secure-storage handle for key material --
// a PKCS#11-token-like object the server persists outside the client's
// address space entirely.
type TrustedContainer struct{ core *handle.Core }

func (c *Client) NewTrustedContainer(ctx context.Context, p *Provider, algorithm uint32) (*TrustedContainer, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindTrustedContainer, wire.TaskTrustedContainerCreate, p.ProxyID(),
		[]wire.Value{wire.Uint32Value(algorithm)}, append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &TrustedContainer{core: core}, nil
}

func (t *TrustedContainer) ProxyID() wire.ProxyID { return t.core.ID() }

// Store writes key into this container under label. The server is the
// sole holder of the material from this point forward.
func (t *TrustedContainer) Store(ctx context.Context, label string, key *Key) error {
	resp, err := t.core.Call(ctx, wire.TaskTrustedContainerStore,
		[]wire.Value{wire.BytesValue([]byte(label)), wire.ProxyIDValue(key.ProxyID())})
	if err != nil {
		return err
	}
	return resp.Err()
}

// Load retrieves the key previously stored under label as a fresh Key
// handle owned by p.
func (c *Client) Load(ctx context.Context, t *TrustedContainer, p *Provider, label string) (*Key, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindKey, wire.TaskTrustedContainerLoad, t.ProxyID(),
		[]wire.Value{wire.BytesValue([]byte(label))}, append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &Key{core: core, prov: p}, nil
}

func (t *TrustedContainer) Release() { t.core.Release() }
