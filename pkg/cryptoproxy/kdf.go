package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// KDF derives key material from an input Key plus algorithm-specific
// salt/info.
type KDF struct{ core *handle.Core }

func (c *Client) NewKDF(ctx context.Context, p *Provider, algorithm uint32, input *Key) (*KDF, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindKDF, wire.TaskKDFCreate, p.ProxyID(),
		[]wire.Value{wire.Uint32Value(algorithm), wire.ProxyIDValue(input.ProxyID())},
		append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &KDF{core: core}, nil
}

func (k *KDF) ProxyID() wire.ProxyID { return k.core.ID() }

// Derive runs kdf over salt/info and imports the resulting bytes as a new
// Key under provider p (the derived key is a fresh factory result, not an
// in-place mutation of kdf itself).
func (c *Client) Derive(ctx context.Context, kdf *KDF, p *Provider, salt, info []byte, outLen uint32) (*Key, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindKey, wire.TaskKDFDerive, kdf.ProxyID(),
		[]wire.Value{wire.BytesValue(salt), wire.BytesValue(info), wire.Uint32Value(outLen)},
		append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &Key{core: core, prov: p}, nil
}

func (k *KDF) Release() { k.core.Release() }
