package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// DomainParams is a remote algorithm-parameter set (e.g. an elliptic
// curve or DH group).
type DomainParams struct{ core *handle.Core }

func (c *Client) NewDomainParams(ctx context.Context, p *Provider, algorithm uint32) (*DomainParams, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindDomainParams, wire.TaskDomainParamsCreate, p.ProxyID(),
		[]wire.Value{wire.Uint32Value(algorithm)}, append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &DomainParams{core: core}, nil
}

func (d *DomainParams) ProxyID() wire.ProxyID { return d.core.ID() }

// Generate produces a fresh Key (a keypair or shared secret, depending on
// algorithm) under these domain parameters.
func (c *Client) Generate(ctx context.Context, dp *DomainParams, p *Provider) (*Key, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindKey, wire.TaskDomainParamsGenerate, dp.ProxyID(),
		nil, append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &Key{core: core, prov: p}, nil
}

func (d *DomainParams) Release() { d.core.Release() }
