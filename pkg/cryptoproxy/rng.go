package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// RNG is a remote random-number generator context.
type RNG struct{ core *handle.Core }

func (c *Client) NewRNG(ctx context.Context, p *Provider, algorithm uint32) (*RNG, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindRNG, wire.TaskRNGCreate, p.ProxyID(),
		[]wire.Value{wire.Uint32Value(algorithm)}, append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &RNG{core: core}, nil
}

func (r *RNG) ProxyID() wire.ProxyID { return r.core.ID() }

// Generate fills out with random bytes and returns the number written.
func (r *RNG) Generate(ctx context.Context, out []byte) (int, error) {
	resp, err := r.core.Call(ctx, wire.TaskRNGGenerate, []wire.Value{wire.BytesValue(out)})
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return copy(out, resp.Values[0].Bytes), nil
}

func (r *RNG) Release() { r.core.Release() }
