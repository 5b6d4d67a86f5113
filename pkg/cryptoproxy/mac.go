package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// Mac is a remote message-authentication-code context.
type Mac struct{ core *handle.Core }

// NewMac creates a MAC context under provider p, keyed by key.
func (c *Client) NewMac(ctx context.Context, p *Provider, algorithm uint32, key *Key) (*Mac, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindMac, wire.TaskMacCreate, p.ProxyID(),
		[]wire.Value{wire.Uint32Value(algorithm), wire.ProxyIDValue(key.ProxyID())},
		append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &Mac{core: core}, nil
}

func (m *Mac) ProxyID() wire.ProxyID { return m.core.ID() }

func (m *Mac) Start(ctx context.Context) error {
	resp, err := m.core.Call(ctx, wire.TaskMacStart, nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Update feeds data into the running MAC. Oversized input is chunked
// transparently.
func (m *Mac) Update(ctx context.Context, data []byte) error {
	resp, err := m.core.CallStreaming(ctx, wire.TaskMacUpdate, nil, data, nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Finish writes the computed tag into out and returns the number of
// bytes written.
func (m *Mac) Finish(ctx context.Context, out []byte) (int, error) {
	resp, err := m.core.Call(ctx, wire.TaskMacFinish, []wire.Value{wire.BytesValue(out)})
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return copy(out, resp.Values[0].Bytes), nil
}

func (m *Mac) Release() { m.core.Release() }
