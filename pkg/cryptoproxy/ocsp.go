package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// OCSPResponse is a remote decoded OCSP response handle, consumed by
// Certificate.CheckStatus and Client.CheckChainStatus.
type OCSPResponse struct{ core *handle.Core }

// NewOCSPResponse decodes a DER-encoded OCSP response under provider p.
func (c *Client) NewOCSPResponse(ctx context.Context, p *Provider, der []byte) (*OCSPResponse, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindOCSPResponse, wire.TaskOCSPResponseCreate, p.ProxyID(),
		[]wire.Value{wire.BytesValue(der)}, append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &OCSPResponse{core: core}, nil
}

func (o *OCSPResponse) ProxyID() wire.ProxyID { return o.core.ID() }

func (o *OCSPResponse) Release() { o.core.Release() }
