package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// X509Name is a remote X.509 distinguished-name handle.
type X509Name struct{ core *handle.Core }

// NewX509Name decodes a DER-encoded Name under provider p.
func (c *Client) NewX509Name(ctx context.Context, p *Provider, der []byte) (*X509Name, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindX509Name, wire.TaskX509NameCreate, p.ProxyID(),
		[]wire.Value{wire.BytesValue(der)}, append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &X509Name{core: core}, nil
}

func (n *X509Name) ProxyID() wire.ProxyID { return n.core.ID() }

// Encode re-renders this name as DER into out, returning the number of
// bytes written.
func (n *X509Name) Encode(ctx context.Context, out []byte) (int, error) {
	resp, err := n.core.Call(ctx, wire.TaskX509NameEncode, []wire.Value{wire.BytesValue(out)})
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return copy(out, resp.Values[0].Bytes), nil
}

func (n *X509Name) Release() { n.core.Release() }

// CSR is a remote certificate-signing-request builder.
type CSR struct{ core *handle.Core }

// NewCSR creates a CSR builder under provider p, bound to subject and the
// key it will be signed with.
func (c *Client) NewCSR(ctx context.Context, p *Provider, subject *X509Name, key *Key) (*CSR, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindCSR, wire.TaskCSRCreate, p.ProxyID(),
		[]wire.Value{wire.ProxyIDValue(subject.ProxyID()), wire.ProxyIDValue(key.ProxyID())},
		append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &CSR{core: core}, nil
}

func (r *CSR) ProxyID() wire.ProxyID { return r.core.ID() }

// Build signs and DER-encodes the request into out, returning the number
// of bytes written.
func (r *CSR) Build(ctx context.Context, out []byte) (int, error) {
	resp, err := r.core.Call(ctx, wire.TaskCSRBuild, []wire.Value{wire.BytesValue(out)})
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return copy(out, resp.Values[0].Bytes), nil
}

func (r *CSR) Release() { r.core.Release() }
