package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// Signer produces signatures under a private Key.
type Signer struct{ core *handle.Core }

func (c *Client) NewSigner(ctx context.Context, p *Provider, algorithm uint32, key *Key) (*Signer, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindSigner, wire.TaskSignerCreate, p.ProxyID(),
		[]wire.Value{wire.Uint32Value(algorithm), wire.ProxyIDValue(key.ProxyID())},
		append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &Signer{core: core}, nil
}

func (s *Signer) ProxyID() wire.ProxyID { return s.core.ID() }

// Sign signs digest (a precomputed message digest, as X.509/PKCS
// signing APIs commonly take), writing the signature into out and
// returning the number of bytes written.
func (s *Signer) Sign(ctx context.Context, digest, out []byte) (int, error) {
	resp, err := s.core.Call(ctx, wire.TaskSignerSign, []wire.Value{wire.BytesValue(digest), wire.BytesValue(out)})
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return copy(out, resp.Values[0].Bytes), nil
}

func (s *Signer) Release() { s.core.Release() }

// Verifier checks signatures under a public Key.
type Verifier struct{ core *handle.Core }

func (c *Client) NewVerifier(ctx context.Context, p *Provider, algorithm uint32, key *Key) (*Verifier, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindVerifier, wire.TaskVerifierCreate, p.ProxyID(),
		[]wire.Value{wire.Uint32Value(algorithm), wire.ProxyIDValue(key.ProxyID())},
		append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &Verifier{core: core}, nil
}

func (v *Verifier) ProxyID() wire.ProxyID { return v.core.ID() }

// Verify reports whether sig is a valid signature of digest.
func (v *Verifier) Verify(ctx context.Context, digest, sig []byte) (bool, error) {
	resp, err := v.core.Call(ctx, wire.TaskVerifierVerify, []wire.Value{wire.BytesValue(digest), wire.BytesValue(sig)})
	if err != nil {
		return false, err
	}
	if err := resp.Err(); err != nil {
		return false, err
	}
	return resp.Values[0].AsBool(), nil
}

func (v *Verifier) Release() { v.core.Release() }
