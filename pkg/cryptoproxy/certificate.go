package cryptoproxy

import (
	"context"
	"sync/atomic"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// CertStatus is the X.509 verification verdict attached to a
// Certificate, mutated only by verification-category calls. The zero
// value is CertStatusUnknown, matching a freshly created Certificate
// that has never been through a verification call.
type CertStatus uint32

const (
	CertStatusUnknown CertStatus = iota
	CertStatusValid
	CertStatusInvalid
	CertStatusExpired
	CertStatusNoTrust
	CertStatusRevoked
	CertStatusIncompatible
)

func (s CertStatus) String() string {
	switch s {
	case CertStatusUnknown:
		return "Unknown"
	case CertStatusValid:
		return "Valid"
	case CertStatusInvalid:
		return "Invalid"
	case CertStatusExpired:
		return "Expired"
	case CertStatusNoTrust:
		return "NoTrust"
	case CertStatusRevoked:
		return "Revoked"
	case CertStatusIncompatible:
		return "Incompatible"
	default:
		return "Unknown"
	}
}

// Certificate is a proxy handle specialized with a cached Status field.
// Status is read with a plain atomic load so the read-only getter is
// safe to call from any goroutine, while every write goes through one of
// the verification-category methods below, which are the only calls that
// ever mutate it -- the client never infers a status on its own.
type Certificate struct {
	core   *handle.Core
	status atomic.Uint32
}

// NewCertificate decodes a DER-encoded certificate under provider p. Its
// Status starts Unknown.
func (c *Client) NewCertificate(ctx context.Context, p *Provider, der []byte) (*Certificate, error) {
	core, err := handle.Create(ctx, c.eng, c.ids, wire.KindCertificate, wire.TaskCertificateCreate, p.ProxyID(),
		[]wire.Value{wire.BytesValue(der)}, append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	return &Certificate{core: core}, nil
}

// ImportCertificateChain decodes a concatenated DER certificate bundle
// into one handle per certificate, root first. This is the
// vector-of-handles factory shape: the client proposes
// MaxProxiesPerMsg candidate ids up front, the server instantiates one
// skeleton per certificate it finds in der and reports the count, and
// only that many candidates become live handles -- the rest are dropped
// without ever arming the destroy protocol.
func (c *Client) ImportCertificateChain(ctx context.Context, p *Provider, der []byte) ([]*Certificate, error) {
	cores, err := handle.CreateMany(ctx, c.eng, c.ids, wire.KindCertificate, wire.TaskCertificateImportChain,
		p.ProxyID(), []wire.Value{wire.BytesValue(der)}, c.MaxProxiesPerMsg(),
		append(c.coreOpts(), handle.WithParent(p.core))...)
	if err != nil {
		return nil, err
	}
	chain := make([]*Certificate, len(cores))
	for i, core := range cores {
		chain[i] = &Certificate{core: core}
	}
	return chain, nil
}

func (cert *Certificate) ProxyID() wire.ProxyID { return cert.core.ID() }

// Status is the cached verification verdict. Safe to call
// concurrently with any other Certificate method.
func (cert *Certificate) Status() CertStatus { return CertStatus(cert.status.Load()) }

func (cert *Certificate) setStatus(s CertStatus) { cert.status.Store(uint32(s)) }

// VerifySingle verifies this certificate in isolation (e.g. a self-signed
// root, or a signature-only check against a known public key) and
// updates Status to the result. This call never leaves Status at
// Unknown.
func (cert *Certificate) VerifySingle(ctx context.Context) (CertStatus, error) {
	resp, err := cert.core.Call(ctx, wire.TaskCertificateVerifySingle, nil)
	if err != nil {
		return cert.Status(), err
	}
	if err := resp.Err(); err != nil {
		return cert.Status(), err
	}
	s := CertStatus(resp.Values[0].AsUint32())
	cert.setStatus(s)
	return s, nil
}

// VerifyChain verifies chain as an ordered path with the root at index 0
// and each successor issued by its predecessor. Status is
// mutated on every element only when the server judges the input
// structurally valid; on a structurally invalid input every element's
// Status is left untouched and the returned status is CertStatusInvalid.
// On the first failing certificate i, elements 0..i are updated to
// reflect the verdict and that verdict is returned; success requires
// every element to end up CertStatusValid.
//
// VerifyChain hangs off Client rather than Certificate because, unlike
// every other method in this file, it mutates more than one handle's
// Status from a single call -- there is no single natural receiver.
func (c *Client) VerifyChain(ctx context.Context, chain []*Certificate) (CertStatus, error) {
	ids := make([]wire.ProxyID, len(chain))
	for i, cert := range chain {
		ids[i] = cert.ProxyID()
	}
	args := make([]wire.Value, len(ids))
	for i, id := range ids {
		args[i] = wire.ProxyIDValue(id)
	}

	var caller wire.ProxyID
	if len(chain) > 0 {
		caller = chain[0].ProxyID()
	}

	resp, err := c.eng.Invoke(ctx, &wire.Request{
		Task:          wire.TaskCertificateVerifyChain,
		CallerProxyID: caller,
		Args:          args,
	})
	if err != nil {
		return CertStatusInvalid, err
	}
	if err := resp.Err(); err != nil {
		return CertStatusInvalid, err
	}

	overall := CertStatus(resp.Values[0].AsUint32())
	// Values[1:] mirror the request's chain positions in order, one
	// out-parameter per certificate; their absence means the server
	// judged the chain structurally invalid and left every element's
	// Status untouched.
	for i, v := range resp.Values[1:] {
		if i < len(chain) {
			chain[i].setStatus(CertStatus(v.AsUint32()))
		}
	}
	return overall, nil
}

// CheckStatus consults ocsp for this certificate's revocation status,
// updating Status if the certificate is reported revoked. It reports
// whether the certificate was found revoked.
func (cert *Certificate) CheckStatus(ctx context.Context, ocsp *OCSPResponse) (bool, error) {
	resp, err := cert.core.Call(ctx, wire.TaskCertificateCheckStatus,
		[]wire.Value{wire.ProxyIDValue(ocsp.ProxyID())})
	if err != nil {
		return false, err
	}
	if err := resp.Err(); err != nil {
		return false, err
	}
	revoked := resp.Values[0].AsBool()
	if revoked {
		cert.setStatus(CertStatusRevoked)
	}
	return revoked, nil
}

// CheckChainStatus consults ocsp for every certificate in chain (root at
// index 0, same ordering contract as VerifyChain) and writes the statuses
// the server reports back onto the handles. The server applies the
// revocation-propagation rule: a revoked certificate and
// every descendant below it in the chain come back Revoked. It reports
// whether any certificate in the chain was found revoked.
func (c *Client) CheckChainStatus(ctx context.Context, chain []*Certificate, ocsp *OCSPResponse) (bool, error) {
	args := make([]wire.Value, 0, len(chain)+1)
	args = append(args, wire.ProxyIDValue(ocsp.ProxyID()))
	for _, cert := range chain {
		args = append(args, wire.ProxyIDValue(cert.ProxyID()))
	}

	var caller wire.ProxyID
	if len(chain) > 0 {
		caller = chain[0].ProxyID()
	}

	resp, err := c.eng.Invoke(ctx, &wire.Request{
		Task:          wire.TaskCertificateCheckChainStatus,
		CallerProxyID: caller,
		Args:          args,
	})
	if err != nil {
		return false, err
	}
	if err := resp.Err(); err != nil {
		return false, err
	}

	revoked := resp.Values[0].AsBool()
	// Values[1:] mirror the chain positions in request order, one status
	// per certificate.
	for i, v := range resp.Values[1:] {
		if i < len(chain) {
			chain[i].setStatus(CertStatus(v.AsUint32()))
		}
	}
	return revoked, nil
}

func (cert *Certificate) Release() { cert.core.Release() }
