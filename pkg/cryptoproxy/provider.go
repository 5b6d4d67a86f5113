package cryptoproxy

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/handle"
	"github.com/cryptoproxy-io/cryptoproxy/internal/registry"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// Provider is the root handle every other typed handle is created
// from. Two Client.Provider(ctx, uid) calls made while the
// first Provider handle is still reachable return the same proxy id --
// the Provider Registry upgrades its weak reference instead of issuing a
// second TaskProviderGetOrCreate.
type Provider struct {
	core *handle.Core
	uid  registry.ProviderUID
	regs *registry.ProviderRegistry[Provider]
}

// Provider returns the live handle for uid, creating one via a factory
// call if this is the first lookup (or the previous handle was already
// collected).
func (c *Client) Provider(ctx context.Context, uid registry.ProviderUID) (*Provider, error) {
	return c.provs.GetOrCreate(uid, func() (*Provider, error) {
		core, err := handle.Create(ctx, c.eng, c.ids, wire.KindProvider, wire.TaskProviderGetOrCreate,
			wire.NullProxyID, []wire.Value{wire.Uint64Value(uint64(uid))}, c.coreOpts()...)
		if err != nil {
			return nil, err
		}
		return &Provider{core: core, uid: uid, regs: c.provs}, nil
	})
}

// UID is the opaque provider identifier this handle addresses.
func (p *Provider) UID() registry.ProviderUID { return p.uid }

// ProxyID is this provider's server-side identity.
func (p *Provider) ProxyID() wire.ProxyID { return p.core.ID() }

// Release forgets this provider's cached registry entry and sends its
// destroy message. A later Client.Provider(ctx, p.UID()) creates a fresh
// handle rather than waiting on GC to notice the weak reference died.
func (p *Provider) Release() {
	p.regs.Forget(p.uid)
	p.core.Release()
}
