// Package handle implements handle lifecycle and the shared plumbing of
// the typed handle surface: every per-kind client type (Hash, Cipher,
// Signer, ...) embeds a Core rather than reimplementing id bookkeeping,
// invocation, or teardown.
package handle

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"github.com/cryptoproxy-io/cryptoproxy/internal/engine"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// ErrReleased is returned by Call once the handle has been released,
// whether explicitly or by the garbage collector running its cleanup.
var ErrReleased = errors.New("handle: use after release")

// DestroySink receives best-effort destroy notifications instead of
// having Core invoke the engine directly from the releasing goroutine --
// the outbound port pattern that lets Release() return without waiting
// on a transport round-trip. Core falls back to a direct, synchronous
// engine.Invoke when no sink is configured.
type DestroySink interface {
	Enqueue(id wire.ProxyID)
}

// Core is the common state of every live ProxyHandle: the
// server-side proxy id, the object kind it addresses, the Engine it calls
// through, and the one-shot destroy bookkeeping. Per-type client wrappers
// embed *Core and add only their kind-specific methods.
type Core struct {
	id     wire.ProxyID
	kind   wire.ObjectKind
	eng    *engine.Engine
	parent *Core
	sink   DestroySink

	// released is shared with the runtime.AddCleanup closure below so an
	// explicit Release and a GC-triggered cleanup can never both send the
	// destroy message: whichever runs first wins the CompareAndSwap.
	released *atomic.Bool
}

// Option configures a Core at construction.
type Option func(*Core)

// WithParent records the handle whose lifetime this one is scoped under
// (for example a Key created from a Provider). Nothing in Core enforces
// an ordering from this alone; it exists so per-type wrappers can refuse
// to outlive their parent where their kind requires it.
func WithParent(p *Core) Option { return func(c *Core) { c.parent = p } }

// WithDestroySink routes this handle's destroy notification through sink
// instead of invoking the engine inline on the releasing goroutine.
func WithDestroySink(sink DestroySink) Option { return func(c *Core) { c.sink = sink } }

// NewCore adopts id as a live handle of kind, driven by eng. It installs
// a runtime.AddCleanup backstop: Go has no deterministic destructors, so
// finalization is the fallback for a handle the caller simply drops
// without calling Release.
func NewCore(id wire.ProxyID, kind wire.ObjectKind, eng *engine.Engine, opts ...Option) *Core {
	c := &Core{id: id, kind: kind, eng: eng, released: new(atomic.Bool)}
	for _, opt := range opts {
		opt(c)
	}

	// The cleanup closure must not retain c itself -- that would make c
	// permanently reachable and the cleanup would never run. It captures
	// only the flat state it needs to send the destroy message.
	state := cleanupState{id: id, eng: eng, sink: c.sink, released: c.released}
	runtime.AddCleanup(c, func(s cleanupState) { s.destroy() }, state)

	return c
}

// ID is the server-side proxy id this handle addresses.
func (c *Core) ID() wire.ProxyID { return c.id }

// Kind is the object kind this handle addresses.
func (c *Core) Kind() wire.ObjectKind { return c.kind }

// Parent is the handle this one was created from, or nil at the root.
func (c *Core) Parent() *Core { return c.parent }

// Pointer is this handle's wire representation wherever a call takes it
// as an argument: references always cross the wire as
// IdentifiablePointer/ProxyID, never by value.
func (c *Core) Pointer() wire.IdentifiablePointer {
	return wire.IdentifiablePointer{ProxyID: c.id}
}

// Released reports whether Release has already run, explicitly or via
// the GC backstop.
func (c *Core) Released() bool { return c.released.Load() }

// Call issues one request on this handle's behalf, with CallerProxyID set
// to this handle's id. Per-type wrappers use this for every operation
// except Destroy, which only Release ever sends.
func (c *Core) Call(ctx context.Context, task wire.TaskID, args []wire.Value) (*wire.Response, error) {
	if c.released.Load() {
		return nil, ErrReleased
	}
	return c.eng.Invoke(ctx, &wire.Request{Task: task, CallerProxyID: c.id, Args: args})
}

// CallStreaming is Call's counterpart for operations whose argument list
// carries one caller-supplied byte region that may need chunking:
// Hash/Cipher/Mac Update, primarily.
func (c *Core) CallStreaming(ctx context.Context, task wire.TaskID, before []wire.Value, region []byte, after []wire.Value) (*wire.Response, error) {
	if c.released.Load() {
		return nil, ErrReleased
	}
	return c.eng.InvokeStreaming(ctx, task, c.id, before, region, after)
}

// Release sends the destroy message for this handle, exactly once,
// unless the transport is already gone (a handle dropped after the
// transport is lost is a silent no-op, not a fault). Safe to call
// multiple times and safe to call never -- the
// runtime.AddCleanup backstop installed in NewCore covers that case, at
// the cost of running on the collector's schedule instead of
// deterministically.
func (c *Core) Release() {
	state := cleanupState{id: c.id, eng: c.eng, sink: c.sink, released: c.released}
	state.destroy()
	runtime.KeepAlive(c)
}

// cleanupState is the flat, Core-independent payload the GC cleanup
// closure runs with. It must not hold a *Core or the handle would never
// become unreachable.
type cleanupState struct {
	id       wire.ProxyID
	eng      *engine.Engine
	sink     DestroySink
	released *atomic.Bool
}

func (s cleanupState) destroy() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}
	if s.sink != nil {
		s.sink.Enqueue(s.id)
		return
	}
	if s.eng.TransportClosed() {
		return
	}
	// Errors here are already routed through the Engine's AbortFunc for a
	// framing fault, or surfaced as a domain error in the response, which
	// a destroy call has nothing further to do with: there is no caller
	// left to report it to.
	_, _ = s.eng.Invoke(context.Background(), &wire.Request{
		Task:          wire.TaskDestroy,
		CallerProxyID: s.id,
	})
}
