package registry

import (
	"sync"
	"weak"
)

// ProviderUID identifies a provider implementation/instance on the server
// side (e.g. a PKCS#11 slot or an algorithm-suite id). It is opaque to the
// client runtime.
type ProviderUID uint64

// ProviderRegistry is the process-wide map from provider UID to a live
// provider handle. It is generic over the concrete handle type so it has
// no dependency on the client package's provider type, avoiding an
// import cycle between "the thing that looks things up" and "the thing
// being looked up".
//
// A lookup upgrades the weak reference if the handle is still alive;
// otherwise the entry is logically absent and GetOrCreate creates a
// fresh one: a strong table of weak references with explicit upgrade,
// rather than any cyclic ownership between the registry and the
// providers it hands out.
//
// The registry's own map access is internally guarded (map mutation is
// never safe to leave unsynchronized in Go), but the higher-level
// property -- two sequential GetOrCreate calls while the first handle is
// alive return the same handle -- is a caller contract: the caller must
// keep its first handle reachable across the two calls, or the weak
// reference may already be collected.
type ProviderRegistry[H any] struct {
	mu      sync.Mutex
	entries map[ProviderUID]weak.Pointer[H]
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry[H any]() *ProviderRegistry[H] {
	return &ProviderRegistry[H]{entries: make(map[ProviderUID]weak.Pointer[H])}
}

// GetOrCreate returns the live handle registered for uid, creating one
// via create if none is registered or the previous one has been
// collected.
func (r *ProviderRegistry[H]) GetOrCreate(uid ProviderUID, create func() (*H, error)) (*H, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wp, ok := r.entries[uid]; ok {
		if h := wp.Value(); h != nil {
			return h, nil
		}
		delete(r.entries, uid)
	}

	h, err := create()
	if err != nil {
		return nil, err
	}
	r.entries[uid] = weak.Make(h)
	return h, nil
}

// Forget removes any entry for uid regardless of liveness. Used when a
// provider handle is explicitly released so a later GetOrCreate doesn't
// wait on GC to notice the weak pointer is dead.
func (r *ProviderRegistry[H]) Forget(uid ProviderUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, uid)
}
