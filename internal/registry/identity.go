// Package registry implements the Identity Registry and
// the Provider Registry: the two process-wide tables the
// client runtime consults to assign ProxyIds and to reuse live provider
// handles.
package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// IdentityRegistry assigns process-unique ProxyIds. Ids are produced by a
// monotonic counter, which alone guarantees an id is never reused while
// any message referencing it may still be in flight. The counter's
// starting offset is mixed
// through xxhash of a process-start nonce so that ids handed out by one
// process run are extremely unlikely to collide, in a server's memory,
// with stale ids from a prior crashed run of the same binary that the
// server has not yet reaped.
type IdentityRegistry struct {
	next uint64

	// mu is exposed via Lock/Unlock so callers that need to coordinate
	// emission of several ids as one atomic group (e.g. a vector-of-handles
	// factory racing another goroutine's factory call) can hold it across
	// the whole Fresh() burst.
	mu sync.Mutex
}

// NewIdentityRegistry creates a registry seeded from the current time so
// repeated process restarts don't start counting from the same value.
func NewIdentityRegistry() *IdentityRegistry {
	var seedBuf [8]byte
	nowNs := uint64(time.Now().UnixNano())
	for i := range seedBuf {
		seedBuf[i] = byte(nowNs >> (8 * i))
	}
	seed := xxhash.Sum64(seedBuf[:])
	return &IdentityRegistry{next: seed}
}

// Fresh returns a new ProxyId, unique for the remaining lifetime of the
// process.
func (r *IdentityRegistry) Fresh() wire.ProxyID {
	for {
		id := wire.ProxyID(atomic.AddUint64(&r.next, 1))
		if id != wire.NullProxyID {
			return id
		}
		// Wrapped to zero after 2^64 ids: vanishingly unlikely, but skip
		// the reserved null id rather than hand out an invalid one.
	}
}

// Lock/Unlock let a caller emit several ids as one group without another
// lock-holding caller's group interleaving. Fresh itself does not take the
// lock, so a bare Fresh call from another goroutine can still land
// between the ids of a group.
func (r *IdentityRegistry) Lock()   { r.mu.Lock() }
func (r *IdentityRegistry) Unlock() { r.mu.Unlock() }
