package transport

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// RecursiveMutex admits nested Lock calls from the same goroutine, which
// the Transport contract requires: a cryptographic call issued from
// within a handle's destruction path must be admissible, and a plain
// sync.Mutex would deadlock a goroutine against itself in that case.
//
// Go exposes no goroutine-id API. goroutineID parses the "goroutine NNN"
// prefix of a runtime.Stack dump -- the conventional way Go code detects
// same-goroutine reentrancy when it must (the approach predates the
// language adding any alternative, and none has been added since).
type RecursiveMutex struct {
	mu    sync.Mutex
	owner uint64
	count int
}

// Lock acquires the mutex. A second Lock from the same goroutine while the
// first is held increments the hold count instead of blocking.
func (m *RecursiveMutex) Lock() {
	gid := goroutineID()
	m.mu.Lock()
	if m.count > 0 && m.owner == gid {
		m.count++
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.acquire(gid)
}

func (m *RecursiveMutex) acquire(gid uint64) {
	for {
		m.mu.Lock()
		if m.count == 0 {
			m.owner = gid
			m.count = 1
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
		runtime.Gosched()
	}
}

// Unlock releases one level of the hold. The final Unlock by the owning
// goroutine hands the mutex to the next waiter.
func (m *RecursiveMutex) Unlock() {
	gid := goroutineID()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count == 0 || m.owner != gid {
		panic("transport: Unlock called by non-owning goroutine")
	}
	m.count--
}

func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Format is "goroutine 123 [running]:\n..."
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]
	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
