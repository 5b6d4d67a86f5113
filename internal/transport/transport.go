// Package transport implements the client's one channel to the server: a
// single duplex connection guarded by a recursive mutex, with a shared
// scratch send buffer whose contents are valid only while the lock is
// held.
package transport

// Transport is the contract the invocation engine drives. Concrete wire
// transport (UNIX socket, shared memory) belongs to the host; Conn
// (below) is the one reference implementation this repo ships so the
// engine has something constructible to run against.
type Transport interface {
	// Lock/Unlock guard the critical section of a single call: build
	// request, SendAndReceive, decode response. The implementation must be
	// reentrant for the same goroutine.
	Lock()
	Unlock()

	// SendBuffer returns scratch space the caller may write the outgoing
	// request into before calling SendAndReceive. Valid only between Lock
	// and Unlock; callers must not retain it past Unlock.
	SendBuffer() []byte

	// SendAndReceive sends req and blocks for the matching response. Must
	// be called with the lock held. Any error is an irrecoverable framing
	// condition: a partial write or read desynchronizes message boundaries
	// for every subsequent call on this Transport.
	SendAndReceive(req []byte) ([]byte, error)

	// Closed reports whether the transport has been torn down. Handle
	// drop consults this to implement the "transport already gone" branch
	// of the destroy protocol: no abort, no destroy message, just a
	// silent no-op.
	Closed() bool
}
