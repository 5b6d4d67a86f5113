package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync/atomic"
)

// Conn is a Transport over a net.Conn. It works unmodified over a UNIX
// domain socket and, in tests, over an in-memory net.Pipe -- the host
// application supplies whichever net.Conn it already dialed.
//
// Conn prefixes every message with a 4-byte big-endian length so the
// stream-oriented net.Conn gets per-message framing.
type Conn struct {
	conn   net.Conn
	mu     RecursiveMutex
	buf    []byte
	closed atomic.Bool
}

// NewConn wraps conn as a Transport. sendBufferSize sizes the scratch
// buffer returned by SendBuffer; it should be at least MaxRequestSize.
func NewConn(conn net.Conn, sendBufferSize int) *Conn {
	return &Conn{conn: conn, buf: make([]byte, sendBufferSize)}
}

func (c *Conn) Lock()   { c.mu.Lock() }
func (c *Conn) Unlock() { c.mu.Unlock() }

func (c *Conn) SendBuffer() []byte { return c.buf }

func (c *Conn) Closed() bool { return c.closed.Load() }

// Close marks the transport gone and closes the underlying connection.
// Safe to call once; later handle drops observe Closed() and skip their
// destroy message.
func (c *Conn) Close() error {
	c.closed.Store(true)
	return c.conn.Close()
}

func (c *Conn) SendAndReceive(req []byte) ([]byte, error) {
	if err := writeFramed(c.conn, req); err != nil {
		return nil, fmt.Errorf("transport: send: %w", err)
	}
	resp, err := readFramed(c.conn)
	if err != nil {
		return nil, fmt.Errorf("transport: receive: %w", err)
	}
	return resp, nil
}

func writeFramed(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFramed(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
