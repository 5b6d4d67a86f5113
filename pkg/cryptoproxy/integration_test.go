package cryptoproxy_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"go.uber.org/goleak"

	"github.com/cryptoproxy-io/cryptoproxy/internal/registry"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
	"github.com/cryptoproxy-io/cryptoproxy/pkg/cryptoproxy"
)

// This file exercises the Client end to end over a real transport.Conn
// wrapping a net.Pipe, in place of the in-process fakeTransport the rest
// of this package's tests use -- the same framing and blocking
// request/response path a production unix socket would see.
// The scripted server below stands in for the privileged process: it
// decodes each wire.Request the same way the real server would and
// replies with an actual SHA-256 digest, so this test also doubles as a
// check that the chunked Update path produces the right
// bytes on the far side.

func writeFrame(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// scriptedHashServer answers exactly the task sequence pkg/cryptoproxy
// drives for Provider.GetOrCreate -> NewHash -> Start -> Update -> Finish
// -> GetDigest -> Release, maintaining a real crypto/sha256 state per
// hash proxy id so the digest returned to the client is the real answer.
func scriptedHashServer(t *testing.T, conn net.Conn) {
	t.Helper()
	hashes := map[wire.ProxyID]*scriptedHash{}

	go func() {
		defer conn.Close()
		for {
			raw, err := readFrame(conn)
			if err != nil {
				return
			}
			req, err := wire.DecodeRequest(raw)
			if err != nil {
				return
			}

			resp := handleScriptedRequest(req, hashes)

			out, err := wire.EncodeResponse(resp)
			if err != nil {
				return
			}
			if err := writeFrame(conn, out); err != nil {
				return
			}
		}
	}()
}

type scriptedHash struct {
	buf     bytes.Buffer
	started bool
	done    bool
	digest  []byte
}

func handleScriptedRequest(req *wire.Request, hashes map[wire.ProxyID]*scriptedHash) *wire.Response {
	switch req.Task {
	case wire.TaskProviderGetOrCreate:
		return &wire.Response{
			BasicTask:  req.Task,
			DetailTask: wire.ErrorKindNone,
			Creation:   &wire.CreationOutcome{Created: true},
		}

	case wire.TaskHashCreate:
		hashes[req.NewIDs[0]] = &scriptedHash{}
		return &wire.Response{
			BasicTask:  req.Task,
			DetailTask: wire.ErrorKindNone,
			Creation:   &wire.CreationOutcome{Created: true},
		}

	case wire.TaskHashStart:
		hs := hashes[req.CallerProxyID]
		hs.buf.Reset()
		hs.started = true
		hs.done = false
		return okResponse(req.Task)

	case wire.TaskHashUpdate:
		hs := hashes[req.CallerProxyID]
		hs.buf.Write(req.Args[0].Bytes)
		return okResponse(req.Task)

	case wire.TaskHashFinish:
		hs := hashes[req.CallerProxyID]
		hs.digest = digestOf(hs.buf.Bytes())
		hs.done = true
		return okResponse(req.Task)

	case wire.TaskHashGetDigest:
		hs := hashes[req.CallerProxyID]
		out := req.Args[0].Bytes
		offset := req.Args[1].AsUint32()
		n := copy(out, hs.digest[offset:])
		return &wire.Response{
			BasicTask:  req.Task,
			DetailTask: wire.ErrorKindNone,
			Values:     []wire.Value{wire.BytesValue(out[:n])},
		}

	case wire.TaskDestroy:
		delete(hashes, req.CallerProxyID)
		return okResponse(req.Task)

	default:
		return &wire.Response{
			BasicTask:  req.Task,
			DetailTask: wire.ErrorKindUnsupported,
		}
	}
}

func okResponse(task wire.TaskID) *wire.Response {
	return &wire.Response{BasicTask: task, DetailTask: wire.ErrorKindNone}
}

func digestOf(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// TestClientOverRealTransportConnChunkedHash drives the public Client
// over an actual transport.Conn/net.Pipe pair -- not the in-package
// fakeTransport the rest of this package's tests use -- feeding Update an
// input larger than one request so the engine's chunking path is
// exercised along with everything else.
func TestClientOverRealTransportConnChunkedHash(t *testing.T) {
	defer goleak.VerifyNone(t)

	clientConn, serverConn := net.Pipe()
	scriptedHashServer(t, serverConn)

	client := cryptoproxy.New(clientConn, cryptoproxy.WithMaxRequestSize(4096))
	defer client.Close()

	ctx := context.Background()
	provider, err := client.Provider(ctx, registry.ProviderUID(1))
	if err != nil {
		t.Fatalf("Provider: %v", err)
	}

	h, err := client.NewHash(ctx, provider, 1 /* algorithm id, opaque to the client */)
	if err != nil {
		t.Fatalf("NewHash: %v", err)
	}

	if err := h.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	input := bytes.Repeat([]byte("cryptoproxy-chunk-"), 2000) // well over 4096 bytes
	if err := h.Update(ctx, input); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := h.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	want := sha256.Sum256(input)
	got := make([]byte, len(want))
	n, err := h.GetDigest(ctx, got, 0)
	if err != nil {
		t.Fatalf("GetDigest: %v", err)
	}
	if n != len(want) || !bytes.Equal(got, want[:]) {
		t.Fatalf("digest mismatch: got %x want %x", got, want)
	}

	h.Release()
	provider.Release()
}
