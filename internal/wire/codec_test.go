package wire

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	req := &Request{
		Task:          TaskHashUpdate,
		CallerProxyID: 42,
		Args: []Value{
			Uint32Value(7),
			BytesValue([]byte("abc")),
			ProxyIDValue(99),
			BoolValue(true),
			IdentifiablePointerValue(IdentifiablePointer{ProxyID: 5}),
		},
		NewIDs: []ProxyID{1001, 1002},
	}

	data, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != PredictRequestSize(req) {
		t.Fatalf("predicted size %d, actual %d", PredictRequestSize(req), len(data))
	}

	got, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Task != req.Task || got.CallerProxyID != req.CallerProxyID {
		t.Fatalf("envelope mismatch: %+v", got)
	}
	if len(got.Args) != len(req.Args) {
		t.Fatalf("arg count mismatch: got %d want %d", len(got.Args), len(req.Args))
	}
	if got.Args[0].AsUint32() != 7 {
		t.Errorf("arg0 = %d, want 7", got.Args[0].AsUint32())
	}
	if !bytes.Equal(got.Args[1].Bytes, []byte("abc")) {
		t.Errorf("arg1 = %q, want abc", got.Args[1].Bytes)
	}
	if got.Args[2].AsProxyID() != 99 {
		t.Errorf("arg2 = %d, want 99", got.Args[2].AsProxyID())
	}
	if !got.Args[3].AsBool() {
		t.Errorf("arg3 = false, want true")
	}
	if got.Args[4].Pointer.ProxyID != 5 || got.Args[4].Pointer.IsNull {
		t.Errorf("arg4 = %+v, want {false 5}", got.Args[4].Pointer)
	}
	if len(got.NewIDs) != 2 || got.NewIDs[0] != 1001 || got.NewIDs[1] != 1002 {
		t.Errorf("new ids mismatch: %+v", got.NewIDs)
	}
}

func TestEncodeDecodeResponseRoundTrip(t *testing.T) {
	resp := &Response{
		BasicTask:  TaskHashFinish,
		DetailTask: ErrorKindNone,
		Values:     []Value{Uint32Value(32)},
	}
	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.BasicTask != resp.BasicTask || got.DetailTask != ErrorKindNone {
		t.Fatalf("envelope mismatch: %+v", got)
	}
	if got.Values[0].AsUint32() != 32 {
		t.Errorf("value = %d, want 32", got.Values[0].AsUint32())
	}
	if got.Creation != nil {
		t.Errorf("creation = %+v, want nil", got.Creation)
	}
}

func TestEncodeDecodeResponseWithCreation(t *testing.T) {
	resp := &Response{
		BasicTask:  TaskCipherCreate,
		DetailTask: ErrorKindNone,
		Creation:   &CreationOutcome{Created: false, ErrorKind: ErrorKindUnknownIdentifier},
	}
	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Creation == nil || got.Creation.Created {
		t.Fatalf("creation = %+v, want not-created", got.Creation)
	}
	if got.Creation.ErrorKind != ErrorKindUnknownIdentifier {
		t.Errorf("creation error kind = %s, want UnknownIdentifier", got.Creation.ErrorKind)
	}
}

func TestDecodeRequestShortBuffer(t *testing.T) {
	if _, err := DecodeRequest([]byte{0, 0}); err == nil {
		t.Fatal("expected error for truncated buffer")
	}
}

func TestChunkOverhead(t *testing.T) {
	req := &Request{
		Task:          TaskCipherUpdate,
		CallerProxyID: 1,
		Args:          []Value{Uint32Value(0), BytesValue(make([]byte, 1000))},
	}
	overhead := ChunkOverhead(req, 1)
	total := PredictRequestSize(req)
	if total-overhead != 1000 {
		t.Errorf("overhead %d leaves %d for region, want 1000", overhead, total-overhead)
	}
}
