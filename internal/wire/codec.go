package wire

import (
	"encoding/binary"
	"fmt"
)

// entryHeaderSize is the fixed [TypeTag u16][Length u32] prefix of every
// ArgEntry.
const entryHeaderSize = 2 + 4

// envelopeSize is the fixed [BasicTask u32][DetailTask u32][CallerProxyId
// u64][ArgCount u16] header shared by requests and responses.
const envelopeSize = 4 + 4 + 8 + 2

// EncodeRequest serializes a Request into its wire form. Format errors
// (an unrecognized TypeTag) are programmer errors, so EncodeRequest never
// returns a partially written buffer on error -- the caller is expected
// to treat a non-nil error as a reason to abort rather than retry.
func EncodeRequest(req *Request) ([]byte, error) {
	return EncodeRequestInto(nil, req)
}

// EncodeRequestInto serializes req using dst[:0] as the starting buffer
// when dst is large enough, growing it only if needed. This lets the
// invocation engine hand in the Transport's scratch send buffer instead
// of always allocating.
func EncodeRequestInto(dst []byte, req *Request) ([]byte, error) {
	need := PredictRequestSize(req)
	var buf []byte
	if cap(dst) >= need {
		buf = dst[:0]
	} else {
		buf = make([]byte, 0, need)
	}
	buf = appendUint32(buf, uint32(req.Task))
	buf = appendUint32(buf, uint32(ErrorKindNone))
	buf = appendUint64(buf, uint64(req.CallerProxyID))
	buf = appendUint16(buf, uint16(len(req.Args)))

	for i, a := range req.Args {
		var err error
		buf, err = appendValue(buf, a)
		if err != nil {
			return nil, fmt.Errorf("encode request: arg %d: %w", i, err)
		}
	}

	buf = appendUint16(buf, uint16(len(req.NewIDs)))
	for _, id := range req.NewIDs {
		buf = appendUint64(buf, uint64(id))
	}
	return buf, nil
}

// DecodeRequest is the server-side counterpart kept here so both ends of
// the wire share one definition of the layout; the client never calls it
// in normal operation, only its test suite (round-trip tests) does.
func DecodeRequest(data []byte) (*Request, error) {
	r := reader{buf: data}
	task, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if _, err := r.uint32(); err != nil { // DetailTask, unused on requests
		return nil, err
	}
	caller, err := r.uint64()
	if err != nil {
		return nil, err
	}
	argCount, err := r.uint16()
	if err != nil {
		return nil, err
	}

	args := make([]Value, argCount)
	for i := range args {
		v, err := r.value()
		if err != nil {
			return nil, fmt.Errorf("decode request: arg %d: %w", i, err)
		}
		args[i] = v
	}

	idCount, err := r.uint16()
	if err != nil {
		return nil, err
	}
	ids := make([]ProxyID, idCount)
	for i := range ids {
		v, err := r.uint64()
		if err != nil {
			return nil, err
		}
		ids[i] = ProxyID(v)
	}

	if !r.exhausted() {
		return nil, fmt.Errorf("decode request: %d trailing bytes", r.remaining())
	}
	return &Request{Task: TaskID(task), CallerProxyID: ProxyID(caller), Args: args, NewIDs: ids}, nil
}

// EncodeResponse serializes a Response. A creation response appends a
// trailer after the ArgEntries: [HasCreation u8] and, when set,
// [Created u8][ErrorKind u32][Count u32].
func EncodeResponse(resp *Response) ([]byte, error) {
	buf := make([]byte, 0, PredictResponseSize(resp))
	buf = appendUint32(buf, uint32(resp.BasicTask))
	buf = appendUint32(buf, uint32(resp.DetailTask))
	buf = appendUint64(buf, 0) // caller-proxy-id slot, unused in responses
	buf = appendUint16(buf, uint16(len(resp.Values)))

	for i, v := range resp.Values {
		var err error
		buf, err = appendValue(buf, v)
		if err != nil {
			return nil, fmt.Errorf("encode response: value %d: %w", i, err)
		}
	}

	if resp.Creation == nil {
		buf = append(buf, 0)
		return buf, nil
	}
	buf = append(buf, 1)
	if resp.Creation.Created {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = appendUint32(buf, uint32(resp.Creation.ErrorKind))
	buf = appendUint32(buf, resp.Creation.Count)
	return buf, nil
}

// DecodeResponse deserializes wire bytes into a Response. Any error here
// indicates protocol desync between client and server and is a framing
// fault: callers must treat it as fatal-abort, not as a retryable
// condition.
func DecodeResponse(data []byte) (*Response, error) {
	r := reader{buf: data}
	basic, err := r.uint32()
	if err != nil {
		return nil, err
	}
	detail, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if _, err := r.uint64(); err != nil { // unused caller-proxy-id slot
		return nil, err
	}
	valueCount, err := r.uint16()
	if err != nil {
		return nil, err
	}
	values := make([]Value, valueCount)
	for i := range values {
		v, err := r.value()
		if err != nil {
			return nil, fmt.Errorf("decode response: value %d: %w", i, err)
		}
		values[i] = v
	}

	hasCreation, err := r.uint8()
	if err != nil {
		return nil, err
	}
	resp := &Response{BasicTask: TaskID(basic), DetailTask: ErrorKind(detail), Values: values}
	if hasCreation == 1 {
		created, err := r.uint8()
		if err != nil {
			return nil, err
		}
		kind, err := r.uint32()
		if err != nil {
			return nil, err
		}
		count, err := r.uint32()
		if err != nil {
			return nil, err
		}
		resp.Creation = &CreationOutcome{Created: created == 1, ErrorKind: ErrorKind(kind), Count: count}
	}

	if !r.exhausted() {
		return nil, fmt.Errorf("decode response: %d trailing bytes", r.remaining())
	}
	return resp, nil
}

// PredictRequestSize returns the exact number of bytes EncodeRequest will
// produce for req, without allocating the buffer. Chunking
// uses this to decide whether a call needs to be split.
func PredictRequestSize(req *Request) int {
	total := envelopeSize
	for _, a := range req.Args {
		total += entryHeaderSize + valuePayloadLen(a)
	}
	total += 2 + 8*len(req.NewIDs)
	return total
}

// PredictResponseSize mirrors PredictRequestSize for responses.
func PredictResponseSize(resp *Response) int {
	total := envelopeSize
	for _, v := range resp.Values {
		total += entryHeaderSize + valuePayloadLen(v)
	}
	total++ // HasCreation
	if resp.Creation != nil {
		total += 1 + 4 + 4
	}
	return total
}

// ChunkOverhead returns the portion of PredictRequestSize(req) that is NOT
// the payload of the Bytes-tagged argument at regionIndex -- the
// per-message overhead chunking must subtract from MaxRequestSize to get
// the usable slice length.
func ChunkOverhead(req *Request, regionIndex int) int {
	total := PredictRequestSize(req)
	return total - len(req.Args[regionIndex].Bytes)
}

func valuePayloadLen(v Value) int {
	switch v.Tag {
	case TagUint32, TagBool:
		return 4
	case TagUint64, TagProxyID:
		return 8
	case TagBytes:
		return len(v.Bytes)
	case TagIdentifiablePointer:
		return 1 + 8
	default:
		return 0
	}
}

// appendValue writes the [TypeTag u16][Length u32][Payload] ArgEntry
// layout for v, appending to buf and returning the extended slice.
func appendValue(buf []byte, v Value) ([]byte, error) {
	buf = appendUint16(buf, uint16(v.Tag))
	switch v.Tag {
	case TagUint32:
		buf = appendUint32(buf, 4)
		buf = appendUint32(buf, uint32(v.Scalar))
	case TagBool:
		buf = appendUint32(buf, 4)
		val := uint32(0)
		if v.Scalar != 0 {
			val = 1
		}
		buf = appendUint32(buf, val)
	case TagUint64, TagProxyID:
		buf = appendUint32(buf, 8)
		buf = appendUint64(buf, v.Scalar)
	case TagBytes:
		buf = appendUint32(buf, uint32(len(v.Bytes)))
		buf = append(buf, v.Bytes...)
	case TagIdentifiablePointer:
		buf = appendUint32(buf, 9)
		if v.Pointer.IsNull {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = appendUint64(buf, uint64(v.Pointer.ProxyID))
	default:
		return nil, fmt.Errorf("unknown type tag %d", v.Tag)
	}
	return buf, nil
}

func appendUint16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

// reader walks a decode buffer front-to-back, returning an error the
// instant it would read past the end -- the signal the engine maps to a
// fatal framing fault.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }
func (r *reader) exhausted() bool { return r.remaining() == 0 }

func (r *reader) need(n int) error {
	if r.remaining() < n {
		return fmt.Errorf("short buffer: need %d, have %d", n, r.remaining())
	}
	return nil
}

func (r *reader) uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) uint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) value() (Value, error) {
	tag, err := r.uint16()
	if err != nil {
		return Value{}, err
	}
	length, err := r.uint32()
	if err != nil {
		return Value{}, err
	}
	if err := r.need(int(length)); err != nil {
		return Value{}, err
	}
	payload := r.buf[r.pos : r.pos+int(length)]
	r.pos += int(length)

	switch TypeTag(tag) {
	case TagUint32:
		if length != 4 {
			return Value{}, fmt.Errorf("uint32 value: bad length %d", length)
		}
		return Uint32Value(binary.BigEndian.Uint32(payload)), nil
	case TagBool:
		if length != 4 {
			return Value{}, fmt.Errorf("bool value: bad length %d", length)
		}
		return BoolValue(binary.BigEndian.Uint32(payload) != 0), nil
	case TagUint64:
		if length != 8 {
			return Value{}, fmt.Errorf("uint64 value: bad length %d", length)
		}
		return Uint64Value(binary.BigEndian.Uint64(payload)), nil
	case TagProxyID:
		if length != 8 {
			return Value{}, fmt.Errorf("proxy id value: bad length %d", length)
		}
		return ProxyIDValue(ProxyID(binary.BigEndian.Uint64(payload))), nil
	case TagBytes:
		cp := make([]byte, len(payload))
		copy(cp, payload)
		return BytesValue(cp), nil
	case TagIdentifiablePointer:
		if length != 9 {
			return Value{}, fmt.Errorf("identifiable pointer value: bad length %d", length)
		}
		return IdentifiablePointerValue(IdentifiablePointer{
			IsNull:  payload[0] == 1,
			ProxyID: ProxyID(binary.BigEndian.Uint64(payload[1:])),
		}), nil
	default:
		return Value{}, fmt.Errorf("unknown type tag %d", tag)
	}
}
