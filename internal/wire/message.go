package wire

// TypeTag identifies the wire encoding of a single Value. It is written
// ahead of every ArgEntry so the decoder never has to guess a payload's
// shape.
type TypeTag uint16

const (
	TagUint32 TypeTag = iota + 1
	TagUint64
	TagBool
	TagBytes
	TagProxyID
	TagIdentifiablePointer
)

// Value is one positional slot of a request or response argument tuple.
// Exactly one of the fields is meaningful, selected by Tag. References to
// remote objects are always carried as TagProxyID, never by value.
type Value struct {
	Tag     TypeTag
	Scalar  uint64
	Bytes   []byte
	Pointer IdentifiablePointer
}

func Uint32Value(v uint32) Value { return Value{Tag: TagUint32, Scalar: uint64(v)} }
func Uint64Value(v uint64) Value { return Value{Tag: TagUint64, Scalar: v} }

func BoolValue(v bool) Value {
	var s uint64
	if v {
		s = 1
	}
	return Value{Tag: TagBool, Scalar: s}
}

func BytesValue(b []byte) Value { return Value{Tag: TagBytes, Bytes: b} }

func ProxyIDValue(id ProxyID) Value { return Value{Tag: TagProxyID, Scalar: uint64(id)} }

func IdentifiablePointerValue(p IdentifiablePointer) Value {
	return Value{Tag: TagIdentifiablePointer, Pointer: p}
}

func (v Value) AsUint32() uint32    { return uint32(v.Scalar) }
func (v Value) AsUint64() uint64    { return v.Scalar }
func (v Value) AsBool() bool        { return v.Scalar != 0 }
func (v Value) AsProxyID() ProxyID  { return ProxyID(v.Scalar) }

// IdentifiablePointer is either null or names a proxy id. It is the wire
// shape of a factory result that returns a remote-object handle wrapped
// in a Result.
type IdentifiablePointer struct {
	IsNull  bool
	ProxyID ProxyID
}

// CreationOutcome is the factory-call response variant. Exactly one
// canonical encoding is used on the wire (the created/not-created tag
// folded into Created/ErrorKind); no adapter for the alternative
// Result<IdentifiablePointer> encoding exists (see the Open Questions
// entry in DESIGN.md).
type CreationOutcome struct {
	Created bool
	// ErrorKind is meaningful only when !Created.
	ErrorKind ErrorKind
	// Count is used by vector-of-handles factories: the server reports how
	// many of the proposed NewIDs it actually instantiated (0..N). Ignored
	// for single-handle factories, where Created covers the same ground.
	Count uint32
}

// Request is the immutable, once-built message the engine sends for a
// single call. A request whose Task is a factory call carries one or
// more NewIDs: ids the client pre-allocated and is proposing the server
// instantiate skeletons under.
type Request struct {
	Task          TaskID
	CallerProxyID ProxyID
	Args          []Value
	NewIDs        []ProxyID
}

// Response is the message shape returned for every call.
// DetailTask doubles as the error channel: ErrorKindNone means the call
// succeeded. Values[0] carries the return value when the call kind
// produces one; the remaining slots mirror the request's out-parameter
// positions. Creation is non-nil only for factory-call responses.
type Response struct {
	BasicTask  TaskID
	DetailTask ErrorKind
	Values     []Value
	Creation   *CreationOutcome
}

// Err returns the domain error carried in DetailTask, or nil on success.
func (r *Response) Err() error {
	if r.DetailTask == ErrorKindNone {
		return nil
	}
	return &DomainError{Task: r.BasicTask, Kind: r.DetailTask}
}
