package wire

import "fmt"

// DomainError is a domain-level failure surfaced to the caller instead
// of aborting anything. The server is the sole source of Kind; the client
// never synthesizes one except when wrapping a Response's DetailTask.
type DomainError struct {
	Task TaskID
	Kind ErrorKind
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("task %d: %s", e.Task, e.Kind)
}

// Is allows errors.Is(err, wire.ErrorKind(...)) style matching against a
// bare ErrorKind via a small adapter, so callers can write
// errors.Is(err, wire.AsErrorKind(wire.ErrorKindUnknownIdentifier)).
func (e *DomainError) Is(target error) bool {
	k, ok := target.(errorKindSentinel)
	return ok && e.Kind == k.kind
}

type errorKindSentinel struct{ kind ErrorKind }

func (s errorKindSentinel) Error() string { return s.kind.String() }

// AsErrorKind returns a sentinel error usable with errors.Is to test
// whether a returned error is a DomainError of the given Kind.
func AsErrorKind(k ErrorKind) error { return errorKindSentinel{kind: k} }
