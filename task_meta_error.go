package asyncq

import (
	"errors"
	"fmt"
)

// CallMetaError exposes correlation metadata for a batch call failure —
// which call index and, when known, which RPC method produced it.
type CallMetaError interface {
	error
	Unwrap() error
	CallIndex() int
	Method() (string, bool)
}

type callTaggedError struct {
	err    error
	index  int
	method string
}

func newCallTaggedError(err error, index int, method string) error {
	if err == nil {
		return nil
	}
	return &callTaggedError{err: err, index: index, method: method}
}

func (e *callTaggedError) Error() string { return e.err.Error() }
func (e *callTaggedError) Unwrap() error { return e.err }

func (e *callTaggedError) CallIndex() int { return e.index }

func (e *callTaggedError) Method() (string, bool) {
	if e.method == "" {
		return "", false
	}
	return e.method, true
}

func (e *callTaggedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "call(index=%d,method=%q): %+v", e.index, e.method, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractCallIndex returns the originating call index from err if present.
func ExtractCallIndex(err error) (int, bool) {
	var cme CallMetaError
	if errors.As(err, &cme) {
		return cme.CallIndex(), true
	}
	return 0, false
}

// ExtractMethod returns the originating RPC method name from err if
// present.
func ExtractMethod(err error) (string, bool) {
	var cme CallMetaError
	if errors.As(err, &cme) {
		return cme.Method()
	}
	return "", false
}
