package rpcq

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code is the application-layer error-code category of a Status. It is
// google.golang.org/grpc/codes.Code directly: the runtime only ever
// interprets OK and UNAVAILABLE (asyncq's AutoRetryUnary and
// DefaultRetryPolicy); every other code is passed through untouched to
// user code.
type Code = codes.Code

const (
	CodeOK                codes.Code = codes.OK
	CodeCancelled         codes.Code = codes.Canceled
	CodeUnavailable       codes.Code = codes.Unavailable
	CodeNotFound          codes.Code = codes.NotFound
	CodeFailedPrecondition codes.Code = codes.FailedPrecondition
	CodeInternal          codes.Code = codes.Internal
)

// Status is the application-layer RPC result written by Finish-style
// operations: a code-and-message pair. The runtime never constructs one;
// it is written by user code or the underlying library (or, in tests, by
// internal/testrpc's fake server).
type Status struct {
	code    codes.Code
	message string
}

// NewStatus builds a Status from a code and message.
func NewStatus(code codes.Code, message string) Status {
	return Status{code: code, message: message}
}

// StatusFromError adapts a google.golang.org/grpc/status error (or any
// error satisfying the same interface) into a Status. A nil error maps to
// OK.
func StatusFromError(err error) Status {
	if err == nil {
		return Status{code: codes.OK}
	}
	s, ok := status.FromError(err)
	if !ok {
		return Status{code: codes.Unknown, message: err.Error()}
	}
	return Status{code: s.Code(), message: s.Message()}
}

func (s Status) Code() codes.Code { return s.code }
func (s Status) Message() string  { return s.message }
func (s Status) Ok() bool         { return s.code == codes.OK }

// Err returns a standard grpc status error for this Status, or nil if Ok.
func (s Status) Err() error {
	if s.Ok() {
		return nil
	}
	return status.Error(s.code, s.message)
}

// CodeString maps a Code to a short logging constant.
func CodeString(c codes.Code) string {
	return c.String()
}
