package asyncq

import (
	"context"

	"github.com/ygrebnov/asyncq/rpcq"
)

// Client is generic over a service stub type S. S is whatever a concrete
// rpcq adapter defines for one RPC service (typically a struct of
// per-method initiator funcs bound to one connection); Client
// round-robins over one or more such stubs via a ChannelProvider; the four
// call shapes plus auto-retry are package-level generic functions taking a
// *Client[S].
type Client[S any] struct {
	channels *ChannelProvider[S]
	executor *Executor
}

// NewClient constructs a Client round-robining over one or more service
// stubs, issuing operations against executor.
func NewClient[S any](executor *Executor, stubs ...S) *Client[S] {
	return &Client[S]{channels: NewChannelProvider(stubs...), executor: executor}
}

// Stub returns the next service stub in round-robin order, for callers
// that need to invoke an initiator directly (e.g. inside AutoRetryUnary's
// init argument).
func (c *Client[S]) Stub() S { return c.channels.SelectNext() }

// CallUnary selects the next channel, starts a unary call, and returns
// its wrapper.
func CallUnary[S, Req, Resp any](ctx context.Context, c *Client[S], pick func(S) rpcq.UnaryInitiator[Req, Resp], cctx rpcq.ClientContext, req *Req) *UnaryCall[Resp] {
	init := pick(c.Stub())
	return NewUnaryCall[Req, Resp](ctx, c.executor, init, cctx, req)
}

// CallClientStream selects the next channel and starts a client-streaming
// call.
func CallClientStream[S, Req, Resp any](ctx context.Context, c *Client[S], pick func(S) rpcq.ClientStreamInitiator[Req, Resp], cctx rpcq.ClientContext, resp *Resp) *ClientStreamCall[Req, Resp] {
	init := pick(c.Stub())
	return NewClientStreamCall[Req, Resp](ctx, c.executor, init, cctx, resp)
}

// CallServerStream selects the next channel and starts a server-streaming
// call.
func CallServerStream[S, Req, Resp any](ctx context.Context, c *Client[S], pick func(S) rpcq.ServerStreamInitiator[Req, Resp], cctx rpcq.ClientContext, req *Req) *ServerStreamCall[Resp] {
	init := pick(c.Stub())
	return NewServerStreamCall[Req, Resp](ctx, c.executor, init, cctx, req)
}

// CallBidirectionalStream selects the next channel and starts a
// bidirectional-streaming call.
func CallBidirectionalStream[S, Req, Resp any](ctx context.Context, c *Client[S], pick func(S) rpcq.BidiInitiator[Req, Resp], cctx rpcq.ClientContext) *BidiCall[Req, Resp] {
	init := pick(c.Stub())
	return NewBidiCall[Req, Resp](ctx, c.executor, init, cctx)
}

// ClientAutoRetryUnary selects the next channel and drives AutoRetryUnary's
// loop against it. Go methods cannot add their own type parameters, so
// this is a package-level function over Client[S] rather than a method.
func ClientAutoRetryUnary[S, Req, Resp any](ctx context.Context, c *Client[S], pick func(S) rpcq.UnaryInitiator[Req, Resp], req *Req, opts RetryOptions) (bool, Status) {
	init := pick(c.Stub())
	return AutoRetryUnary[Req, Resp](ctx, c.executor, init, req, opts)
}
