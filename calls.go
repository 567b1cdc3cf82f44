package asyncq

import (
	"context"

	"github.com/ygrebnov/asyncq/rpcq"
)

// UnaryCall is the call wrapper a unary initiator yields.
type UnaryCall[Resp any] struct {
	reader   rpcq.UnaryReader[Resp]
	executor *Executor
	guard    callGuard
}

// NewUnaryCall starts a unary RPC: init runs synchronously and the
// returned UnaryCall owns the reader it yields.
func NewUnaryCall[Req, Resp any](ctx context.Context, executor *Executor, init rpcq.UnaryInitiator[Req, Resp], cctx rpcq.ClientContext, req *Req) *UnaryCall[Resp] {
	return &UnaryCall[Resp]{reader: init(cctx, req), executor: executorFor(ctx, executor)}
}

// Finish awaits the response and status, returning the framing-bit.
func (c *UnaryCall[Resp]) Finish(ctx context.Context, resp *Resp, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.reader.Finish(resp, status, queue, tag)
	})
}

// Close asserts no operation is still outstanding.
func (c *UnaryCall[Resp]) Close() { c.guard.assertNoOutstanding() }

// ClientStreamCall is the call wrapper a client-streaming initiator
// yields.
type ClientStreamCall[Req, Resp any] struct {
	writer   rpcq.ClientStreamWriter[Req]
	executor *Executor
	guard    callGuard
}

// NewClientStreamCall starts a client-streaming RPC synchronously.
func NewClientStreamCall[Req, Resp any](ctx context.Context, executor *Executor, init rpcq.ClientStreamInitiator[Req, Resp], cctx rpcq.ClientContext, resp *Resp) *ClientStreamCall[Req, Resp] {
	return &ClientStreamCall[Req, Resp]{writer: init(cctx, resp), executor: executorFor(ctx, executor)}
}

// Write sends one request message, suspending until it is accepted.
func (c *ClientStreamCall[Req, Resp]) Write(ctx context.Context, req *Req) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.writer.Write(req, queue, tag)
	})
}

// WritesDone signals no more requests will be written.
func (c *ClientStreamCall[Req, Resp]) WritesDone(ctx context.Context) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.writer.WritesDone(queue, tag)
	})
}

// Finish awaits the final status.
func (c *ClientStreamCall[Req, Resp]) Finish(ctx context.Context, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.writer.Finish(status, queue, tag)
	})
}

func (c *ClientStreamCall[Req, Resp]) Close() { c.guard.assertNoOutstanding() }

// ServerStreamCall is the call wrapper a server-streaming initiator
// yields.
type ServerStreamCall[Resp any] struct {
	reader   rpcq.ServerStreamReader[Resp]
	executor *Executor
	guard    callGuard
}

// NewServerStreamCall starts a server-streaming RPC synchronously.
func NewServerStreamCall[Req, Resp any](ctx context.Context, executor *Executor, init rpcq.ServerStreamInitiator[Req, Resp], cctx rpcq.ClientContext, req *Req) *ServerStreamCall[Resp] {
	return &ServerStreamCall[Resp]{reader: init(cctx, req), executor: executorFor(ctx, executor)}
}

// Read awaits the next response message; false means the stream is over
// (check status via Finish) or was cancelled.
func (c *ServerStreamCall[Resp]) Read(ctx context.Context, resp *Resp) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.reader.Read(resp, queue, tag)
	})
}

// Finish awaits the final status.
func (c *ServerStreamCall[Resp]) Finish(ctx context.Context, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.reader.Finish(status, queue, tag)
	})
}

func (c *ServerStreamCall[Resp]) Close() { c.guard.assertNoOutstanding() }

// BidiCall is the call wrapper a bidirectional-streaming initiator yields.
type BidiCall[Req, Resp any] struct {
	stream   rpcq.BidiStream[Req, Resp]
	executor *Executor
	guard    callGuard
}

// NewBidiCall starts a bidirectional-streaming RPC synchronously.
func NewBidiCall[Req, Resp any](ctx context.Context, executor *Executor, init rpcq.BidiInitiator[Req, Resp], cctx rpcq.ClientContext) *BidiCall[Req, Resp] {
	return &BidiCall[Req, Resp]{stream: init(cctx), executor: executorFor(ctx, executor)}
}

func (c *BidiCall[Req, Resp]) Read(ctx context.Context, resp *Resp) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.stream.Read(resp, queue, tag)
	})
}

func (c *BidiCall[Req, Resp]) Write(ctx context.Context, req *Req) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.stream.Write(req, queue, tag)
	})
}

func (c *BidiCall[Req, Resp]) WritesDone(ctx context.Context) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.stream.WritesDone(queue, tag)
	})
}

func (c *BidiCall[Req, Resp]) Finish(ctx context.Context, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.stream.Finish(status, queue, tag)
	})
}

func (c *BidiCall[Req, Resp]) Close() { c.guard.assertNoOutstanding() }
