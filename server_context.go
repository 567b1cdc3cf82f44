package asyncq

import (
	"context"

	"github.com/ygrebnov/asyncq/rpcq"
)

// Handler contexts: the per-shape object a server handler coroutine is
// handed ownership of. Each wraps the matching rpcq responder plus a
// callGuard enforcing single-flight per call.

// UnaryServerContext is a unary handler's view of an accepted call.
type UnaryServerContext[Req, Resp any] struct {
	Request   *Req
	responder rpcq.ServerUnaryResponder[Resp]
	sctx      rpcq.ServerContext
	executor  *Executor
	guard     callGuard
}

func (c *UnaryServerContext[Req, Resp]) Finish(ctx context.Context, resp *Resp, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.Finish(resp, status, queue, tag)
	})
}

func (c *UnaryServerContext[Req, Resp]) FinishWithError(ctx context.Context, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.FinishWithError(status, queue, tag)
	})
}

// TryCancel cooperatively cancels the underlying server context.
func (c *UnaryServerContext[Req, Resp]) TryCancel() { c.sctx.TryCancel() }

// ClientStreamServerContext is a client-streaming handler's view.
type ClientStreamServerContext[Req, Resp any] struct {
	responder rpcq.ServerClientStreamResponder[Req, Resp]
	sctx      rpcq.ServerContext
	executor  *Executor
	guard     callGuard
}

func (c *ClientStreamServerContext[Req, Resp]) Read(ctx context.Context, req *Req) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.Read(req, queue, tag)
	})
}

func (c *ClientStreamServerContext[Req, Resp]) Finish(ctx context.Context, resp *Resp, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.Finish(resp, status, queue, tag)
	})
}

func (c *ClientStreamServerContext[Req, Resp]) FinishWithError(ctx context.Context, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.FinishWithError(status, queue, tag)
	})
}

func (c *ClientStreamServerContext[Req, Resp]) TryCancel() { c.sctx.TryCancel() }

// ServerStreamServerContext is a server-streaming handler's view.
type ServerStreamServerContext[Req, Resp any] struct {
	Request   *Req
	responder rpcq.ServerStreamResponder[Resp]
	sctx      rpcq.ServerContext
	executor  *Executor
	guard     callGuard
}

func (c *ServerStreamServerContext[Req, Resp]) Write(ctx context.Context, resp *Resp) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.Write(resp, queue, tag)
	})
}

func (c *ServerStreamServerContext[Req, Resp]) WriteAndFinish(ctx context.Context, resp *Resp, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.WriteAndFinish(resp, status, queue, tag)
	})
}

func (c *ServerStreamServerContext[Req, Resp]) Finish(ctx context.Context, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.Finish(status, queue, tag)
	})
}

func (c *ServerStreamServerContext[Req, Resp]) TryCancel() { c.sctx.TryCancel() }

// BidiServerContext is a bidirectional-streaming handler's view.
type BidiServerContext[Req, Resp any] struct {
	responder rpcq.ServerBidiResponder[Req, Resp]
	sctx      rpcq.ServerContext
	executor  *Executor
	guard     callGuard
}

func (c *BidiServerContext[Req, Resp]) Read(ctx context.Context, req *Req) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.Read(req, queue, tag)
	})
}

func (c *BidiServerContext[Req, Resp]) Write(ctx context.Context, resp *Resp) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.Write(resp, queue, tag)
	})
}

func (c *BidiServerContext[Req, Resp]) WriteAndFinish(ctx context.Context, resp *Resp, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.WriteAndFinish(resp, status, queue, tag)
	})
}

func (c *BidiServerContext[Req, Resp]) Finish(ctx context.Context, status *Status) bool {
	c.guard.begin()
	defer c.guard.end()
	return tagOp(ctx, c.executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		c.responder.Finish(status, queue, tag)
	})
}

func (c *BidiServerContext[Req, Resp]) TryCancel() { c.sctx.TryCancel() }
