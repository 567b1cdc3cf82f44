package rpcq

// The four RPC-shape reader/writer contracts: for each RPC method, four
// async initiators and their reader/writer objects parameterized by
// request/response types. Each operation here is posted with an explicit
// queue/tag pair; asyncq's call wrappers own suspension, these just
// describe what the underlying library must let a caller post.

// UnaryReader is what a unary call's initiator yields. Finish posts the
// single operation that both reads the response and the final status.
type UnaryReader[Resp any] interface {
	Finish(resp *Resp, status *Status, queue CompletionQueue, tag Tag)
}

// ClientStreamWriter is what a client-streaming call's initiator yields.
type ClientStreamWriter[Req any] interface {
	Write(req *Req, queue CompletionQueue, tag Tag)
	WritesDone(queue CompletionQueue, tag Tag)
	Finish(status *Status, queue CompletionQueue, tag Tag)
}

// ServerStreamReader is what a server-streaming call's initiator yields.
type ServerStreamReader[Resp any] interface {
	Read(resp *Resp, queue CompletionQueue, tag Tag)
	Finish(status *Status, queue CompletionQueue, tag Tag)
}

// BidiStream is what a bidirectional-streaming call's initiator yields.
type BidiStream[Req, Resp any] interface {
	Read(resp *Resp, queue CompletionQueue, tag Tag)
	Write(req *Req, queue CompletionQueue, tag Tag)
	WritesDone(queue CompletionQueue, tag Tag)
	Finish(status *Status, queue CompletionQueue, tag Tag)
}

// UnaryInitiator starts a unary call synchronously and returns its reader.
type UnaryInitiator[Req, Resp any] func(cctx ClientContext, req *Req) UnaryReader[Resp]

// ClientStreamInitiator starts a client-streaming call synchronously,
// binding the single eventual response into resp, and returns its writer.
type ClientStreamInitiator[Req, Resp any] func(cctx ClientContext, resp *Resp) ClientStreamWriter[Req]

// ServerStreamInitiator starts a server-streaming call synchronously and
// returns its reader.
type ServerStreamInitiator[Req, Resp any] func(cctx ClientContext, req *Req) ServerStreamReader[Resp]

// BidiInitiator starts a bidirectional-streaming call synchronously and
// returns the combined reader/writer.
type BidiInitiator[Req, Resp any] func(cctx ClientContext) BidiStream[Req, Resp]
