package testrpc

import "github.com/ygrebnov/asyncq/rpcq"

// ServerStreamService is an in-memory fake of a single server-streaming
// RPC method: a client sends one request and then Reads a sequence of
// responses until the server ends the stream, after which Finish yields
// the final status.
type ServerStreamService[Req, Resp any] struct {
	incoming chan *serverStreamCallState[Req, Resp]
}

func NewServerStreamService[Req, Resp any]() *ServerStreamService[Req, Resp] {
	return &ServerStreamService[Req, Resp]{incoming: make(chan *serverStreamCallState[Req, Resp], 64)}
}

// Close stops accepting new calls: any RequestCall already waiting
// resumes with ok=false.
func (s *ServerStreamService[Req, Resp]) Close() { close(s.incoming) }

type serverStreamCallState[Req, Resp any] struct {
	req      *Req
	messages chan Resp
	finishCh chan rpcq.Status
}

// Call implements rpcq.ServerStreamInitiator[Req, Resp].
func (s *ServerStreamService[Req, Resp]) Call(cctx rpcq.ClientContext, req *Req) rpcq.ServerStreamReader[Resp] {
	call := &serverStreamCallState[Req, Resp]{
		req:      req,
		messages: make(chan Resp, 64),
		finishCh: make(chan rpcq.Status, 1),
	}
	s.incoming <- call
	return &serverStreamReader[Req, Resp]{call: call}
}

type serverStreamReader[Req, Resp any] struct {
	call *serverStreamCallState[Req, Resp]
}

// Read resumes with ok=false once the server has ended the stream and no
// more buffered responses remain; the final status is then fetched via
// Finish.
func (r *serverStreamReader[Req, Resp]) Read(resp *Resp, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	go func() {
		msg, ok := <-r.call.messages
		if !ok {
			queue.(*Queue).Post(tag, false)
			return
		}
		*resp = msg
		queue.(*Queue).Post(tag, true)
	}()
}

func (r *serverStreamReader[Req, Resp]) Finish(status *rpcq.Status, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	go func() {
		*status = <-r.call.finishCh
		queue.(*Queue).Post(tag, true)
	}()
}

// RequestCall implements rpcq.ServerStreamMethodServer[Req, Resp].
func (s *ServerStreamService[Req, Resp]) RequestCall(sctx rpcq.ServerContext, req *Req, callQueue rpcq.CompletionQueue, notifQueue rpcq.ServerCompletionQueue, tag rpcq.Tag) rpcq.ServerStreamResponder[Resp] {
	responder := &serverStreamResponder[Req, Resp]{}
	go func() {
		call, ok := <-s.incoming
		if !ok {
			notifQueue.(*Queue).Post(tag, false)
			return
		}
		*req = *call.req
		responder.call = call
		notifQueue.(*Queue).Post(tag, true)
	}()
	return responder
}

type serverStreamResponder[Req, Resp any] struct {
	call *serverStreamCallState[Req, Resp]
}

func (r *serverStreamResponder[Req, Resp]) Write(resp *Resp, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	msg := *resp
	go func() {
		r.call.messages <- msg
		queue.(*Queue).Post(tag, true)
	}()
}

func (r *serverStreamResponder[Req, Resp]) WriteAndFinish(resp *Resp, status *rpcq.Status, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	msg, st := *resp, *status
	go func() {
		r.call.messages <- msg
		close(r.call.messages)
		r.call.finishCh <- st
		queue.(*Queue).Post(tag, true)
	}()
}

// Finish ends the stream without a final message, e.g. when a handler
// aborts after writing only some of its responses.
func (r *serverStreamResponder[Req, Resp]) Finish(status *rpcq.Status, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	st := *status
	go func() {
		close(r.call.messages)
		r.call.finishCh <- st
		queue.(*Queue).Post(tag, true)
	}()
}
