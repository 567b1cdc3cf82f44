package testrpc

import "github.com/ygrebnov/asyncq/rpcq"

// UnaryService is an in-memory fake of a single unary RPC method: a
// client's Call feeds a request onto incoming, a server's RequestCall
// pulls it off and hands back a responder, and the two sides rendezvous
// over a per-call result channel — the same producer/consumer-over-channel
// shape as the rest of this module's dispatch.
type UnaryService[Req, Resp any] struct {
	incoming chan *unaryCallState[Req, Resp]
}

func NewUnaryService[Req, Resp any]() *UnaryService[Req, Resp] {
	return &UnaryService[Req, Resp]{incoming: make(chan *unaryCallState[Req, Resp], 64)}
}

// Close stops accepting new calls: any RequestCall already waiting
// resumes with ok=false, which is exactly how a real method server
// reports "the server is shutting down" to the accept loop.
func (s *UnaryService[Req, Resp]) Close() { close(s.incoming) }

type unaryCallState[Req, Resp any] struct {
	req    *Req
	respCh chan unaryResult[Resp]
}

type unaryResult[Resp any] struct {
	resp   *Resp
	status rpcq.Status
}

// Call implements rpcq.UnaryInitiator[Req, Resp].
func (s *UnaryService[Req, Resp]) Call(cctx rpcq.ClientContext, req *Req) rpcq.UnaryReader[Resp] {
	call := &unaryCallState[Req, Resp]{req: req, respCh: make(chan unaryResult[Resp], 1)}
	s.incoming <- call
	return &unaryReader[Req, Resp]{call: call}
}

type unaryReader[Req, Resp any] struct {
	call *unaryCallState[Req, Resp]
}

func (r *unaryReader[Req, Resp]) Finish(resp *Resp, status *rpcq.Status, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	go func() {
		res := <-r.call.respCh
		*resp = *res.resp
		*status = res.status
		queue.(*Queue).Post(tag, true)
	}()
}

// RequestCall implements rpcq.UnaryMethodServer[Req, Resp].
func (s *UnaryService[Req, Resp]) RequestCall(sctx rpcq.ServerContext, req *Req, callQueue rpcq.CompletionQueue, notifQueue rpcq.ServerCompletionQueue, tag rpcq.Tag) rpcq.ServerUnaryResponder[Resp] {
	responder := &unaryResponder[Req, Resp]{}
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

type unaryResponder[Req, Resp any] struct {
	call *unaryCallState[Req, Resp]
}

func (r *unaryResponder[Req, Resp]) Finish(resp *Resp, status *rpcq.Status, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	go func() {
		r.call.respCh <- unaryResult[Resp]{resp: resp, status: *status}
		queue.(*Queue).Post(tag, true)
	}()
}

func (r *unaryResponder[Req, Resp]) FinishWithError(status *rpcq.Status, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	var zero Resp
	r.Finish(&zero, status, queue, tag)
}

// FixedReader is a minimal UnaryReader fake that finishes immediately with
// a fixed response and status — for tests that only need to control one
// call's outcome directly, such as a retry policy's sequencing.
type FixedReader[Resp any] struct {
	Resp   Resp
	Status rpcq.Status
}

func (r *FixedReader[Resp]) Finish(resp *Resp, status *rpcq.Status, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	go func() {
		*resp = r.Resp
		*status = r.Status
		queue.(*Queue).Post(tag, true)
	}()
}
