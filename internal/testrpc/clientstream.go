package testrpc

import "github.com/ygrebnov/asyncq/rpcq"

// ClientStreamService is an in-memory fake of a single client-streaming
// RPC method: a client Writes a sequence of requests and calls
// WritesDone, a server Reads them one at a time until the stream is
// exhausted and then Finishes with a single response.
type ClientStreamService[Req, Resp any] struct {
	incoming chan *clientStreamCallState[Req, Resp]
}

func NewClientStreamService[Req, Resp any]() *ClientStreamService[Req, Resp] {
	return &ClientStreamService[Req, Resp]{incoming: make(chan *clientStreamCallState[Req, Resp], 64)}
}

// Close stops accepting new calls: any RequestCall already waiting
// resumes with ok=false.
func (s *ClientStreamService[Req, Resp]) Close() { close(s.incoming) }

type clientStreamCallState[Req, Resp any] struct {
	reqs     chan *Req
	finishCh chan clientStreamResult[Resp]
}

type clientStreamResult[Resp any] struct {
	resp   *Resp
	status rpcq.Status
}

// Call implements rpcq.ClientStreamInitiator[Req, Resp].
func (s *ClientStreamService[Req, Resp]) Call(cctx rpcq.ClientContext, resp *Resp) rpcq.ClientStreamWriter[Req] {
	call := &clientStreamCallState[Req, Resp]{
		reqs:     make(chan *Req, 64),
		finishCh: make(chan clientStreamResult[Resp], 1),
	}
	s.incoming <- call
	return &clientStreamWriter[Req, Resp]{call: call, resp: resp}
}

type clientStreamWriter[Req, Resp any] struct {
	call *clientStreamCallState[Req, Resp]
	resp *Resp
}

func (w *clientStreamWriter[Req, Resp]) Write(req *Req, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	cp := *req
	go func() {
		w.call.reqs <- &cp
		queue.(*Queue).Post(tag, true)
	}()
}

func (w *clientStreamWriter[Req, Resp]) WritesDone(queue rpcq.CompletionQueue, tag rpcq.Tag) {
	go func() {
		close(w.call.reqs)
		queue.(*Queue).Post(tag, true)
	}()
}

func (w *clientStreamWriter[Req, Resp]) Finish(status *rpcq.Status, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	go func() {
		res := <-w.call.finishCh
		*w.resp = *res.resp
		*status = res.status
		queue.(*Queue).Post(tag, true)
	}()
}

// RequestCall implements rpcq.ClientStreamMethodServer[Req, Resp].
func (s *ClientStreamService[Req, Resp]) RequestCall(sctx rpcq.ServerContext, callQueue rpcq.CompletionQueue, notifQueue rpcq.ServerCompletionQueue, tag rpcq.Tag) rpcq.ServerClientStreamResponder[Req, Resp] {
	responder := &clientStreamResponder[Req, Resp]{}
	go func() {
		call, ok := <-s.incoming
		if !ok {
			notifQueue.(*Queue).Post(tag, false)
			return
		}
		responder.call = call
		notifQueue.(*Queue).Post(tag, true)
	}()
	return responder
}

type clientStreamResponder[Req, Resp any] struct {
	call *clientStreamCallState[Req, Resp]
}

// Read resumes with ok=false once the client has called WritesDone and no
// more buffered requests remain, the same "stream exhausted" signal a real
// method server reports through the framing bit.
func (r *clientStreamResponder[Req, Resp]) Read(req *Req, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	go func() {
		next, ok := <-r.call.reqs
		if !ok {
			queue.(*Queue).Post(tag, false)
			return
		}
		*req = *next
		queue.(*Queue).Post(tag, true)
	}()
}

func (r *clientStreamResponder[Req, Resp]) Finish(resp *Resp, status *rpcq.Status, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	res := clientStreamResult[Resp]{resp: resp, status: *status}
	go func() {
		r.call.finishCh <- res
		queue.(*Queue).Post(tag, true)
	}()
}

// FinishWithError ends the stream early, e.g. when a handler aborts after
// reading only some of the client's requests.
func (r *clientStreamResponder[Req, Resp]) FinishWithError(status *rpcq.Status, queue rpcq.CompletionQueue, tag rpcq.Tag) {
	var zero Resp
	r.Finish(&zero, status, queue, tag)
}
