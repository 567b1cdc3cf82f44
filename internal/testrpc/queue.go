// Package testrpc is an in-memory fake of the rpcq abstract surface,
// used only by this module's own tests: it lets call wrappers, the
// server accept loop, and Alarm be exercised without a real RPC library
// underneath.
package testrpc

import (
	"sync"

	"github.com/ygrebnov/asyncq/rpcq"
)

type completion struct {
	tag rpcq.Tag
	ok  bool
}

// Queue is a FIFO rpcq.CompletionQueue/ServerCompletionQueue fake backed
// by a mutex-guarded slice and a condition variable, the same shape as
// the real library's MPSC queue: Post from any goroutine, Next blocks
// until something is posted or Shutdown drains it.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  []completion
	shutdown bool
}

// NewQueue constructs an empty, live Queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Post enqueues a completion for a later Next to return.
func (q *Queue) Post(tag rpcq.Tag, ok bool) {
	q.mu.Lock()
	q.pending = append(q.pending, completion{tag: tag, ok: ok})
	q.cond.Signal()
	q.mu.Unlock()
}

// Next implements rpcq.CompletionQueue.
func (q *Queue) Next() (rpcq.Tag, bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) == 0 && !q.shutdown {
		q.cond.Wait()
	}
	if len(q.pending) == 0 {
		return nil, false, false
	}
	c := q.pending[0]
	q.pending = q.pending[1:]
	return c.tag, c.ok, true
}

// Shutdown implements rpcq.CompletionQueue. Already-pending completions
// are still delivered; Next only starts returning live=false once drained.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	q.shutdown = true
	q.cond.Broadcast()
	q.mu.Unlock()
}
