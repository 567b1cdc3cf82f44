package asyncq

import (
	"github.com/ygrebnov/asyncq/pool"
)

// tagWaiter is the control block an operation's tag decodes to: the tag
// is a pointer to the suspended goroutine's resumable handle. "Resuming
// the coroutine" is delivering the framing-bit on resultCh, which
// unblocks the goroutine parked in tagOp.
type tagWaiter struct {
	resultCh chan bool
}

// tagWaiterPool recycles *tagWaiter values across operations instead of
// allocating one per suspend.
var tagWaiterPool pool.Pool = pool.NewDynamic(func() interface{} {
	return &tagWaiter{resultCh: make(chan bool)}
})

func getTagWaiter() *tagWaiter {
	return tagWaiterPool.Get().(*tagWaiter)
}

func putTagWaiter(w *tagWaiter) {
	tagWaiterPool.Put(w)
}

// deliver is invoked by an Executor's poll loop once a tag decodes back to
// this waiter: resuming just means sending the framing-bit to unblock the
// parked goroutine.
func (w *tagWaiter) deliver(ok bool) {
	w.resultCh <- ok
}
