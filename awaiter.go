package asyncq

import (
	"context"

	"github.com/ygrebnov/asyncq/rpcq"
)

// tagOp is the generic "initiate an operation with a tag and suspend"
// awaiter. post is handed the calling Task's bound queue and a tag; it
// must arrange for that tag to eventually come back out of the queue.
// tagOp blocks until it does and returns ok. When ok is false it marks the
// calling Task's promise cancelled; an ok=true completion leaves the flag
// as it is, so it is never cleared once set.
//
// tagOp is the single primitive every call wrapper and Alarm is built on.
func tagOp(ctx context.Context, executor *Executor, post func(queue rpcq.CompletionQueue, tag rpcq.Tag)) bool {
	if executor == nil {
		panic(Namespace + ": operation awaited with no bound executor")
	}

	w := executor.getTagWaiter()
	defer executor.putTagWaiter(w)

	executor.NoteTagPosted()
	post(executor.Queue(), w)
	ok := <-w.resultCh

	if !ok {
		if c := currentOf(ctx); c != nil && c.promise != nil {
			c.promise.propagateCancel(true)
		}
	}
	return ok
}

// executorFor resolves which Executor an operation should post against:
// the explicit one if given, otherwise the calling Task's own executor.
func executorFor(ctx context.Context, explicit *Executor) *Executor {
	if explicit != nil {
		return explicit
	}
	return CurrentExecutor(ctx)
}
