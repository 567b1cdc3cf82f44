package asyncq

import (
	"context"
)

type currentKey struct{}

type current struct {
	executor *Executor
	promise  rawPromise
}

func withCurrent(ctx context.Context, executor *Executor, p rawPromise) context.Context {
	return context.WithValue(ctx, currentKey{}, &current{executor: executor, promise: p})
}

func currentOf(ctx context.Context) *current {
	c, _ := ctx.Value(currentKey{}).(*current)
	return c
}

// CurrentExecutor returns the Executor the calling Task body is bound to,
// or nil if called outside any Task (e.g. directly from a test or from
// main). Awaiters and Go use this to discover "the same executor."
func CurrentExecutor(ctx context.Context) *Executor {
	if c := currentOf(ctx); c != nil {
		return c.executor
	}
	return nil
}

// Task is a move-only handle to a suspended computation returning T. The
// zero value is Unstarted. A Task must be consumed exactly once: Await
// it, Spawn it onto an Executor, or Drop it.
type Task[T any] struct {
	fn       func(context.Context) T
	p        *promise[T]
	state    *int32
	consumed bool
}

// NewTask creates an Unstarted Task wrapping fn. Nothing runs until the
// Task is Awaited or Spawned.
func NewTask[T any](fn func(context.Context) T) Task[T] {
	return Task[T]{fn: fn}
}

// State reports the Task's current status tag.
func (t *Task[T]) State() TaskState {
	switch {
	case t.p == nil:
		return StateUnstarted
	case !t.p.finished.Load():
		return StateSuspended
	case t.p.cancelled.Load():
		return StateCancelled
	default:
		return StateDone
	}
}

func (t *Task[T]) assertLive() {
	if t.consumed {
		panic(ErrTaskConsumed)
	}
}

// Drop releases an Unstarted or already-completed Task. Dropping a
// Suspended task is a programming error: the frame must be destroyed
// exactly once, either Unstarted or after Done/Cancelled.
func (t *Task[T]) Drop() {
	t.assertLive()
	if t.p != nil && !t.p.finished.Load() {
		panicSuspendedDestroyed()
	}
	t.consumed = true
}

// start launches fn in its own goroutine bound to executor. This is the
// single place a Task's frame comes into existence: a promise plus a
// goroutine that owns it for its lifetime.
func start[T any](ctx context.Context, executor *Executor, fn func(context.Context) T) *promise[T] {
	p := newPromise[T](executor)
	go func() {
		childCtx := withCurrent(ctx, executor, p)
		defer func() {
			if r := recover(); r != nil {
				log().Error().Interface("panic", r).Msg("task body panicked")
				p.cancelled.Store(true)
			}
			if p.cancelled.Load() {
				p.setState(StateCancelled)
			} else {
				p.setState(StateDone)
			}
			p.finished.Store(true)
			close(p.done)
		}()
		p.result = fn(childCtx)
	}()
	return p
}

// Go starts a sibling computation eagerly on the current Task's executor.
// It begins running immediately; if it completes before the caller ever
// Awaits the returned handle, Awaiting it later is a no-op resumption
// that just reads the stored result.
func Go[T any](ctx context.Context, fn func(context.Context) T) Task[T] {
	executor := CurrentExecutor(ctx)
	p := start(ctx, executor, fn)
	return Task[T]{fn: fn, p: p}
}

// Spawn detaches t onto executor: it runs to completion there, and any
// cancellation propagation dies at this boundary. The handle is consumed.
func (t *Task[T]) Spawn(ctx context.Context, executor *Executor) {
	t.assertLive()
	if t.p == nil {
		t.p = start(ctx, executor, t.fn)
	}
	t.consumed = true
}

// Spawn is the package-level form: spawn(executor, task).
func Spawn[T any](ctx context.Context, executor *Executor, t Task[T]) {
	t.Spawn(ctx, executor)
}

// Await suspends the calling Task until t completes, propagating
// cancellation upward: if t completes cancelled, the calling Task's own
// promise is marked cancelled before Await returns. The awaited task's
// handle is consumed.
func (t *Task[T]) Await(ctx context.Context) T {
	t.assertLive()
	t.consumed = true

	if t.p == nil {
		// Unstarted: start it now, bound to the caller's executor, and
		// record the caller as parent for introspection.
		executor := CurrentExecutor(ctx)
		t.p = start(ctx, executor, t.fn)
	}

	if caller := currentOf(ctx); caller != nil {
		t.p.parent = caller.promise
	}

	<-t.p.done

	if t.p.cancelled.Load() {
		if caller := currentOf(ctx); caller != nil && caller.promise != nil {
			caller.promise.propagateCancel(true)
		}
	}

	return t.p.result
}
