package asyncq

import (
	"context"
	"errors"
	"sync"
)

// BatchFunc is one unit of batch work: a plain function rather than a
// Task[T], since batch callers commonly need an error alongside the
// value, and Task[T] (the core runtime primitive) deliberately carries no
// error channel of its own — errors are a call-site concern, reported via
// Status.
type BatchFunc[T any] func(context.Context) (T, error)

// RunAll spawns every fn in tasks as a sibling Task on executor and
// collects their results (supplemented feature: useful for fanning client
// calls across a ChannelProvider, not itself part of the distilled
// runtime). By default results are returned in completion order;
// WithPreserveOrder restores submission order via orderedCollector.
// WithStopOnError cancels the shared context after the first error and
// stops submitting further items. The returned error is errors.Join of
// every per-call error, each tagged via newCallTaggedError so
// ExtractCallIndex can recover which call failed.
func RunAll[T any](ctx context.Context, executor *Executor, tasks []BatchFunc[T], opts ...BatchOption) ([]T, error) {
	cfg := defaultBatchConfig()
	for _, o := range opts {
		o(&cfg)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	raw := make(chan completionEvent[T], len(tasks))
	sink := (<-chan completionEvent[T])(raw)
	if cfg.preserveOrder {
		ordered := make(chan completionEvent[T], len(tasks))
		collector := newOrderedCollector[T](raw, ordered)
		go collector.run(len(tasks))
		sink = ordered
	}

	bound := withCurrent(runCtx, executor, nil)

	var wg sync.WaitGroup
	handles := make([]Task[struct{}], 0, len(tasks))
	started := 0
	for i, fn := range tasks {
		if cfg.stopOnError && runCtx.Err() != nil {
			break
		}
		idx, userFn := i, fn
		wg.Add(1)
		h := Go(bound, func(c context.Context) struct{} {
			defer wg.Done()
			v, err := userFn(c)
			if err != nil {
				err = newCallTaggedError(err, idx, "")
				if cfg.stopOnError {
					cancel()
				}
			}
			raw <- completionEvent[T]{idx: idx, val: v, err: err}
			return struct{}{}
		})
		handles = append(handles, h)
		started++
	}
	go func() { wg.Wait(); close(raw) }()

	results := make([]T, started)
	var errs []error
	for i := 0; i < started; i++ {
		ev := <-sink
		results[i] = ev.val
		if ev.err != nil {
			errs = append(errs, ev.err)
		}
	}

	for i := range handles {
		handles[i].Await(bound)
	}

	return results, errors.Join(errs...)
}

// Map applies fn to every item concurrently via RunAll and returns the
// outputs.
func Map[In, Out any](ctx context.Context, executor *Executor, items []In, fn func(context.Context, In) (Out, error), opts ...BatchOption) ([]Out, error) {
	tasks := make([]BatchFunc[Out], len(items))
	for i, item := range items {
		item := item
		tasks[i] = func(c context.Context) (Out, error) { return fn(c, item) }
	}
	return RunAll(ctx, executor, tasks, opts...)
}

// ForEach applies fn to every item concurrently via RunAll, discarding
// results and returning only the joined error.
func ForEach[In any](ctx context.Context, executor *Executor, items []In, fn func(context.Context, In) error, opts ...BatchOption) error {
	tasks := make([]BatchFunc[struct{}], len(items))
	for i, item := range items {
		item := item
		tasks[i] = func(c context.Context) (struct{}, error) { return struct{}{}, fn(c, item) }
	}
	_, err := RunAll(ctx, executor, tasks, opts...)
	return err
}
