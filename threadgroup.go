package asyncq

import (
	"sync"

	"github.com/ygrebnov/asyncq/rpcq"
)

// ExecutorThreadGroup owns one Executor and N worker goroutines driving
// it. Each worker runs `for executor.Poll() {}`; on group Shutdown, the
// executor is shut down and all workers are joined.
type ExecutorThreadGroup struct {
	executor *Executor
	wg       sync.WaitGroup
	seq      *shutdownSequence

	startOnce sync.Once
}

// NewExecutorThreadGroup constructs an Executor around queue and starts
// nThreads workers pumping it. nThreads <= 0 defaults to
// DefaultThreadsPerExecutor (2).
func NewExecutorThreadGroup(queue rpcq.CompletionQueue, nThreads int, opts ...ExecutorOption) *ExecutorThreadGroup {
	if nThreads <= 0 {
		nThreads = DefaultThreadsPerExecutor
	}

	g := &ExecutorThreadGroup{executor: NewExecutor(queue, opts...)}
	g.seq = newShutdownSequence(g.executor.Shutdown, g.wg.Wait)
	g.start(nThreads)
	return g
}

func (g *ExecutorThreadGroup) start(nThreads int) {
	g.startOnce.Do(func() {
		for i := 0; i < nThreads; i++ {
			g.wg.Add(1)
			go func() {
				defer g.wg.Done()
				for g.executor.Poll() {
				}
			}()
		}
	})
}

// Executor returns the Executor this group drives.
func (g *ExecutorThreadGroup) Executor() *Executor { return g.executor }

// Shutdown signals the executor to drain and joins every worker, via the
// same ordered-once shutdownSequence a Server runs across all of its
// executor groups. Safe to call multiple times; concurrent callers all
// block until the first call's workers have joined.
func (g *ExecutorThreadGroup) Shutdown() {
	g.seq.run()
}
