package asyncq

import (
	"sync"
	"time"

	"github.com/ygrebnov/asyncq/metrics"
	"github.com/ygrebnov/asyncq/pool"
	"github.com/ygrebnov/asyncq/rpcq"
)

// ExecutorOption configures an Executor using the functional-options
// shape: With... constructors over a builder struct consumed once.
type ExecutorOption func(*executorConfig)

type executorConfig struct {
	metrics metrics.Provider
	tagPool pool.Pool
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{metrics: metrics.NewNoopProvider(), tagPool: tagWaiterPool}
}

// WithExecutorMetrics attaches a metrics.Provider the Executor records
// poll-loop latency and in-flight-task counts into.
func WithExecutorMetrics(p metrics.Provider) ExecutorOption {
	return func(c *executorConfig) { c.metrics = p }
}

// WithTagPool overrides the pool an Executor draws *tagWaiter values from.
// Ad hoc client-side executors share the package-level dynamic pool by
// default; a Server sizes one fixed pool to its executor count times its
// threads per executor and passes it to every ServerExecutor it
// constructs, since server-side tag churn
// is bounded by listener count.
func WithTagPool(p pool.Pool) ExecutorOption {
	return func(c *executorConfig) { c.tagPool = p }
}

// Executor owns one completion queue and pumps it. Its
// address is referenced by every worker goroutine and by every in-flight
// awaiter's captured context; it is neither copyable nor movable once
// constructed (Go enforces this simply by always handling *Executor).
type Executor struct {
	queue   rpcq.CompletionQueue
	metrics metrics.Provider
	tagPool pool.Pool

	shutdownOnce sync.Once

	pollLatency  metrics.Histogram
	inFlight     metrics.UpDownCounter
	tagsConsumed metrics.Counter
}

// NewExecutor constructs an Executor bound to queue.
func NewExecutor(queue rpcq.CompletionQueue, opts ...ExecutorOption) *Executor {
	cfg := defaultExecutorConfig()
	for _, o := range opts {
		o(&cfg)
	}

	e := &Executor{queue: queue, metrics: cfg.metrics, tagPool: cfg.tagPool}
	e.pollLatency = cfg.metrics.Histogram(
		"asyncq_executor_poll_latency_seconds",
		metrics.WithDescription("time spent blocked in CompletionQueue.Next per tick"),
		metrics.WithUnit("s"),
	)
	e.inFlight = cfg.metrics.UpDownCounter(
		"asyncq_executor_in_flight_tags",
		metrics.WithDescription("tags currently outstanding on this executor's queue"),
	)
	e.tagsConsumed = cfg.metrics.Counter(
		"asyncq_executor_tags_consumed_total",
		metrics.WithDescription("tags decoded and resumed by this executor"),
	)
	return e
}

// Queue returns the completion queue this Executor pumps.
func (e *Executor) Queue() rpcq.CompletionQueue { return e.queue }

// Metrics returns the provider this Executor was constructed with, for
// callers (e.g. the retry loop) that record their own instruments against
// the same provider an Executor's own instruments live in.
func (e *Executor) Metrics() metrics.Provider { return e.metrics }

// Poll blocks on one queue.Next(), decodes and resumes the matching
// coroutine if live, and reports whether the queue is still live: true if
// the queue is still live, false if shutdown drained it.
func (e *Executor) Poll() bool {
	start := time.Now()
	tag, ok, live := e.queue.Next()
	e.pollLatency.Record(time.Since(start).Seconds())

	if !live {
		return false
	}

	e.tagsConsumed.Add(1)
	if w, isWaiter := tag.(*tagWaiter); isWaiter {
		e.inFlight.Add(-1)
		w.deliver(ok)
	}
	return true
}

// NoteTagPosted increments the in-flight-tags gauge. Call wrappers and
// Alarm call this right before posting an operation so the gauge reflects
// outstanding work even while the poll loop is blocked in Next().
func (e *Executor) NoteTagPosted() {
	e.inFlight.Add(1)
}

func (e *Executor) getTagWaiter() *tagWaiter {
	return e.tagPool.Get().(*tagWaiter)
}

func (e *Executor) putTagWaiter(w *tagWaiter) {
	e.tagPool.Put(w)
}

// Shutdown signals the underlying queue to drain. Idempotent.
func (e *Executor) Shutdown() {
	e.shutdownOnce.Do(func() {
		log().Debug().Msg("executor shutdown requested")
		e.queue.Shutdown()
	})
}
