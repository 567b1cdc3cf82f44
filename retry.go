package asyncq

import (
	"context"
	"time"

	"github.com/ygrebnov/asyncq/metrics"
	"github.com/ygrebnov/asyncq/rpcq"
)

// RetryPolicy maps an observed Status to an optional backoff delay. A
// retry=false return means the status is terminal — no further attempt is
// made.
type RetryPolicy func(status Status, attempt int) (delay time.Duration, retry bool)

// DefaultRetryPolicy retries CodeUnavailable using DefaultRetryDelays, up
// to len(DefaultRetryDelays) retries (6 attempts total); every other
// status is terminal.
func DefaultRetryPolicy(status Status, attempt int) (time.Duration, bool) {
	if status.Code() != CodeUnavailable {
		return 0, false
	}
	if attempt > len(DefaultRetryDelays) {
		return 0, false
	}
	return DefaultRetryDelays[attempt-1], true
}

// ClientContextProvider produces a fresh per-attempt client context. Each
// retry attempt gets its own ClientContext: reusing one across attempts
// would let a prior attempt's cancellation bleed into the next.
type ClientContextProvider func() rpcq.ClientContext

// RetryOptions configures AutoRetryUnary.
type RetryOptions struct {
	RetryPolicy            RetryPolicy
	ClientContextProvider ClientContextProvider
}

// DefaultClientContextProvider is supplied by the rpcq adapter; asyncq has
// no concrete ClientContext of its own to construct, so callers must set
// RetryOptions.ClientContextProvider themselves when not passing a fixed
// one. This var exists so RetryOptions{} has a documented hook name
// mirroring DefaultRetryPolicy — it panics if left unset and used.
var DefaultClientContextProvider ClientContextProvider = func() rpcq.ClientContext {
	panic(Namespace + ": no ClientContextProvider configured")
}

func defaultRetryOptions() RetryOptions {
	return RetryOptions{RetryPolicy: DefaultRetryPolicy, ClientContextProvider: DefaultClientContextProvider}
}

// AutoRetryUnary drives init to completion, retrying per opts.RetryPolicy
// on the status it observes. It returns the framing-bit from the final
// attempt and the final status. The response each attempt's Finish writes
// is not returned to the caller.
func AutoRetryUnary[Req, Resp any](ctx context.Context, executor *Executor, init rpcq.UnaryInitiator[Req, Resp], req *Req, opts RetryOptions) (bool, Status) {
	if opts.RetryPolicy == nil {
		opts.RetryPolicy = DefaultRetryPolicy
	}
	if opts.ClientContextProvider == nil {
		opts.ClientContextProvider = DefaultClientContextProvider
	}

	attempt := 0
	for {
		attempt++
		cctx := opts.ClientContextProvider()
		call := NewUnaryCall[Req, Resp](ctx, executor, init, cctx, req)
		var resp Resp
		var status Status
		ok := call.Finish(ctx, &resp, &status)
		call.Close()

		if !ok {
			return false, status
		}
		if status.Ok() {
			return true, status
		}

		delay, retry := opts.RetryPolicy(status, attempt)
		if !retry {
			return true, status
		}

		retryAttemptsCounter(executor.Metrics(), status.Code()).Add(1)
		log().Debug().
			Str("code", CodeString(status.Code())).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("retrying unary call")

		alarm := sleepTimer(ctx, executor, delay)
		if !alarm {
			return false, status
		}
	}
}

// retryAttemptsCounter returns the per-status-code retry-attempt counter,
// named after the observed code since Counter carries no attribute set to
// tag a single shared instrument with.
func retryAttemptsCounter(p metrics.Provider, code Code) metrics.Counter {
	return p.Counter(
		"asyncq_retry_attempts_"+CodeString(code)+"_total",
		metrics.WithDescription("unary call attempts retried after observing this status code"),
	)
}

// sleepTimer blocks for d using a plain timer rather than the rpcq Alarm
// tag protocol: the retry loop's backoff is internal bookkeeping, not an
// RPC-library operation, so it does not need a completion-queue round
// trip. It returns false if ctx is cancelled first.
func sleepTimer(ctx context.Context, executor *Executor, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
