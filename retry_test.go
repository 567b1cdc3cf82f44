package asyncq

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ygrebnov/asyncq/internal/testrpc"
	"github.com/ygrebnov/asyncq/rpcq"
)

func TestDefaultRetryPolicySequence(t *testing.T) {
	for attempt := 1; attempt <= len(DefaultRetryDelays); attempt++ {
		delay, retry := DefaultRetryPolicy(NewStatus(CodeUnavailable, ""), attempt)
		if !retry {
			t.Fatalf("attempt %d: got retry=false, want true", attempt)
		}
		if delay != DefaultRetryDelays[attempt-1] {
			t.Fatalf("attempt %d: got delay %v, want %v", attempt, delay, DefaultRetryDelays[attempt-1])
		}
	}

	if _, retry := DefaultRetryPolicy(NewStatus(CodeUnavailable, ""), len(DefaultRetryDelays)+1); retry {
		t.Fatalf("attempt beyond schedule: got retry=true, want false")
	}
	if _, retry := DefaultRetryPolicy(NewStatus(CodeNotFound, ""), 1); retry {
		t.Fatalf("non-UNAVAILABLE status: got retry=true, want false")
	}
}

func TestAutoRetryUnarySucceedsAfterUnavailable(t *testing.T) {
	executor, _ := newTestExecutor()
	go func() {
		for executor.Poll() {
		}
	}()
	defer executor.Shutdown()

	ctx := withCurrent(context.Background(), executor, nil)

	var calls atomic.Int32
	init := func(cctx rpcq.ClientContext, req *int) rpcq.UnaryReader[int] {
		n := calls.Add(1)
		if n < 3 {
			return &testrpc.FixedReader[int]{Status: NewStatus(CodeUnavailable, "down")}
		}
		return &testrpc.FixedReader[int]{Resp: *req * 2, Status: NewStatus(CodeOK, "")}
	}

	opts := RetryOptions{
		RetryPolicy: func(status Status, attempt int) (time.Duration, bool) {
			if status.Code() != CodeUnavailable {
				return 0, false
			}
			return time.Millisecond, true
		},
		ClientContextProvider: func() rpcq.ClientContext { return &testrpc.Context{} },
	}

	req := 21
	ok, status := AutoRetryUnary[int, int](ctx, executor, init, &req, opts)
	if !ok {
		t.Fatalf("AutoRetryUnary: got ok=false, want true")
	}
	if !status.Ok() {
		t.Fatalf("AutoRetryUnary: final status not OK: %v", status.Code())
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("AutoRetryUnary: got %d attempts, want 3", got)
	}
}

func TestAutoRetryUnaryTerminalStatusStopsImmediately(t *testing.T) {
	executor, _ := newTestExecutor()
	go func() {
		for executor.Poll() {
		}
	}()
	defer executor.Shutdown()

	ctx := withCurrent(context.Background(), executor, nil)

	var calls atomic.Int32
	init := func(cctx rpcq.ClientContext, req *int) rpcq.UnaryReader[int] {
		calls.Add(1)
		return &testrpc.FixedReader[int]{Status: NewStatus(CodeNotFound, "missing")}
	}

	opts := RetryOptions{
		ClientContextProvider: func() rpcq.ClientContext { return &testrpc.Context{} },
	}

	req := 1
	ok, status := AutoRetryUnary[int, int](ctx, executor, init, &req, opts)
	if !ok {
		t.Fatalf("AutoRetryUnary: got ok=false, want true (framing bit, not rpc status)")
	}
	if status.Code() != CodeNotFound {
		t.Fatalf("AutoRetryUnary: got code %v, want NotFound", status.Code())
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("AutoRetryUnary: got %d attempts for a terminal status, want 1", got)
	}
}
