package asyncq

import (
	"context"
	"testing"
	"time"

	"github.com/ygrebnov/asyncq/internal/testrpc"
	"github.com/ygrebnov/asyncq/rpcq"
)

func newTestServer(t *testing.T, executors int) *Server {
	t.Helper()
	return NewServer(ServerOptions{ExecutorCount: executors, ThreadsPerExecutor: 1}, func() rpcq.ServerCompletionQueue {
		return testrpc.NewQueue()
	})
}

func TestNewServerOptionsBuildsEquivalentServer(t *testing.T) {
	newQueue := func() rpcq.ServerCompletionQueue { return testrpc.NewQueue() }
	server := NewServerOptions(newQueue,
		WithServerExecutorCount(2),
		WithServerThreadsPerExecutor(1),
	)
	if got := len(server.groups); got != 2 {
		t.Fatalf("NewServerOptions: got %d executor groups, want 2", got)
	}
	server.Shutdown()
}

func TestServerUnaryEchoEndToEnd(t *testing.T) {
	svc := testrpc.NewUnaryService[int, int]()
	server := newTestServer(t, 1)

	newCtx := func() rpcq.ServerContext { return &testrpc.Context{} }
	StartListeningUnary[int, int](server, newCtx, svc, func(ctx context.Context, hctx *UnaryServerContext[int, int]) {
		resp := *hctx.Request * 2
		status := NewStatus(CodeOK, "")
		hctx.Finish(ctx, &resp, &status)
	})

	clientExecutor, _ := newTestExecutor()
	go func() {
		for clientExecutor.Poll() {
		}
	}()
	clientCtx := withCurrent(context.Background(), clientExecutor, nil)

	req := 21
	call := NewUnaryCall[int, int](clientCtx, clientExecutor, svc.Call, &testrpc.Context{}, &req)
	var resp int
	var status Status
	ok := call.Finish(clientCtx, &resp, &status)
	call.Close()

	if !ok || !status.Ok() {
		t.Fatalf("unary echo: ok=%v status=%v", ok, status.Code())
	}
	if resp != 42 {
		t.Fatalf("unary echo: got %d, want 42", resp)
	}

	server.Shutdown()
	svc.Close()
	clientExecutor.Shutdown()
}

func TestServerClientStreamSumEndToEnd(t *testing.T) {
	svc := testrpc.NewClientStreamService[int, int]()
	server := newTestServer(t, 1)

	newCtx := func() rpcq.ServerContext { return &testrpc.Context{} }
	StartListeningClientStream[int, int](server, newCtx, svc, func(ctx context.Context, hctx *ClientStreamServerContext[int, int]) {
		sum := 0
		for {
			var req int
			if ok := hctx.Read(ctx, &req); !ok {
				break
			}
			sum += req
		}
		status := NewStatus(CodeOK, "")
		hctx.Finish(ctx, &sum, &status)
	})

	clientExecutor, _ := newTestExecutor()
	go func() {
		for clientExecutor.Poll() {
		}
	}()
	clientCtx := withCurrent(context.Background(), clientExecutor, nil)

	var resp int
	call := NewClientStreamCall[int, int](clientCtx, clientExecutor, svc.Call, &testrpc.Context{}, &resp)
	for _, req := range []int{1, 2, 3} {
		r := req
		if ok := call.Write(clientCtx, &r); !ok {
			t.Fatalf("Write(%d): got ok=false", req)
		}
	}
	if ok := call.WritesDone(clientCtx); !ok {
		t.Fatalf("WritesDone: got ok=false")
	}
	var status Status
	ok := call.Finish(clientCtx, &status)
	call.Close()

	if !ok || !status.Ok() {
		t.Fatalf("client-stream sum: ok=%v status=%v", ok, status.Code())
	}
	if resp != 6 {
		t.Fatalf("client-stream sum: got %d, want 6", resp)
	}

	server.Shutdown()
	svc.Close()
	clientExecutor.Shutdown()
}

func TestServerServerStreamEchoEndToEnd(t *testing.T) {
	svc := testrpc.NewServerStreamService[int, int]()
	server := newTestServer(t, 1)

	newCtx := func() rpcq.ServerContext { return &testrpc.Context{} }
	StartListeningServerStream[int, int](server, newCtx, svc, func(ctx context.Context, hctx *ServerStreamServerContext[int, int]) {
		for i := 1; i <= 3; i++ {
			resp := *hctx.Request * i
			hctx.Write(ctx, &resp)
		}
		status := NewStatus(CodeOK, "")
		hctx.Finish(ctx, &status)
	})

	clientExecutor, _ := newTestExecutor()
	go func() {
		for clientExecutor.Poll() {
		}
	}()
	clientCtx := withCurrent(context.Background(), clientExecutor, nil)

	req := 5
	call := NewServerStreamCall[int, int](clientCtx, clientExecutor, svc.Call, &testrpc.Context{}, &req)
	var got []int
	for {
		var resp int
		if ok := call.Read(clientCtx, &resp); !ok {
			break
		}
		got = append(got, resp)
	}
	var status Status
	ok := call.Finish(clientCtx, &status)
	call.Close()

	if !ok || !status.Ok() {
		t.Fatalf("server-stream echo: ok=%v status=%v", ok, status.Code())
	}
	want := []int{5, 10, 15}
	if len(got) != len(want) {
		t.Fatalf("server-stream echo: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("server-stream echo: got %v, want %v", got, want)
		}
	}

	server.Shutdown()
	svc.Close()
	clientExecutor.Shutdown()
}

func TestServerShutdownDrainsInFlightHandler(t *testing.T) {
	svc := testrpc.NewUnaryService[int, int]()
	server := newTestServer(t, 1)

	handlerStarted := make(chan struct{})
	releaseHandler := make(chan struct{})
	newCtx := func() rpcq.ServerContext { return &testrpc.Context{} }
	StartListeningUnary[int, int](server, newCtx, svc, func(ctx context.Context, hctx *UnaryServerContext[int, int]) {
		close(handlerStarted)
		<-releaseHandler
		resp := *hctx.Request
		status := NewStatus(CodeOK, "")
		hctx.Finish(ctx, &resp, &status)
	})

	clientExecutor, _ := newTestExecutor()
	go func() {
		for clientExecutor.Poll() {
		}
	}()
	defer clientExecutor.Shutdown()
	clientCtx := withCurrent(context.Background(), clientExecutor, nil)

	req := 1
	call := NewUnaryCall[int, int](clientCtx, clientExecutor, svc.Call, &testrpc.Context{}, &req)

	select {
	case <-handlerStarted:
	case <-time.After(time.Second):
		t.Fatalf("handler never started")
	}

	shutdownDone := make(chan struct{})
	go func() {
		server.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		t.Fatalf("Shutdown returned before the in-flight handler finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(releaseHandler)

	select {
	case <-shutdownDone:
	case <-time.After(time.Second):
		t.Fatalf("Shutdown did not return after the handler released")
	}

	var resp int
	var status Status
	call.Finish(clientCtx, &resp, &status)
	call.Close()
	svc.Close()
}

func TestServerShutdownAtForceCancelsOnDeadline(t *testing.T) {
	svc := testrpc.NewUnaryService[int, int]()
	server := newTestServer(t, 1)

	handlerStarted := make(chan struct{})
	cancelled := make(chan struct{})
	// The fake ServerContext's TryCancel signals the test directly, since
	// the handler below has no other way to observe a forced cancellation.
	newCtx := func() rpcq.ServerContext {
		return &signalingContext{Context: &testrpc.Context{}, signal: cancelled}
	}
	StartListeningUnary[int, int](server, newCtx, svc, func(ctx context.Context, hctx *UnaryServerContext[int, int]) {
		close(handlerStarted)
		<-cancelled
	})

	clientExecutor, _ := newTestExecutor()
	go func() {
		for clientExecutor.Poll() {
		}
	}()
	defer clientExecutor.Shutdown()
	clientCtx := withCurrent(context.Background(), clientExecutor, nil)

	req := 1
	_ = NewUnaryCall[int, int](clientCtx, clientExecutor, svc.Call, &testrpc.Context{}, &req)

	select {
	case <-handlerStarted:
	case <-time.After(time.Second):
		t.Fatalf("handler never started")
	}

	done := make(chan struct{})
	go func() {
		server.ShutdownAt(time.Now().Add(20 * time.Millisecond))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("ShutdownAt did not return after its deadline elapsed")
	}
	svc.Close()
}

type signalingContext struct {
	*testrpc.Context
	signal chan struct{}
}

func (c *signalingContext) TryCancel() {
	c.Context.TryCancel()
	select {
	case <-c.signal:
	default:
		close(c.signal)
	}
}
