package asyncq

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ygrebnov/asyncq/metrics"
	"github.com/ygrebnov/asyncq/pool"
	"github.com/ygrebnov/asyncq/rpcq"
)

// ServerOptions configures a Server: listen addresses, metrics, and how
// many executors/threads back it. Services are wired by
// calling StartListening{Unary,ClientStream,
// ServerStream,BidirectionalStream} against the constructed Server, not
// through this struct — Go has no single type that can enumerate "all of
// a service's methods" generically the way a code-generated stub can.
type ServerOptions struct {
	Addresses          []string
	ExecutorCount      int
	ThreadsPerExecutor int
	Metrics            metrics.Provider
}

func defaultServerOptions() ServerOptions {
	return ServerOptions{
		ExecutorCount:      DefaultExecutorCount,
		ThreadsPerExecutor: DefaultThreadsPerExecutor,
		Metrics:            metrics.NewNoopProvider(),
	}
}

// ServerOption configures a Server via the functional-options shape: use
// NewServerOptions(newQueue, opts...) to construct one this way rather
// than building a ServerOptions struct by hand.
type ServerOption func(*ServerOptions)

// WithAddresses sets the listen addresses a host application associates
// with this Server (the rpcq adapter, not asyncq, is what actually binds
// them).
func WithAddresses(addrs ...string) ServerOption {
	return func(o *ServerOptions) { o.Addresses = addrs }
}

// WithServerExecutorCount sets how many ExecutorThreadGroups back the
// Server.
func WithServerExecutorCount(n int) ServerOption {
	return func(o *ServerOptions) { o.ExecutorCount = n }
}

// WithServerThreadsPerExecutor sets how many worker goroutines pump each
// of the Server's completion queues.
func WithServerThreadsPerExecutor(n int) ServerOption {
	return func(o *ServerOptions) { o.ThreadsPerExecutor = n }
}

// WithServerMetrics attaches a metrics.Provider the Server's executors
// record instruments into.
func WithServerMetrics(p metrics.Provider) ServerOption {
	return func(o *ServerOptions) { o.Metrics = p }
}

// NewServerOptions constructs a Server from functional options, building a
// ServerOptions internally and delegating to NewServer.
func NewServerOptions(newQueue QueueFactory, opts ...ServerOption) *Server {
	o := ServerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return NewServer(o, newQueue)
}

// QueueFactory constructs one server completion queue, bound to a
// listening address by the rpcq adapter (the abstract surface has no
// notion of "address," so the adapter closes over it).
type QueueFactory func() rpcq.ServerCompletionQueue

// Server hosts a pool of ServerExecutors, round-robin by an atomic
// counter. It has no service-specific code: each RPC
// method's accept loop is started by calling one of the StartListening*
// functions with this Server and that method's rpcq.*MethodServer.
type Server struct {
	groups    []*ExecutorThreadGroup
	picker    atomic.Uint64
	seq       *shutdownSequence
	accept    atomic.Bool
	stopped   chan struct{}
	forwarder *cancellationForwarder
	inFlight  sync.WaitGroup
}

// NewServer constructs a Server with opts.ExecutorCount executors, each
// backed by a completion queue from newQueue and running
// opts.ThreadsPerExecutor workers.
func NewServer(opts ServerOptions, newQueue QueueFactory) *Server {
	merged := defaultServerOptions()
	if opts.ExecutorCount > 0 {
		merged.ExecutorCount = opts.ExecutorCount
	}
	if opts.ThreadsPerExecutor > 0 {
		merged.ThreadsPerExecutor = opts.ThreadsPerExecutor
	}
	if opts.Metrics != nil {
		merged.Metrics = opts.Metrics
	}

	s := &Server{stopped: make(chan struct{}), forwarder: newCancellationForwarder()}
	s.accept.Store(true)

	// Server-side tag churn is bounded by listener count, so a fixed-size
	// pool (rather than the client-side dynamic one) backs every
	// ServerExecutor's accept-loop and handler tag allocations.
	tagCapacity := uint(merged.ExecutorCount * merged.ThreadsPerExecutor)
	tagPool := pool.NewFixed(tagCapacity, func() interface{} {
		return &tagWaiter{resultCh: make(chan bool)}
	})

	for i := 0; i < merged.ExecutorCount; i++ {
		s.groups = append(s.groups, NewExecutorThreadGroup(
			newQueue(), merged.ThreadsPerExecutor,
			WithExecutorMetrics(merged.Metrics), WithTagPool(tagPool),
		))
	}
	s.seq = newShutdownSequence(
		func() { s.accept.Store(false); close(s.stopped) },
		func() {
			// Every spawned handler must get a chance to post its own
			// Finish tag before the executors it posts against are shut
			// down, so in-flight handlers are waited on first.
			s.inFlight.Wait()
			for _, g := range s.groups {
				g.Shutdown()
			}
		},
	)
	return s
}

// nextExecutor round-robins across the server's executors.
func (s *Server) nextExecutor() *Executor {
	n := s.picker.Add(1) - 1
	return s.groups[n%uint64(len(s.groups))].Executor()
}

// accepting reports whether the server is still willing to post new
// accept-next-call operations.
func (s *Server) accepting() bool { return s.accept.Load() }

// Shutdown stops accepting new calls and waits for every executor to
// drain: in-flight calls are given a chance to complete before their
// executors are torn down.
func (s *Server) Shutdown() {
	s.seq.run()
}

// ShutdownAt stops accepting new calls immediately and waits for in-flight
// calls to drain gracefully; if deadline elapses first, every in-flight
// call's ServerContext is force-cancelled via s.forwarder, which unblocks
// their suspended tag-awaiters with ok=false so the drain completes
// promptly.
func (s *Server) ShutdownAt(deadline time.Time) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	done := make(chan struct{})
	go func() { s.seq.run(); close(done) }()
	select {
	case <-done:
	case <-timer.C:
		s.forwarder.fire()
		<-done
	}
}

// ServerContextFactory constructs a fresh per-call ServerContext; called
// once per accepted call.
type ServerContextFactory func() rpcq.ServerContext

// StartListeningUnary starts the accept loop for one unary method.
// handler is spawned once per accepted call on the executor that accepted
// it; it owns hctx for the lifetime of the call.
func StartListeningUnary[Req, Resp any](s *Server, newCtx ServerContextFactory, ms rpcq.UnaryMethodServer[Req, Resp], handler func(context.Context, *UnaryServerContext[Req, Resp])) {
	go acceptLoop(s, func(executor *Executor) (Task[struct{}], bool) {
		req := new(Req)
		sctx := newCtx()
		s.forwarder.register(sctx.TryCancel)
		var responder rpcq.ServerUnaryResponder[Resp]
		ok := tagOp(context.Background(), executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
			responder = ms.RequestCall(sctx, req, queue, queue, tag)
		})
		if !ok {
			return Task[struct{}]{}, false
		}
		hctx := &UnaryServerContext[Req, Resp]{Request: req, responder: responder, sctx: sctx, executor: executor}
		return NewTask(func(ctx context.Context) struct{} {
			handler(ctx, hctx)
			return struct{}{}
		}), true
	})
}

// StartListeningClientStream starts the accept loop for one
// client-streaming method.
func StartListeningClientStream[Req, Resp any](s *Server, newCtx ServerContextFactory, ms rpcq.ClientStreamMethodServer[Req, Resp], handler func(context.Context, *ClientStreamServerContext[Req, Resp])) {
	go acceptLoop(s, func(executor *Executor) (Task[struct{}], bool) {
		sctx := newCtx()
		s.forwarder.register(sctx.TryCancel)
		var responder rpcq.ServerClientStreamResponder[Req, Resp]
		ok := tagOp(context.Background(), executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
			responder = ms.RequestCall(sctx, queue, queue, tag)
		})
		if !ok {
			return Task[struct{}]{}, false
		}
		hctx := &ClientStreamServerContext[Req, Resp]{responder: responder, sctx: sctx, executor: executor}
		return NewTask(func(ctx context.Context) struct{} {
			handler(ctx, hctx)
			return struct{}{}
		}), true
	})
}

// StartListeningServerStream starts the accept loop for one
// server-streaming method.
func StartListeningServerStream[Req, Resp any](s *Server, newCtx ServerContextFactory, ms rpcq.ServerStreamMethodServer[Req, Resp], handler func(context.Context, *ServerStreamServerContext[Req, Resp])) {
	go acceptLoop(s, func(executor *Executor) (Task[struct{}], bool) {
		req := new(Req)
		sctx := newCtx()
		s.forwarder.register(sctx.TryCancel)
		var responder rpcq.ServerStreamResponder[Resp]
		ok := tagOp(context.Background(), executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
			responder = ms.RequestCall(sctx, req, queue, queue, tag)
		})
		if !ok {
			return Task[struct{}]{}, false
		}
		hctx := &ServerStreamServerContext[Req, Resp]{Request: req, responder: responder, sctx: sctx, executor: executor}
		return NewTask(func(ctx context.Context) struct{} {
			handler(ctx, hctx)
			return struct{}{}
		}), true
	})
}

// StartListeningBidirectionalStream starts the accept loop for one
// bidirectional-streaming method.
func StartListeningBidirectionalStream[Req, Resp any](s *Server, newCtx ServerContextFactory, ms rpcq.BidiMethodServer[Req, Resp], handler func(context.Context, *BidiServerContext[Req, Resp])) {
	go acceptLoop(s, func(executor *Executor) (Task[struct{}], bool) {
		sctx := newCtx()
		s.forwarder.register(sctx.TryCancel)
		var responder rpcq.ServerBidiResponder[Req, Resp]
		ok := tagOp(context.Background(), executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
			responder = ms.RequestCall(sctx, queue, queue, tag)
		})
		if !ok {
			return Task[struct{}]{}, false
		}
		hctx := &BidiServerContext[Req, Resp]{responder: responder, sctx: sctx, executor: executor}
		return NewTask(func(ctx context.Context) struct{} {
			handler(ctx, hctx)
			return struct{}{}
		}), true
	})
}

// acceptLoop is the shared shape of every StartListening* function: pick
// an executor, post accept-next-call, and on success spawn the returned
// handler task, then loop back to post the next accept. A listener has at
// most one accept tag outstanding; between an accept completing and the
// next one being posted (while the handler is spawned) it has none. Each spawned
// handler is tracked in s.inFlight so Shutdown can wait for it to finish
// posting its own operations before the executor it runs on is torn down.
func acceptLoop(s *Server, accept func(executor *Executor) (Task[struct{}], bool)) {
	for s.accepting() {
		executor := s.nextExecutor()
		task, ok := accept(executor)
		if !ok {
			return
		}
		s.inFlight.Add(1)
		tracked := NewTask(func(ctx context.Context) struct{} {
			defer s.inFlight.Done()
			return task.fn(ctx)
		})
		Spawn(context.Background(), executor, tracked)
	}
}
