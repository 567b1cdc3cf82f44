// Package rpcq declares the abstract surface asyncq requires from an
// underlying completion-queue-driven RPC library. It has no transport of
// its own: a real adapter
// wires a concrete RPC library's async C-style API to these interfaces,
// and internal/testrpc wires an in-memory fake for this module's tests.
package rpcq

import "time"

// Tag is the opaque pointer-sized word posted to a CompletionQueue
// alongside an operation and handed back by Next when that operation
// completes. asyncq always posts a *asyncq-internal tag value and expects
// to get the identical value back; rpcq implementations must not copy or
// reinterpret it.
type Tag any

// CompletionQueue is an MPSC-like FIFO of completed operations, drained by
// one or more worker goroutines.
type CompletionQueue interface {
	// Next blocks until a completion is available, writes the tag and a
	// success bit, and returns false once the queue is drained after
	// Shutdown.
	Next() (tag Tag, ok bool, live bool)

	// Shutdown signals the queue to drain. Idempotent.
	Shutdown()
}

// ServerCompletionQueue is a CompletionQueue that additionally exposes a
// notification view (new-call events alongside operation completions).
// In this design the two views are the same underlying queue.
type ServerCompletionQueue interface {
	CompletionQueue
}

// Alarm is the underlying library's alarm primitive: set(queue, deadline,
// tag), cancel().
type Alarm interface {
	Set(queue CompletionQueue, deadline time.Time, tag Tag)
	Cancel()
}

// ClientContext is a client-side RPC context: metadata carrier plus a
// cooperative cancel.
type ClientContext interface {
	TryCancel()
}

// ServerContext is the server-side counterpart, exposing the same
// cooperative cancel plus whatever metadata a real implementation carries.
type ServerContext interface {
	TryCancel()
}

// Per-shape "request next call" entrypoints live in server_calls.go: the
// shape of that entrypoint differs across the four RPC kinds (a unary
// accept needs a request slot, a client-stream accept doesn't, etc.), so
// there is one interface per shape rather than one generic one.
