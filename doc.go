// Package asyncq turns a completion-queue-driven RPC library into
// suspending-function-style Go code.
//
// The pattern it wraps: a call site initiates an RPC operation, hands an
// opaque tag to the library, and a background loop pulls tags out of a
// completion queue as operations finish. asyncq turns that into ordinary
// straight-line Go: a goroutine calls an awaiting operation and blocks
// until the matching tag comes back off the queue, at which point it
// resumes with an ok/cancelled bit.
//
// Core types
//   - Task[T]: a move-only handle to a suspended computation. Await it
//     from another Task, or Spawn it onto an Executor to detach it.
//   - Executor / ExecutorThreadGroup: owns one completion queue and pumps
//     it on 1..N worker goroutines.
//   - Alarm: a tag-driven timer awaiter.
//   - Client[S] / Server: call-wrapper and accept-loop patterns built
//     on top of the primitives above.
//
// Out of scope
// The underlying RPC transport (channels, wire encoding, TLS), generated
// service/request/response types, and any example services are external
// collaborators — see the rpcq package for the abstract surface this
// module expects from them.
package asyncq
