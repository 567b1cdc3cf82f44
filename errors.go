package asyncq

import "errors"

const Namespace = "asyncq"

var (
	// ErrTaskConsumed is the panic value when a Task handle that was
	// already Awaited or Spawned (and so nulled out) is used again.
	ErrTaskConsumed = errors.New(Namespace + ": task handle already consumed")

	// ErrOutstandingTag is the panic value when a call wrapper is closed
	// while an operation it issued has not yet resumed.
	ErrOutstandingTag = errors.New(Namespace + ": call wrapper destroyed with an outstanding tag")

	// ErrNoChannels is the panic value when a ChannelProvider is
	// constructed with zero connections.
	ErrNoChannels = errors.New(Namespace + ": channel provider requires at least one channel")
)

// panicSuspendedDestroyed is raised when a Suspended Task's frame would be
// dropped without resuming it. A task's frame must be destroyed exactly
// once, either in Unstarted state or after it reaches Done/Cancelled.
func panicSuspendedDestroyed() {
	panic(Namespace + ": destroying a Suspended task is a programming error")
}
