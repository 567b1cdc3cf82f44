package asyncq

import "sync"

// shutdownSequence orchestrates a Server's shutdown in a deterministic
// order, exactly once, regardless of how many goroutines call Shutdown
// concurrently.
type shutdownSequence struct {
	once           sync.Once
	stopAccepting  func()
	drainExecutors func()
}

func newShutdownSequence(stopAccepting, drainExecutors func()) *shutdownSequence {
	return &shutdownSequence{stopAccepting: stopAccepting, drainExecutors: drainExecutors}
}

// run executes the sequence exactly once: stop accepting new calls, then
// drain every executor. Each ExecutorThreadGroup.Shutdown blocks until its
// worker threads exit, i.e. until every worker's queue.Next() returns
// false.
func (s *shutdownSequence) run() {
	s.once.Do(func() {
		if s.stopAccepting != nil {
			s.stopAccepting()
		}
		if s.drainExecutors != nil {
			s.drainExecutors()
		}
	})
}
