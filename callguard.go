package asyncq

import "sync/atomic"

// callGuard tracks whether a call wrapper has an outstanding tag, so
// Close can assert none remains: destroying the wrapper with an
// outstanding operation is a programming error.
type callGuard struct {
	outstanding atomic.Bool
}

func (g *callGuard) begin() {
	if !g.outstanding.CompareAndSwap(false, true) {
		panic(Namespace + ": call wrapper operation issued while another is already outstanding")
	}
}

func (g *callGuard) end() {
	g.outstanding.Store(false)
}

// assertNoOutstanding panics if an operation is still in flight. Call
// wrappers expose this as Close().
func (g *callGuard) assertNoOutstanding() {
	if g.outstanding.Load() {
		panic(ErrOutstandingTag)
	}
}
