package testrpc

import "sync/atomic"

// Context is a fake satisfying both rpcq.ClientContext and
// rpcq.ServerContext (both are just TryCancel in the abstract surface).
type Context struct {
	cancelled atomic.Bool
}

func (c *Context) TryCancel() { c.cancelled.Store(true) }

func (c *Context) Cancelled() bool { return c.cancelled.Load() }
