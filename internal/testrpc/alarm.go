package testrpc

import (
	"sync"
	"time"

	"github.com/ygrebnov/asyncq/rpcq"
)

// Alarm is a fake rpcq.Alarm: Set arms a time.Timer that posts ok=true to
// the given queue at the deadline; Cancel, if it wins the race against
// the timer firing, posts ok=false instead.
type Alarm struct {
	mu    sync.Mutex
	timer *time.Timer
	queue *Queue
	tag   rpcq.Tag
	fired bool
}

// NewAlarm constructs an unarmed Alarm fake.
func NewAlarm() *Alarm { return &Alarm{} }

func (a *Alarm) Set(queue rpcq.CompletionQueue, deadline time.Time, tag rpcq.Tag) {
	a.mu.Lock()
	a.queue, a.tag, a.fired = queue.(*Queue), tag, false
	d := time.Until(deadline)
	a.timer = time.AfterFunc(d, func() {
		a.mu.Lock()
		if a.fired {
			a.mu.Unlock()
			return
		}
		a.fired = true
		q, t := a.queue, a.tag
		a.mu.Unlock()
		q.Post(t, true)
	})
	a.mu.Unlock()
}

func (a *Alarm) Cancel() {
	a.mu.Lock()
	if a.fired || a.timer == nil {
		a.mu.Unlock()
		return
	}
	a.fired = true
	stopped := a.timer.Stop()
	q, t := a.queue, a.tag
	a.mu.Unlock()
	if stopped {
		q.Post(t, false)
	}
}
