package asyncq

import (
	"context"
	"time"

	"github.com/ygrebnov/asyncq/rpcq"
)

// Alarm is a timer awaiter: constructed with a deadline, it owns an alarm
// resource and fires through the same tag-and-queue mechanism as any
// other operation. Alarms are move-only and !Sync: one Await in flight at
// a time.
type Alarm struct {
	alarm    rpcq.Alarm
	deadline time.Time
}

// NewAlarm wraps an underlying rpcq.Alarm resource.
func NewAlarm(underlying rpcq.Alarm) *Alarm {
	return &Alarm{alarm: underlying}
}

// SetDeadline re-arms the alarm for a new deadline between uses.
func (a *Alarm) SetDeadline(deadline time.Time) {
	a.deadline = deadline
}

// Await arms the alarm against the calling Task's executor queue with the
// stored deadline and suspends until it fires or is cancelled, returning
// ok (true = fired, false = cancelled).
func (a *Alarm) Await(ctx context.Context) bool {
	executor := executorFor(ctx, nil)
	return tagOp(ctx, executor, func(queue rpcq.CompletionQueue, tag rpcq.Tag) {
		a.alarm.Set(queue, a.deadline, tag)
	})
}

// Cancel is a cheap, non-blocking request to cancel the alarm. The
// pending Await still resumes, with ok=false.
func (a *Alarm) Cancel() {
	a.alarm.Cancel()
}

// Sleep is a convenience combinator: await an alarm set for d from now.
func Sleep(ctx context.Context, newAlarm func() rpcq.Alarm, d time.Duration) bool {
	a := NewAlarm(newAlarm())
	a.SetDeadline(time.Now().Add(d))
	return a.Await(ctx)
}
