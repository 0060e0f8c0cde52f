package hostrt

import (
	"time"
)

// Delay is a Task (typically composed into another) that completes once
// its wake time has passed. It is created via Ctx.Sleep or Ctx.SleepUntil.
//
// On each pending poll, a task delay timeout is registered for the polling
// task, which wakes the task, once due. The output is nil, or ErrDisabled,
// if the router was constructed without timers. A Delay whose wake time
// cannot be represented never completes.
type Delay struct {
	cx      *Ctx
	until   time.Time
	seq     uint64
	forever bool
	owner   TimeoutOwner
	done    bool
}

var (
	// compile time assertions

	_ Task = (*Delay)(nil)
)

// Until returns the wake time. It is zero if the delay never completes.
func (x *Delay) Until() time.Time { return x.until }

// Poll implements Task.
func (x *Delay) Poll(w WakeHandle) (any, bool) {
	if x.done {
		return nil, true
	}

	timers := x.cx.router.timers
	if timers == nil {
		x.done = true
		return ErrDisabled, true
	}

	owner := TaskDelay(w.ID(), x.seq)
	if x.owner != owner && x.owner.Kind != 0 {
		// polled by a different task
		timers.Cancel(x.owner, time.Time{})
	}
	x.owner = owner

	if x.forever {
		return nil, false
	}

	if !x.cx.Now().Before(x.until) {
		x.done = true
		timers.Cancel(owner, time.Time{})
		return nil, true
	}

	timers.Set(owner, x.until, SetAlways)

	return nil, false
}

// Cancel removes the pending timeout, if any, e.g. if the delay is
// abandoned by the task awaiting it.
func (x *Delay) Cancel() {
	if x.owner.Kind != 0 && x.cx.router.timers != nil {
		x.cx.router.timers.Cancel(x.owner, time.Time{})
	}
	x.done = true
}
