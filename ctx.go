package hostrt

import (
	"time"

	"github.com/joeycumines/logiface"
)

// Ctx is passed to the Handler, and provides access to the scheduling core.
// It is owned by the Router, and must only be used on the control thread,
// but may be retained (e.g. by the application) for the Router's lifetime.
type Ctx struct {
	router   *Router
	delaySeq uint64
	exit     bool
}

// Executor returns the task executor.
func (x *Ctx) Executor() *Executor { return x.router.executor }

// Timers returns the timer queue, or nil if disabled.
func (x *Ctx) Timers() *TimerQueue { return x.router.timers }

// Frames returns the frame pacer, or nil if disabled.
func (x *Ctx) Frames() *FramePacer { return x.router.frames }

// Dispatcher returns the user event dispatcher.
func (x *Ctx) Dispatcher() *EventDispatcher { return x.router.dispatcher }

// Host returns the host the router was constructed with.
func (x *Ctx) Host() Host { return x.router.host }

// Logger returns the configured logger, which may be nil.
func (x *Ctx) Logger() *logiface.Logger[logiface.Event] { return x.router.logger }

// Now returns the current time, per the configured clock.
func (x *Ctx) Now() time.Time { return x.router.clock() }

// Exit requests that the host exit, once the current notification has been
// processed.
func (x *Ctx) Exit() { x.exit = true }

// ExitRequested returns true if Exit was called during the current
// notification.
func (x *Ctx) ExitRequested() bool { return x.exit }

// Spawn is shorthand for Executor().Spawn.
func (x *Ctx) Spawn(task Task) TaskID { return x.router.executor.Spawn(task) }

// CancelTask drops the task, and any of its pending delays.
func (x *Ctx) CancelTask(id TaskID) bool {
	if x.router.timers != nil {
		x.router.timers.CancelTask(id)
	}
	return x.router.executor.Cancel(id)
}

// SetTimeout schedules a timeout for the owner at the given time.
func (x *Ctx) SetTimeout(owner TimeoutOwner, at time.Time, mode SetMode) (TimeoutResult, error) {
	if x.router.timers == nil {
		return TimeoutResult{}, ErrDisabled
	}
	return x.router.timers.Set(owner, at, mode), nil
}

// SetTimeoutAfter schedules a timeout for the owner, relative to Now.
func (x *Ctx) SetTimeoutAfter(owner TimeoutOwner, d time.Duration, mode SetMode) (TimeoutResult, error) {
	if x.router.timers == nil {
		return TimeoutResult{}, ErrDisabled
	}
	return x.router.timers.SetAfter(owner, x.Now(), d, mode), nil
}

// CancelTimeout unconditionally cancels the owner's timeout.
func (x *Ctx) CancelTimeout(owner TimeoutOwner) (TimeoutResult, error) {
	if x.router.timers == nil {
		return TimeoutResult{}, ErrDisabled
	}
	return x.router.timers.Cancel(owner, time.Time{}), nil
}

// Sleep returns a Delay that completes after d.
func (x *Ctx) Sleep(d time.Duration) *Delay {
	at, ok := checkedAdd(x.Now(), d)
	if !ok {
		return x.newDelay(time.Time{}, true)
	}
	return x.newDelay(at, false)
}

// SleepUntil returns a Delay that completes at t.
func (x *Ctx) SleepUntil(t time.Time) *Delay { return x.newDelay(t, false) }

func (x *Ctx) newDelay(at time.Time, forever bool) *Delay {
	x.delaySeq++
	return &Delay{cx: x, until: at, forever: forever, seq: x.delaySeq}
}
