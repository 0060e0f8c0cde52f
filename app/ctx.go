package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/joeycumines/go-hostrt"
	"github.com/joeycumines/logiface"
)

// Ctx is the application's view of the runtime, bound to its window.
type Ctx struct {
	rt     *hostrt.Ctx
	window hostrt.WindowID
	exit   bool
}

// Runtime returns the underlying scheduling core context.
func (x *Ctx) Runtime() *hostrt.Ctx { return x.rt }

// Window returns the application's window.
func (x *Ctx) Window() hostrt.WindowID { return x.window }

// Logger returns the runtime's logger, which may be nil.
func (x *Ctx) Logger() *logiface.Logger[logiface.Event] { return x.rt.Logger() }

// Now returns the current time, per the runtime's clock.
func (x *Ctx) Now() time.Time { return x.rt.Now() }

// Exit requests that the application exit, once the current event has been
// handled.
func (x *Ctx) Exit() { x.exit = true }

// ExitRequested returns true if Exit has been called, or the window has been
// asked to close.
func (x *Ctx) ExitRequested() bool { return x.exit }

// SetTimeout schedules a user timeout after d, which will be delivered as a
// hostrt.TimerFired event, with the returned id.
func (x *Ctx) SetTimeout(d time.Duration) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := x.rt.SetTimeoutAfter(hostrt.UserTimeout(id), d, hostrt.SetAlways); err != nil {
		return uuid.Nil, err
	}
	if _, ok := x.rt.Timers().Get(hostrt.UserTimeout(id)); !ok {
		return uuid.Nil, hostrt.ErrUnschedulable
	}
	return id, nil
}

// SetTimeoutAt schedules a user timeout at t.
func (x *Ctx) SetTimeoutAt(t time.Time) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := x.rt.SetTimeout(hostrt.UserTimeout(id), t, hostrt.SetAlways); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// CancelTimeout cancels a user timeout, returning true if it was pending.
func (x *Ctx) CancelTimeout(id uuid.UUID) bool {
	res, err := x.rt.CancelTimeout(hostrt.UserTimeout(id))
	return err == nil && res.Kind == hostrt.ResultCanceled
}

// RequestFrame requests that the window be redrawn at (or after) the given
// time. A zero time means as soon as possible.
func (x *Ctx) RequestFrame(at time.Time) error {
	frames := x.rt.Frames()
	if frames == nil {
		return hostrt.ErrDisabled
	}
	frames.RequestFrame(x.window, at)
	return nil
}

// FrameTime returns the current frame time, see hostrt.FramePacer.
func (x *Ctx) FrameTime() time.Time {
	if frames := x.rt.Frames(); frames != nil {
		return frames.FrameTime(x.window)
	}
	return time.Time{}
}

// RequestRedraw asks the host to redraw the window, immediately.
func (x *Ctx) RequestRedraw() error {
	frames := x.rt.Frames()
	if frames == nil {
		return hostrt.ErrDisabled
	}
	return frames.RequestRedraw(x.window)
}

// Spawn starts a task, which will be delivered as hostrt.TaskReady.
func (x *Ctx) Spawn(task hostrt.Task) hostrt.TaskID { return x.rt.Spawn(task) }

// Cancel drops a task, see hostrt.Ctx.CancelTask.
func (x *Ctx) Cancel(id hostrt.TaskID) bool { return x.rt.CancelTask(id) }

// Dispatch sends a user event, see hostrt.EventDispatcher.
func (x *Ctx) Dispatch(payload any) error { return x.rt.Dispatcher().Dispatch(payload) }

// Sleep returns a delay, to be composed into a task.
func (x *Ctx) Sleep(d time.Duration) *hostrt.Delay { return x.rt.Sleep(d) }
