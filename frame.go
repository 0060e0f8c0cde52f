package hostrt

import (
	"slices"
	"time"

	"github.com/joeycumines/logiface"
)

type (
	// FramePacer tracks repaint requests, per window. Requests for a future
	// frame time are scheduled on the timer queue (as FrameRequest owners),
	// and once due (or immediately, if already due) the host is asked to
	// redraw the window.
	//
	// Requests are only scheduled at the end of the notification that made
	// them, so that multiple requests coalesce to the earliest.
	FramePacer struct {
		redrawer Redrawer
		timers   *TimerQueue
		clock    func() time.Time
		logger   *logiface.Logger[logiface.Event]
		windows  map[WindowID]*frameState
		pending  []WindowID
	}

	frameState struct {
		frameTime time.Time
		// zero if no frame was requested
		request         time.Time
		schedule        bool
		redrawRequested bool
	}
)

func newFramePacer(host Host, timers *TimerQueue, clock func() time.Time, logger *logiface.Logger[logiface.Event]) *FramePacer {
	x := FramePacer{
		timers:  timers,
		clock:   clock,
		logger:  logger,
		windows: make(map[WindowID]*frameState),
	}
	x.redrawer, _ = host.(Redrawer)
	return &x
}

// RequestFrame requests a redraw of the window at the given time. Only the
// earliest outstanding request is kept. A zero time means now.
func (x *FramePacer) RequestFrame(window WindowID, at time.Time) {
	st := x.state(window)
	if at.IsZero() {
		at = x.clock()
	}
	if st.request.IsZero() || at.Before(st.request) {
		st.request = at
	}
	if !st.schedule {
		st.schedule = true
		x.pending = append(x.pending, window)
	}
}

// RequestFrameAfter is RequestFrame, relative to the current time.
func (x *FramePacer) RequestFrameAfter(window WindowID, d time.Duration) error {
	at, ok := checkedAdd(x.clock(), d)
	if !ok {
		return ErrUnschedulable
	}
	x.RequestFrame(window, at)
	return nil
}

// FrameTime returns the time of the current frame, for the window, which is
// the time the pending frame was requested for, or the time of the last
// unrequested redraw.
func (x *FramePacer) FrameTime(window WindowID) time.Time {
	if st, ok := x.windows[window]; ok {
		return st.frameTime
	}
	return time.Time{}
}

// Pending returns the outstanding frame request time for the window, if any.
func (x *FramePacer) Pending(window WindowID) (time.Time, bool) {
	if st, ok := x.windows[window]; ok && !st.request.IsZero() {
		return st.request, true
	}
	return time.Time{}, false
}

// RequestRedraw asks the host to redraw the window, immediately, without
// affecting the frame time.
func (x *FramePacer) RequestRedraw(window WindowID) error {
	if x.redrawer == nil {
		return ErrNoRedrawer
	}
	x.redrawer.RequestRedraw(window)
	return nil
}

// Redrawn must be called when the host delivers RedrawRequested for the
// window. It clears any pending frame request, and updates the frame time,
// if the redraw wasn't the result of a frame request.
func (x *FramePacer) Redrawn(window WindowID) {
	st := x.state(window)
	if st.request.IsZero() || !st.redrawRequested {
		st.frameTime = x.clock()
	}
	st.redrawRequested = false
	st.request = time.Time{}
	x.timers.Cancel(FrameRequest(window), time.Time{})
}

// Forget drops all state for the window, e.g. when it is closed.
func (x *FramePacer) Forget(window WindowID) {
	delete(x.windows, window)
	x.pending = slices.DeleteFunc(x.pending, func(v WindowID) bool { return v == window })
	x.timers.Cancel(FrameRequest(window), time.Time{})
}

// fire handles a due FrameRequest timeout
func (x *FramePacer) fire(window WindowID, wakeAt time.Time) {
	st := x.state(window)
	st.frameTime = wakeAt
	st.redrawRequested = true
	x.redraw(window)
}

// flush schedules the requests made during the current notification
func (x *FramePacer) flush() {
	if len(x.pending) == 0 {
		return
	}
	now := x.clock()
	for _, window := range x.pending {
		st, ok := x.windows[window]
		if !ok || !st.schedule {
			continue
		}
		st.schedule = false
		if st.request.After(now) {
			x.timers.Set(FrameRequest(window), st.request, SetOnlyIfEarlier)
		} else {
			st.frameTime = now
			st.redrawRequested = true
			x.redraw(window)
		}
	}
	x.pending = x.pending[:0]
}

func (x *FramePacer) redraw(window WindowID) {
	if err := x.RequestRedraw(window); err != nil {
		x.logger.Debug().
			Limit().
			Err(err).
			Uint64(`window`, uint64(window)).
			Log(`hostrt: frame redraw not requested`)
	}
}

func (x *FramePacer) state(window WindowID) *frameState {
	st, ok := x.windows[window]
	if !ok {
		st = new(frameState)
		x.windows[window] = st
	}
	return st
}
