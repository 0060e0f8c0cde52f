package hostrt

import (
	"time"
)

type (
	// Injector accepts notifications from any goroutine, to be delivered to
	// the Router, on the control thread, in order. It must not block for
	// long, and must return an error (e.g. ErrHostClosed) once the host can
	// no longer deliver notifications.
	Injector interface {
		Inject(n Notification) error
	}

	// Host is the contract a driving event source must implement.
	//
	// SetWaitPolicy and Exit are only called from the control thread, i.e.
	// from within Router.Notify. The host must deliver TimeReached once a
	// WaitUntil deadline passes (or continuously, for WaitPoll).
	Host interface {
		Injector
		SetWaitPolicy(policy WaitPolicy)
		Exit()
	}

	// WindowHost is an optional Host capability, required to mount an
	// application.
	WindowHost interface {
		CreateWindow(attrs WindowAttributes) (WindowID, error)
	}

	// Redrawer is an optional Host capability, used by frame pacing. A host
	// that does not implement it receives no redraw requests.
	Redrawer interface {
		RequestRedraw(window WindowID)
	}

	// WaitMode discriminates WaitPolicy.
	WaitMode uint8

	// WaitPolicy instructs the host when to next wake the program, absent
	// other notifications.
	WaitPolicy struct {
		Mode  WaitMode
		Until time.Time
	}
)

const (
	// WaitIndefinitelyMode waits until the next notification.
	WaitIndefinitelyMode WaitMode = iota
	// WaitUntilMode waits until WaitPolicy.Until, then delivers TimeReached.
	WaitUntilMode
	// WaitPollMode delivers TimeReached continuously.
	WaitPollMode
)

// WaitIndefinitely returns the policy for an empty timer queue.
func WaitIndefinitely() WaitPolicy { return WaitPolicy{Mode: WaitIndefinitelyMode} }

// WaitUntil returns the policy to wake at t.
func WaitUntil(t time.Time) WaitPolicy { return WaitPolicy{Mode: WaitUntilMode, Until: t} }

// WaitPoll returns the continuous polling policy.
func WaitPoll() WaitPolicy { return WaitPolicy{Mode: WaitPollMode} }

func (x WaitPolicy) String() string {
	switch x.Mode {
	case WaitIndefinitelyMode:
		return `wait`
	case WaitUntilMode:
		return `wait-until ` + x.Until.Format(time.RFC3339Nano)
	case WaitPollMode:
		return `poll`
	default:
		return `unknown`
	}
}
