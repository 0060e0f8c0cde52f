package hostrt

import (
	"fmt"
	"time"
)

type (
	// Notification is an input from the host, to Router.Notify. The set of
	// implementations is closed.
	Notification interface {
		notification()
	}

	// Event is an output of the Router, to the Handler. The set of
	// implementations is closed.
	Event interface {
		event()
	}

	// WindowData is the payload of a WindowEvent. The set of implementations
	// is closed, use OtherWindowEvent for anything host specific.
	WindowData interface {
		windowData()
	}

	// WindowID is an opaque window identity, assigned by the host.
	WindowID uint64

	// DeviceID is an opaque input device identity, assigned by the host.
	DeviceID uint64

	// WindowAttributes are passed to WindowHost.CreateWindow.
	WindowAttributes struct {
		Title  string
		Width  int
		Height int
	}

	// Resumed is both a notification and an event. It is the first
	// notification delivered by a host.
	Resumed struct{}

	// Suspended is both a notification and an event.
	Suspended struct{}

	// Exiting is the last notification delivered by a host.
	Exiting struct{}

	// Exit is the event the Exiting notification maps to.
	Exit struct{}

	// WindowEvent is passed through unchanged.
	WindowEvent struct {
		Window WindowID
		Data   WindowData
	}

	// DeviceEvent is passed through unchanged.
	DeviceEvent struct {
		Device DeviceID
		Data   any
	}

	// UserEvent carries an application payload, e.g. as sent by
	// EventDispatcher. It is passed through unchanged.
	UserEvent struct {
		Payload any
	}

	// WakeTask is the notification sent by the WakeBridge.
	WakeTask struct {
		ID TaskID
	}

	// TimeReached is sent by the host once the wait policy deadline passes.
	TimeReached struct{}

	// TaskReady is the event for a completed task.
	TaskReady struct {
		ID     TaskID
		Output any
	}

	// TimerFired is the event for a due user timeout.
	TimerFired struct {
		Owner  TimeoutOwner
		WakeAt time.Time
	}

	// Resized indicates the new inner size of the window.
	Resized struct {
		Width  int
		Height int
	}

	Focused struct {
		Focused bool
	}

	KeyPressed struct {
		Key string
	}

	CloseRequested struct{}

	RedrawRequested struct{}

	ScaleFactorChanged struct {
		Factor float64
	}

	Moved struct {
		X int
		Y int
	}

	// OtherWindowEvent wraps any window event the core has no specific
	// handling for.
	OtherWindowEvent struct {
		Value any
	}
)

var (
	// compile time assertions

	_ Notification = Resumed{}
	_ Notification = Suspended{}
	_ Notification = Exiting{}
	_ Notification = WindowEvent{}
	_ Notification = DeviceEvent{}
	_ Notification = UserEvent{}
	_ Notification = WakeTask{}
	_ Notification = TimeReached{}

	_ Event = Resumed{}
	_ Event = Suspended{}
	_ Event = Exit{}
	_ Event = WindowEvent{}
	_ Event = DeviceEvent{}
	_ Event = UserEvent{}
	_ Event = TaskReady{}
	_ Event = TimerFired{}

	_ WindowData = Resized{}
	_ WindowData = Focused{}
	_ WindowData = KeyPressed{}
	_ WindowData = CloseRequested{}
	_ WindowData = RedrawRequested{}
	_ WindowData = ScaleFactorChanged{}
	_ WindowData = Moved{}
	_ WindowData = OtherWindowEvent{}
)

func (Resumed) notification()     {}
func (Suspended) notification()   {}
func (Exiting) notification()     {}
func (WindowEvent) notification() {}
func (DeviceEvent) notification() {}
func (UserEvent) notification()   {}
func (WakeTask) notification()    {}
func (TimeReached) notification() {}

func (Resumed) event()     {}
func (Suspended) event()   {}
func (Exit) event()        {}
func (WindowEvent) event() {}
func (DeviceEvent) event() {}
func (UserEvent) event()   {}
func (TaskReady) event()   {}
func (TimerFired) event()  {}

func (Resized) windowData()            {}
func (Focused) windowData()            {}
func (KeyPressed) windowData()         {}
func (CloseRequested) windowData()     {}
func (RedrawRequested) windowData()    {}
func (ScaleFactorChanged) windowData() {}
func (Moved) windowData()              {}
func (OtherWindowEvent) windowData()   {}

func (x WindowID) String() string { return fmt.Sprintf(`window#%d`, uint64(x)) }
