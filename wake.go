package hostrt

import (
	"github.com/joeycumines/logiface"
)

type (
	// WakeBridge sends "wake this task" notifications to the host. It is the
	// only part of the scheduling core that may be used from any goroutine.
	//
	// It never polls: the wake is routed back to the control thread by the
	// host, as a WakeTask notification, and the task is polled from there.
	WakeBridge struct {
		injector Injector
		logger   *logiface.Logger[logiface.Event]
	}

	// WakeHandle is passed to Task.Poll, and may be copied and retained, in
	// order to request that the task is polled again. It is safe to use from
	// any goroutine.
	WakeHandle struct {
		bridge *WakeBridge
		id     TaskID
	}
)

// NewWakeBridge constructs a WakeBridge. The logger may be nil. A panic will
// occur if injector is nil.
func NewWakeBridge(injector Injector, logger *logiface.Logger[logiface.Event]) *WakeBridge {
	if injector == nil {
		panic(`hostrt: nil injector`)
	}
	return &WakeBridge{injector: injector, logger: logger}
}

// Wake requests a wake notification for the given task. If the host has
// already shut down its injection channel, the failure is logged, and the
// wake is dropped.
func (x *WakeBridge) Wake(id TaskID) {
	if err := x.injector.Inject(WakeTask{ID: id}); err != nil {
		x.logger.Warning().
			Limit().
			Err(err).
			Uint64(`task`, uint64(id)).
			Log(`hostrt: dropped wake notification`)
	}
}

// Handle returns a WakeHandle bound to the given task.
func (x *WakeBridge) Handle(id TaskID) WakeHandle {
	return WakeHandle{bridge: x, id: id}
}

// ID returns the task this handle wakes.
func (x WakeHandle) ID() TaskID { return x.id }

// Wake requests that the task is polled again. It is a no-op for the zero
// value.
func (x WakeHandle) Wake() {
	if x.bridge != nil {
		x.bridge.Wake(x.id)
	}
}
