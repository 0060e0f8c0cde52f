package hostrt

import (
	"github.com/joeycumines/logiface"
)

// EventDispatcher sends UserEvent notifications to the host, to be routed
// back to the handler on the control thread. It is safe for concurrent use,
// and may be retained beyond the notification that provided it.
type EventDispatcher struct {
	injector Injector
	logger   *logiface.Logger[logiface.Event]
}

// NewEventDispatcher constructs an EventDispatcher. The logger may be nil.
func NewEventDispatcher(injector Injector, logger *logiface.Logger[logiface.Event]) *EventDispatcher {
	if injector == nil {
		panic(`hostrt: nil injector`)
	}
	return &EventDispatcher{injector: injector, logger: logger}
}

// Dispatch injects UserEvent{Payload: payload}. Failures are logged, and
// returned.
func (x *EventDispatcher) Dispatch(payload any) error {
	err := x.injector.Inject(UserEvent{Payload: payload})
	if err != nil {
		x.logger.Err().
			Limit().
			Err(err).
			Log(`hostrt: failed to dispatch user event`)
	}
	return err
}
