package hostrt

import (
	"time"

	"github.com/joeycumines/logiface"
)

type (
	// Handler receives the events produced by the Router, on the control
	// thread.
	Handler interface {
		Event(cx *Ctx, ev Event)
	}

	// HandlerFunc adapts a function to the Handler interface.
	HandlerFunc func(cx *Ctx, ev Event)

	// Router is the per-notification driver, and the owner of the scheduling
	// core. The host calls Notify, on the control thread, for every
	// notification, and never concurrently.
	//
	// Task wakes are resolved by polling the executor, due timeouts are
	// popped (one per TimeReached), and everything else passes through to
	// the handler. After every notification, any change to the earliest
	// timeout is applied to the host, as a wait policy.
	Router struct {
		host       Host
		handler    Handler
		logger     *logiface.Logger[logiface.Event]
		clock      func() time.Time
		executor   *Executor
		timers     *TimerQueue
		frames     *FramePacer
		dispatcher *EventDispatcher
		cx         Ctx
		exited     bool
	}
)

var (
	// compile time assertions

	_ Handler = HandlerFunc(nil)
)

// Event implements Handler.
func (x HandlerFunc) Event(cx *Ctx, ev Event) { x(cx, ev) }

// NewRouter constructs a Router, which drives the given handler. A panic
// will occur if host or handler are nil.
func NewRouter(host Host, handler Handler, options ...Option) (*Router, error) {
	if host == nil {
		panic(`hostrt: nil host`)
	}
	if handler == nil {
		panic(`hostrt: nil handler`)
	}

	cfg, err := resolveOptions(options)
	if err != nil {
		return nil, err
	}

	x := &Router{
		host:       host,
		handler:    handler,
		logger:     cfg.logger,
		clock:      cfg.clock,
		executor:   newExecutor(host, cfg),
		dispatcher: NewEventDispatcher(host, cfg.logger),
	}
	x.cx.router = x

	if !cfg.timersDisabled {
		x.timers = NewTimerQueue(cfg.tableMinCapacity)
	}
	if !cfg.framesDisabled {
		x.frames = newFramePacer(host, x.timers, x.clock, x.logger)
	}

	return x, nil
}

// Ctx returns the context passed to the handler.
func (x *Router) Ctx() *Ctx { return &x.cx }

// Exited returns true once the Exiting notification has been processed.
func (x *Router) Exited() bool { return x.exited }

// Notify processes a single notification from the host. It must only be
// called from the control thread. Notifications received after Exiting are
// discarded.
func (x *Router) Notify(n Notification) {
	if x.exited {
		x.logger.Debug().
			Limit().
			Log(`hostrt: notification after exit`)
		return
	}

	switch n := n.(type) {
	case Resumed:
		x.deliver(n)
	case Suspended:
		x.deliver(n)
	case Exiting:
		x.exited = true
		x.deliver(Exit{})
	case WakeTask:
		if output, done := x.executor.Poll(n.ID); done {
			x.deliver(TaskReady{ID: n.ID, Output: output})
		}
	case TimeReached:
		x.timeReached()
	case WindowEvent:
		x.deliver(n)
	case DeviceEvent:
		x.deliver(n)
	case UserEvent:
		x.deliver(n)
	default:
		x.logger.Warning().
			Limit().
			Any(`notification`, n).
			Log(`hostrt: unknown notification`)
	}

	x.afterNotify()
}

func (x *Router) timeReached() {
	if x.timers == nil {
		return
	}
	t, ok := x.timers.PopReady(x.clock())
	if !ok {
		return
	}
	switch t.Owner.Kind {
	case OwnerTaskDelay:
		x.executor.bridge.Wake(t.Owner.Task)
	case OwnerFrame:
		if x.frames != nil {
			x.frames.fire(t.Owner.Window, t.WakeAt)
		}
	default:
		x.deliver(TimerFired(t))
	}
}

func (x *Router) deliver(ev Event) {
	x.handler.Event(&x.cx, ev)
}

func (x *Router) afterNotify() {
	if x.frames != nil {
		x.frames.flush()
	}

	if x.timers != nil {
		if policy, ok := x.timers.TakeWaitPolicyUpdate(); ok {
			x.logger.Trace().
				Stringer(`policy`, policy).
				Log(`hostrt: wait policy updated`)
			x.host.SetWaitPolicy(policy)
		}
	}

	if x.cx.exit {
		x.cx.exit = false
		x.host.Exit()
	}
}
