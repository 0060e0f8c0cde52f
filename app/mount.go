package app

import (
	"errors"
	"io"

	"github.com/joeycumines/go-hostrt"
	"github.com/joeycumines/logiface"
)

// MountState is the phase of a Mount.
type MountState uint8

const (
	// StateInit buffers events until the host resumes.
	StateInit MountState = iota
	// StateWindowReady buffers events until the window is sized.
	StateWindowReady
	// StateMounting buffers events until the application is constructed.
	StateMounting
	// StateMounted delivers events to the application.
	StateMounted
	// StateEmpty discards events.
	StateEmpty
)

// ErrNoWindowHost indicates the host cannot create windows.
var ErrNoWindowHost = errors.New(`app: host cannot create windows`)

// Mount sequences the startup of an application, and implements
// hostrt.Handler. It progresses strictly forward, through the MountState
// phases, and any phase may end early (in StateEmpty), on exit.
//
// Every event received before the application is constructed is buffered,
// and replayed to the application, in order, once it is.
type Mount struct {
	logger *logiface.Logger[logiface.Event]
	attrs  hostrt.WindowAttributes
	init   InitFunc
	state  MountState
	buffer []hostrt.Event
	cx     *Ctx
	task   hostrt.TaskID
	app    *appState
	err    error
	// exit has been requested from the host
	exiting bool
}

var (
	// compile time assertions

	_ hostrt.Handler = (*Mount)(nil)
)

// NewMount constructs a Mount, which will create a window with the given
// attributes, and construct the application using init. The logger may be
// nil. A panic will occur if init is nil.
func NewMount(attrs hostrt.WindowAttributes, init InitFunc, logger *logiface.Logger[logiface.Event]) *Mount {
	if init == nil {
		panic(`app: nil init`)
	}
	return &Mount{
		logger: logger,
		attrs:  attrs,
		init:   init,
	}
}

// State returns the current phase.
func (x *Mount) State() MountState { return x.state }

// Buffered returns the number of events awaiting replay.
func (x *Mount) Buffered() int { return len(x.buffer) }

// Err returns the error that caused the mount to fail, if any.
func (x *Mount) Err() error { return x.err }

// Window returns the application window, valid from StateWindowReady.
func (x *Mount) Window() (hostrt.WindowID, bool) {
	if x.cx == nil {
		return 0, false
	}
	return x.cx.window, true
}

// Event implements hostrt.Handler.
func (x *Mount) Event(rt *hostrt.Ctx, ev hostrt.Event) {
	if _, ok := ev.(hostrt.Exit); ok {
		x.empty()
		return
	}

	switch x.state {
	case StateInit:
		x.buffer = append(x.buffer, ev)
		if _, ok := ev.(hostrt.Resumed); ok {
			x.createWindow(rt)
		}

	case StateWindowReady:
		x.buffer = append(x.buffer, ev)
		if ev, ok := ev.(hostrt.WindowEvent); ok && ev.Window == x.cx.window {
			if _, ok := ev.Data.(hostrt.Resized); ok {
				task, err := rt.Executor().TrySpawn(x.init(x.cx))
				if err != nil {
					x.fail(rt, err)
					return
				}
				x.task = task
				x.setState(StateMounting)
			}
		}

	case StateMounting:
		if ready, ok := ev.(hostrt.TaskReady); ok && ready.ID == x.task {
			x.mounted(rt, ready.Output)
		} else {
			x.buffer = append(x.buffer, ev)
		}

	case StateMounted:
		if x.app.event(ev) && !x.exiting {
			x.exiting = true
			rt.Exit()
		}
	}
}

func (x *Mount) createWindow(rt *hostrt.Ctx) {
	wh, ok := rt.Host().(hostrt.WindowHost)
	if !ok {
		x.fail(rt, ErrNoWindowHost)
		return
	}
	window, err := wh.CreateWindow(x.attrs)
	if err != nil {
		x.fail(rt, err)
		return
	}
	x.cx = &Ctx{rt: rt, window: window}
	x.setState(StateWindowReady)
}

func (x *Mount) mounted(rt *hostrt.Ctx, output any) {
	app, err := resolveApp(output)
	if err != nil {
		x.fail(rt, err)
		return
	}

	x.app = &appState{cx: x.cx, app: app}

	buffer := x.buffer
	x.buffer = nil
	for _, ev := range buffer {
		if x.app.event(ev) {
			rt.Exit()
			x.empty()
			return
		}
	}

	x.setState(StateMounted)
}

func (x *Mount) fail(rt *hostrt.Ctx, err error) {
	x.err = err
	x.logger.Err().
		Err(err).
		Stringer(`state`, x.state).
		Log(`app: mount failed`)
	rt.Exit()
	x.empty()
}

// empty is the terminal state, reached on exit, from any state
func (x *Mount) empty() {
	if x.state == StateEmpty {
		return
	}
	x.buffer = nil
	if x.app != nil {
		if closer, ok := x.app.app.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				x.logger.Warning().
					Err(err).
					Log(`app: close failed`)
			}
		}
		x.app = nil
	}
	x.setState(StateEmpty)
}

func (x *Mount) setState(state MountState) {
	x.logger.Debug().
		Stringer(`from`, x.state).
		Stringer(`state`, state).
		Log(`app: mount state`)
	x.state = state
}

func (x MountState) String() string {
	switch x {
	case StateInit:
		return `init`
	case StateWindowReady:
		return `window-ready`
	case StateMounting:
		return `mounting`
	case StateMounted:
		return `mounted`
	case StateEmpty:
		return `empty`
	default:
		return `unknown`
	}
}
