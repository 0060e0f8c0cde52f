// Package hostloop implements a headless hostrt.Host, driving a router from
// a single goroutine, with notifications injected from any goroutine, and an
// optional external source of input events.
package hostloop

import (
	"context"
	"errors"
	"io"
	"slices"
	"time"

	"github.com/joeycumines/go-hostrt"
	"github.com/joeycumines/go-hostrt/internal/ingress"
	"github.com/joeycumines/logiface"
)

var (
	// ErrLoopAlreadyRunning is returned when Run is called on a running loop.
	ErrLoopAlreadyRunning = errors.New(`hostloop: loop is already running`)

	// ErrLoopTerminated is returned when the loop has been terminated.
	ErrLoopTerminated = errors.New(`hostloop: loop has been terminated`)
)

// retryDelay bounds the spin if a TimeReached notification didn't advance
// the wait policy, e.g. because of a clock mismatch
const retryDelay = time.Millisecond

type (
	// Receiver is implemented by *hostrt.Router.
	Receiver interface {
		Notify(n hostrt.Notification)
	}

	// Loop is a headless host. Notifications are delivered to the Receiver
	// passed to Run, on the goroutine that called Run.
	//
	// Window creation is simulated: each window is assigned a new id, and is
	// immediately sent a Resized event, with the requested size. Redraw
	// requests are delivered as RedrawRequested events, once the current
	// batch of notifications has been processed.
	Loop struct {
		state      fastState
		queue      *ingress.Queue[hostrt.Notification]
		logger     *logiface.Logger[logiface.Event]
		clock      func() time.Time
		source     <-chan hostrt.Notification
		maxBatch   int
		wake       chan struct{}
		done       chan struct{}
		policy     hostrt.WaitPolicy
		policySet  bool
		exit       bool
		nextWindow hostrt.WindowID
		windows    []hostrt.WindowID
		redraws    []hostrt.WindowID
	}
)

var (
	// compile time assertions

	_ hostrt.Host       = (*Loop)(nil)
	_ hostrt.WindowHost = (*Loop)(nil)
	_ hostrt.Redrawer   = (*Loop)(nil)
	_ Receiver          = (*hostrt.Router)(nil)
)

// New constructs a Loop.
func New(options ...Option) (*Loop, error) {
	cfg, err := resolveLoopOptions(options)
	if err != nil {
		return nil, err
	}
	return &Loop{
		queue:    ingress.NewQueue[hostrt.Notification](),
		logger:   cfg.logger,
		clock:    cfg.clock,
		source:   cfg.source,
		maxBatch: cfg.maxBatch,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		policy:   hostrt.WaitIndefinitely(),
	}, nil
}

// State returns the current state.
func (l *Loop) State() LoopState { return l.state.Load() }

// Inject implements hostrt.Injector. It is safe to call from any goroutine,
// including from within the receiver, and never blocks.
func (l *Loop) Inject(n hostrt.Notification) error {
	if err := l.queue.Push(n); err != nil {
		return hostrt.ErrHostClosed
	}
	return nil
}

// SetWaitPolicy implements hostrt.Host.
func (l *Loop) SetWaitPolicy(policy hostrt.WaitPolicy) {
	l.policy = policy
	l.policySet = true
}

// Exit implements hostrt.Host. The loop stops once the current notification
// has been delivered, then delivers Exiting.
func (l *Loop) Exit() { l.exit = true }

// CreateWindow implements hostrt.WindowHost.
func (l *Loop) CreateWindow(attrs hostrt.WindowAttributes) (hostrt.WindowID, error) {
	l.nextWindow++
	window := l.nextWindow
	if err := l.Inject(hostrt.WindowEvent{Window: window, Data: hostrt.Resized{Width: attrs.Width, Height: attrs.Height}}); err != nil {
		return 0, err
	}
	l.windows = append(l.windows, window)
	l.logger.Debug().
		Uint64(`window`, uint64(window)).
		Str(`title`, attrs.Title).
		Int(`width`, attrs.Width).
		Int(`height`, attrs.Height).
		Log(`hostloop: window created`)
	return window, nil
}

// RequestRedraw implements hostrt.Redrawer.
func (l *Loop) RequestRedraw(window hostrt.WindowID) {
	if !slices.Contains(l.redraws, window) {
		l.redraws = append(l.redraws, window)
	}
}

// Run delivers notifications to r until exit is requested, ctx is canceled,
// or Shutdown is called, then delivers Exiting, and returns. The first
// notification is always Resumed. If ctx was canceled, its error is
// returned.
func (l *Loop) Run(ctx context.Context, r Receiver) error {
	if ctx == nil {
		panic(`hostloop: nil context`)
	}
	if r == nil {
		panic(`hostloop: nil receiver`)
	}

	if !l.state.TryTransition(StateAwake, StateRunning) {
		if l.state.Load() == StateTerminated {
			return ErrLoopTerminated
		}
		return ErrLoopAlreadyRunning
	}

	defer close(l.done)

	err := l.run(ctx, r)

	l.shutdown(r)

	return err
}

// Shutdown stops the loop, blocking until Exiting has been delivered, or ctx
// is canceled.
func (l *Loop) Shutdown(ctx context.Context) error {
	prev, ok := l.state.terminate()
	if !ok {
		if prev == StateTerminated {
			return nil
		}
	} else if prev == StateAwake {
		l.queue.Close()
		l.state.Store(StateTerminated)
		close(l.done)
		return nil
	}

	select {
	case l.wake <- struct{}{}:
	default:
	}

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the loop has terminated.
func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) run(ctx context.Context, r Receiver) error {
	l.notify(r, hostrt.Resumed{})

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	buf := make([]hostrt.Notification, 0, l.maxBatch)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.stopping() {
			return nil
		}

		// queued notifications
		buf = l.queue.Drain(buf[:0], l.maxBatch)
		for i, n := range buf {
			buf[i] = nil
			l.notify(r, n)
			if l.stopping() {
				return nil
			}
		}
		progressed := len(buf) != 0

		// redraws requested while processing
		if len(l.redraws) != 0 {
			redraws := l.redraws
			l.redraws = nil
			for _, window := range redraws {
				l.notify(r, hostrt.WindowEvent{Window: window, Data: hostrt.RedrawRequested{}})
				if l.stopping() {
					return nil
				}
			}
			progressed = true
		}

		// timeouts
		var timerC <-chan time.Time
		switch l.policy.Mode {
		case hostrt.WaitPollMode:
			l.notify(r, hostrt.TimeReached{})
			continue
		case hostrt.WaitUntilMode:
			if d := l.policy.Until.Sub(l.clock()); d > 0 {
				timer.Reset(d)
				timerC = timer.C
			} else {
				l.policySet = false
				l.notify(r, hostrt.TimeReached{})
				if l.policySet || l.stopping() {
					continue
				}
				timer.Reset(retryDelay)
				timerC = timer.C
			}
		}

		if progressed || l.queue.Len() != 0 {
			timer.Stop()
			continue
		}

		if err := l.sleep(ctx, r, timerC); err != nil {
			return err
		}
		timer.Stop()
	}
}

func (l *Loop) sleep(ctx context.Context, r Receiver, timerC <-chan time.Time) error {
	if !l.state.TryTransition(StateRunning, StateSleeping) {
		return nil
	}

	// deadlines are handled by the caller, on the next iteration
	var (
		n        hostrt.Notification
		received bool
		closed   bool
	)
	select {
	case <-ctx.Done():
	case <-l.wake:
	case <-l.queue.Signal():
	case <-timerC:
	case n, received = <-l.source:
		closed = !received
	}

	l.state.TryTransition(StateSleeping, StateRunning)

	if err := ctx.Err(); err != nil {
		return err
	}

	switch {
	case closed:
		l.sourceClosed(r)

	case received:
		l.notify(r, n)
		switch err := l.drainSource(ctx, r, l.maxBatch-1); err {
		case nil, errStop:
		case io.EOF:
			l.sourceClosed(r)
		default:
			return err
		}
	}

	return nil
}

func (l *Loop) sourceClosed(r Receiver) {
	l.source = nil
	if len(l.windows) == 0 {
		l.exit = true
		return
	}
	for _, window := range l.windows {
		l.notify(r, hostrt.WindowEvent{Window: window, Data: hostrt.CloseRequested{}})
	}
}

func (l *Loop) notify(r Receiver, n hostrt.Notification) {
	l.logger.Trace().
		Any(`notification`, n).
		Log(`hostloop: notify`)
	r.Notify(n)
}

func (l *Loop) stopping() bool {
	if l.exit {
		l.state.terminate()
		return true
	}
	return l.state.Load() == StateTerminating
}

func (l *Loop) shutdown(r Receiver) {
	l.state.terminate()
	l.queue.Close()
	if n := l.queue.Len(); n != 0 {
		l.logger.Debug().
			Int(`dropped`, n).
			Log(`hostloop: dropped queued notifications on exit`)
	}
	l.notify(r, hostrt.Exiting{})
	l.state.Store(StateTerminated)
}
