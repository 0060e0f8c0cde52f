package hostrt

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
)

// fakeHost records everything, and queues injected notifications, which are
// delivered by drain.
type fakeHost struct {
	mu       sync.Mutex
	queue    []Notification
	policies []WaitPolicy
	redraws  []WindowID
	exits    int
	closed   bool
}

var (
	// compile time assertions

	_ Host     = (*fakeHost)(nil)
	_ Redrawer = (*fakeHost)(nil)
)

func (x *fakeHost) Inject(n Notification) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return ErrHostClosed
	}
	x.queue = append(x.queue, n)
	return nil
}

func (x *fakeHost) SetWaitPolicy(policy WaitPolicy) {
	x.policies = append(x.policies, policy)
}

func (x *fakeHost) Exit() { x.exits++ }

func (x *fakeHost) RequestRedraw(window WindowID) {
	x.redraws = append(x.redraws, window)
}

func (x *fakeHost) close() {
	x.mu.Lock()
	x.closed = true
	x.mu.Unlock()
}

func (x *fakeHost) pop() (Notification, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.queue) == 0 {
		return nil, false
	}
	n := x.queue[0]
	x.queue = x.queue[1:]
	return n, true
}

func (x *fakeHost) pending() []Notification {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]Notification(nil), x.queue...)
}

// drain delivers queued notifications until there are none left
func (x *fakeHost) drain(r *Router) {
	for {
		n, ok := x.pop()
		if !ok {
			return
		}
		r.Notify(n)
	}
}

func (x *fakeHost) lastPolicy(t *testing.T) WaitPolicy {
	t.Helper()
	if len(x.policies) == 0 {
		t.Fatal(`no wait policy set`)
	}
	return x.policies[len(x.policies)-1]
}

type manualClock struct {
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (x *manualClock) Now() time.Time { return x.now }

func (x *manualClock) Advance(d time.Duration) { x.now = x.now.Add(d) }

// eventRecorder is a Handler that records events, optionally calling fn
type eventRecorder struct {
	events []Event
	fn     func(cx *Ctx, ev Event)
}

func (x *eventRecorder) Event(cx *Ctx, ev Event) {
	x.events = append(x.events, ev)
	if x.fn != nil {
		x.fn(cx, ev)
	}
}

type safeBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (x *safeBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.b.Write(p)
}

func (x *safeBuffer) String() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.b.String()
}

func (x *safeBuffer) count(substr string) int {
	return strings.Count(x.String(), substr)
}

func newTestLogger(w *safeBuffer) *logiface.Logger[logiface.Event] {
	return NewLogger(w, logiface.LevelTrace, nil)
}

func at(base time.Time, ms int) time.Time {
	return base.Add(time.Duration(ms) * time.Millisecond)
}
