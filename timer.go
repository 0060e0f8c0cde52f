package hostrt

import (
	"math"
	"sort"
	"time"
)

type (
	// Timeout is a pending timeout, as stored by the TimerQueue.
	Timeout struct {
		Owner  TimeoutOwner
		WakeAt time.Time
	}

	// SetMode controls how TimerQueue.Set treats an existing timeout for the
	// same owner.
	SetMode uint8

	// ResultKind discriminates TimeoutResult.
	ResultKind uint8

	// TimeoutResult describes the effect of a set or cancel operation on the
	// existing timeout (if any) of the owner. At is the existing timeout's
	// wake time, and is only set for ResultCanceled and ResultFoundEarlier.
	TimeoutResult struct {
		Kind ResultKind
		At   time.Time
	}

	// TimerQueue holds pending timeouts, ordered by wake time, with at most
	// one timeout per owner. Entries with equal wake times are kept in
	// insertion order.
	//
	// It tracks whether the front entry (the next to fire) has changed, which
	// is consumed via TakeWaitPolicyUpdate, to tell the host when to next wake
	// the program.
	//
	// A TimerQueue is not safe for concurrent use. The zero value is ready to
	// use, with a compaction floor of DefaultTableMinCapacity.
	TimerQueue struct {
		// buf[head:] is the queue
		buf          []Timeout
		head         int
		minCap       int
		frontChanged bool
	}
)

const (
	// SetAlways replaces any existing timeout for the owner.
	SetAlways SetMode = iota
	// SetOnlyIfEarlier leaves the existing timeout in place, if it is at or
	// before the new wake time.
	SetOnlyIfEarlier
)

const (
	// ResultNone indicates there was no existing timeout.
	ResultNone ResultKind = iota
	// ResultCanceled indicates the existing timeout was removed.
	ResultCanceled
	// ResultFoundEarlier indicates the existing timeout was retained, because
	// it was at or before the relevant threshold.
	ResultFoundEarlier
)

// Forever is the maximum duration, which is never schedulable.
const Forever time.Duration = math.MaxInt64

// NewTimerQueue constructs a TimerQueue, which will never compact its
// allocation below minCap (DefaultTableMinCapacity if <= 0).
func NewTimerQueue(minCap int) *TimerQueue {
	return &TimerQueue{minCap: minCap}
}

// Set schedules the owner's timeout, at wakeAt, returning the effect on any
// existing timeout for the owner. See also SetMode.
func (x *TimerQueue) Set(owner TimeoutOwner, wakeAt time.Time, mode SetMode) TimeoutResult {
	var ifLaterThan time.Time
	if mode == SetOnlyIfEarlier {
		ifLaterThan = wakeAt
	}

	res := x.cancel(owner, ifLaterThan, mode == SetOnlyIfEarlier)
	if res.Kind == ResultFoundEarlier {
		return res
	}

	x.insert(Timeout{Owner: owner, WakeAt: wakeAt})

	return res
}

// SetAfter is Set, with a wake time relative to now. If now+d cannot be
// represented (including d == Forever), the timeout is unschedulable: for
// SetAlways any existing timeout is canceled, and for SetOnlyIfEarlier any
// existing timeout is always earlier, and is left in place.
func (x *TimerQueue) SetAfter(owner TimeoutOwner, now time.Time, d time.Duration, mode SetMode) TimeoutResult {
	if wakeAt, ok := checkedAdd(now, d); ok {
		return x.Set(owner, wakeAt, mode)
	}
	if mode == SetOnlyIfEarlier {
		if at, ok := x.Get(owner); ok {
			return TimeoutResult{Kind: ResultFoundEarlier, At: at}
		}
		return TimeoutResult{}
	}
	return x.Cancel(owner, time.Time{})
}

// Cancel removes the owner's timeout. If ifLaterThan is non-zero, the
// timeout is only removed if it is strictly later than ifLaterThan,
// otherwise it is retained, and ResultFoundEarlier is returned.
func (x *TimerQueue) Cancel(owner TimeoutOwner, ifLaterThan time.Time) TimeoutResult {
	return x.cancel(owner, ifLaterThan, !ifLaterThan.IsZero())
}

func (x *TimerQueue) cancel(owner TimeoutOwner, ifLaterThan time.Time, conditional bool) TimeoutResult {
	i := x.index(owner)
	if i < 0 {
		return TimeoutResult{}
	}
	at := x.buf[x.head+i].WakeAt
	if conditional && !at.After(ifLaterThan) {
		return TimeoutResult{Kind: ResultFoundEarlier, At: at}
	}
	x.remove(i)
	return TimeoutResult{Kind: ResultCanceled, At: at}
}

// CancelTask removes every task delay timeout owned by the given task,
// returning the number removed.
func (x *TimerQueue) CancelTask(id TaskID) int {
	var n int
	for i := 0; i < x.Len(); {
		if owner := x.buf[x.head+i].Owner; owner.Kind == OwnerTaskDelay && owner.Task == id {
			x.remove(i)
			n++
		} else {
			i++
		}
	}
	return n
}

// PopReady removes and returns the front timeout, if it is due (at or before
// now).
func (x *TimerQueue) PopReady(now time.Time) (Timeout, bool) {
	if x.Len() == 0 || x.buf[x.head].WakeAt.After(now) {
		return Timeout{}, false
	}
	t := x.buf[x.head]
	x.buf[x.head] = Timeout{}
	x.head++
	x.frontChanged = true
	if x.head == len(x.buf) {
		x.buf = x.buf[:0]
		x.head = 0
	}
	x.compact()
	return t, true
}

// TakeWaitPolicyUpdate returns the wait policy the host should apply, if the
// front of the queue has changed since the last call. An empty queue means
// WaitIndefinitely, otherwise WaitUntil the front's wake time.
func (x *TimerQueue) TakeWaitPolicyUpdate() (WaitPolicy, bool) {
	if !x.frontChanged {
		return WaitPolicy{}, false
	}
	x.frontChanged = false
	if front, ok := x.Front(); ok {
		return WaitUntil(front.WakeAt), true
	}
	return WaitIndefinitely(), true
}

// Get returns the wake time of the owner's timeout, if any.
func (x *TimerQueue) Get(owner TimeoutOwner) (time.Time, bool) {
	if i := x.index(owner); i >= 0 {
		return x.buf[x.head+i].WakeAt, true
	}
	return time.Time{}, false
}

// Front returns the next timeout to fire, if any.
func (x *TimerQueue) Front() (Timeout, bool) {
	if x.Len() == 0 {
		return Timeout{}, false
	}
	return x.buf[x.head], true
}

// Len returns the number of pending timeouts.
func (x *TimerQueue) Len() int { return len(x.buf) - x.head }

// Cap returns the allocated capacity of the queue.
func (x *TimerQueue) Cap() int { return cap(x.buf) }

// Timeouts returns a copy of the pending timeouts, in order.
func (x *TimerQueue) Timeouts() []Timeout {
	return append([]Timeout(nil), x.buf[x.head:]...)
}

func (x *TimerQueue) index(owner TimeoutOwner) int {
	for i, t := range x.buf[x.head:] {
		if t.Owner == owner {
			return i
		}
	}
	return -1
}

// insert places t after any entries with the same wake time
func (x *TimerQueue) insert(t Timeout) {
	live := x.buf[x.head:]
	i := sort.Search(len(live), func(i int) bool { return live[i].WakeAt.After(t.WakeAt) })
	if i == 0 {
		x.frontChanged = true
		if x.head > 0 {
			x.head--
			x.buf[x.head] = t
			return
		}
	}
	if len(x.buf) == cap(x.buf) && x.head > 0 {
		// reclaim the popped prefix before growing
		n := copy(x.buf, live)
		clear(x.buf[n:])
		x.buf = x.buf[:n]
		x.head = 0
	}
	x.buf = append(x.buf, Timeout{})
	copy(x.buf[x.head+i+1:], x.buf[x.head+i:])
	x.buf[x.head+i] = t
}

func (x *TimerQueue) remove(i int) {
	if i == 0 {
		x.frontChanged = true
	}
	i += x.head
	copy(x.buf[i:], x.buf[i+1:])
	x.buf[len(x.buf)-1] = Timeout{}
	x.buf = x.buf[:len(x.buf)-1]
}

// compact shrinks the allocation to half, once it is at most a quarter
// full, but never below minCap
func (x *TimerQueue) compact() {
	minCap := x.minCap
	if minCap <= 0 {
		minCap = DefaultTableMinCapacity
	}
	c := cap(x.buf)
	if c <= minCap || x.Len() > c/4 {
		return
	}
	buf := make([]Timeout, x.Len(), max(c/2, minCap))
	copy(buf, x.buf[x.head:])
	x.buf = buf
	x.head = 0
}

func checkedAdd(now time.Time, d time.Duration) (time.Time, bool) {
	if d == Forever {
		return time.Time{}, false
	}
	t := now.Add(d)
	if t.Sub(now) != d {
		return time.Time{}, false
	}
	return t, true
}

func (x SetMode) String() string {
	if x == SetOnlyIfEarlier {
		return `only-if-earlier`
	}
	return `always`
}

func (x ResultKind) String() string {
	switch x {
	case ResultNone:
		return `none`
	case ResultCanceled:
		return `canceled`
	case ResultFoundEarlier:
		return `found-earlier`
	default:
		return `unknown`
	}
}
