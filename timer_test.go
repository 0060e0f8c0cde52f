package hostrt

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
)

var timerBase = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func userOwner(n int) TimeoutOwner {
	var id uuid.UUID
	id[15] = byte(n)
	id[14] = byte(n >> 8)
	return UserTimeout(id)
}

func assertTimerInvariants(t *testing.T, q *TimerQueue) {
	t.Helper()
	timeouts := q.Timeouts()
	seen := make(map[TimeoutOwner]bool, len(timeouts))
	for i, v := range timeouts {
		if i > 0 && v.WakeAt.Before(timeouts[i-1].WakeAt) {
			t.Fatalf(`not ordered at %d: %v`, i, timeouts)
		}
		if seen[v.Owner] {
			t.Fatalf(`duplicate owner %s`, v.Owner)
		}
		seen[v.Owner] = true
	}
	if len(timeouts) != q.Len() {
		t.Fatalf(`len mismatch: %d != %d`, len(timeouts), q.Len())
	}
}

func TestTimerQueue_Set(t *testing.T) {
	for _, tc := range [...]struct {
		name   string
		setup  []int
		owner  int
		wakeAt int
		mode   SetMode
		result TimeoutResult
		order  []int
	}{
		{
			name:   `empty`,
			owner:  1,
			wakeAt: 100,
			order:  []int{1},
		},
		{
			name:   `replace always later`,
			setup:  []int{1, 100, 2, 200},
			owner:  1,
			wakeAt: 300,
			result: TimeoutResult{Kind: ResultCanceled, At: at(timerBase, 100)},
			order:  []int{2, 1},
		},
		{
			name:   `only if earlier no-op`,
			setup:  []int{1, 100},
			owner:  1,
			wakeAt: 150,
			mode:   SetOnlyIfEarlier,
			result: TimeoutResult{Kind: ResultFoundEarlier, At: at(timerBase, 100)},
			order:  []int{1},
		},
		{
			name:   `only if earlier equal no-op`,
			setup:  []int{1, 100},
			owner:  1,
			wakeAt: 100,
			mode:   SetOnlyIfEarlier,
			result: TimeoutResult{Kind: ResultFoundEarlier, At: at(timerBase, 100)},
			order:  []int{1},
		},
		{
			name:   `only if earlier replaces`,
			setup:  []int{2, 50, 1, 100},
			owner:  1,
			wakeAt: 10,
			mode:   SetOnlyIfEarlier,
			result: TimeoutResult{Kind: ResultCanceled, At: at(timerBase, 100)},
			order:  []int{1, 2},
		},
		{
			name:   `ties keep insertion order`,
			setup:  []int{1, 100, 2, 100},
			owner:  3,
			wakeAt: 100,
			order:  []int{1, 2, 3},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var q TimerQueue
			for i := 0; i < len(tc.setup); i += 2 {
				q.Set(userOwner(tc.setup[i]), at(timerBase, tc.setup[i+1]), SetAlways)
			}
			if res := q.Set(userOwner(tc.owner), at(timerBase, tc.wakeAt), tc.mode); res != tc.result {
				t.Fatalf(`unexpected result: %+v`, res)
			}
			var order []int
			for _, v := range q.Timeouts() {
				order = append(order, int(v.Owner.ID[15]))
			}
			if !slices.Equal(order, tc.order) {
				t.Fatalf(`unexpected order: %v`, order)
			}
			assertTimerInvariants(t, &q)
		})
	}
}

func TestTimerQueue_Cancel(t *testing.T) {
	var q TimerQueue
	q.Set(userOwner(1), at(timerBase, 100), SetAlways)

	if res := q.Cancel(userOwner(1), at(timerBase, 150)); res != (TimeoutResult{Kind: ResultFoundEarlier, At: at(timerBase, 100)}) {
		t.Fatalf(`unexpected result: %+v`, res)
	}
	if res := q.Cancel(userOwner(1), at(timerBase, 100)); res.Kind != ResultFoundEarlier {
		t.Fatalf(`unexpected result: %+v`, res)
	}
	if v, ok := q.Get(userOwner(1)); !ok || !v.Equal(at(timerBase, 100)) {
		t.Fatalf(`expected timeout to remain: %v %v`, v, ok)
	}

	if res := q.Cancel(userOwner(1), at(timerBase, 50)); res != (TimeoutResult{Kind: ResultCanceled, At: at(timerBase, 100)}) {
		t.Fatalf(`unexpected result: %+v`, res)
	}
	if res := q.Cancel(userOwner(1), time.Time{}); res.Kind != ResultNone {
		t.Fatalf(`unexpected result: %+v`, res)
	}
	if q.Len() != 0 {
		t.Fatal(`expected empty`)
	}
}

func TestTimerQueue_SetAfter_overflow(t *testing.T) {
	var q TimerQueue
	owner := userOwner(1)

	if res := q.SetAfter(owner, timerBase, Forever, SetAlways); res.Kind != ResultNone {
		t.Fatalf(`unexpected result: %+v`, res)
	}
	if q.Len() != 0 {
		t.Fatal(`expected nothing scheduled`)
	}

	q.SetAfter(owner, timerBase, time.Second, SetAlways)

	if res := q.SetAfter(owner, timerBase, Forever, SetOnlyIfEarlier); res != (TimeoutResult{Kind: ResultFoundEarlier, At: timerBase.Add(time.Second)}) {
		t.Fatalf(`unexpected result: %+v`, res)
	}
	if q.Len() != 1 {
		t.Fatal(`expected existing timeout to remain`)
	}

	if res := q.SetAfter(owner, timerBase, Forever, SetAlways); res != (TimeoutResult{Kind: ResultCanceled, At: timerBase.Add(time.Second)}) {
		t.Fatalf(`unexpected result: %+v`, res)
	}
	if q.Len() != 0 {
		t.Fatal(`expected existing timeout to be canceled`)
	}
}

func TestTimerQueue_PopReady(t *testing.T) {
	var q TimerQueue
	q.Set(userOwner(1), at(timerBase, 200), SetAlways)
	q.Set(userOwner(2), at(timerBase, 100), SetAlways)
	q.Set(userOwner(3), at(timerBase, 100), SetAlways)

	if _, ok := q.PopReady(at(timerBase, 99)); ok {
		t.Fatal(`nothing should be due`)
	}

	var popped []TimeoutOwner
	for {
		v, ok := q.PopReady(at(timerBase, 150))
		if !ok {
			break
		}
		popped = append(popped, v.Owner)
	}
	if !slices.Equal(popped, []TimeoutOwner{userOwner(2), userOwner(3)}) {
		t.Fatalf(`unexpected popped: %v`, popped)
	}

	if v, ok := q.PopReady(at(timerBase, 200)); !ok || v.Owner != userOwner(1) {
		t.Fatalf(`expected due timeout: %v %v`, v, ok)
	}
	if _, ok := q.PopReady(at(timerBase, 1000)); ok {
		t.Fatal(`expected empty`)
	}
}

func TestTimerQueue_TakeWaitPolicyUpdate(t *testing.T) {
	var q TimerQueue
	if _, ok := q.TakeWaitPolicyUpdate(); ok {
		t.Fatal(`no update expected initially`)
	}

	q.Set(userOwner(1), at(timerBase, 100), SetAlways)
	if p, ok := q.TakeWaitPolicyUpdate(); !ok || p != WaitUntil(at(timerBase, 100)) {
		t.Fatalf(`unexpected policy: %v %v`, p, ok)
	}
	if _, ok := q.TakeWaitPolicyUpdate(); ok {
		t.Fatal(`update must be one-shot`)
	}

	// not the front
	q.Set(userOwner(2), at(timerBase, 200), SetAlways)
	if _, ok := q.TakeWaitPolicyUpdate(); ok {
		t.Fatal(`front did not change`)
	}
	q.Cancel(userOwner(2), time.Time{})
	if _, ok := q.TakeWaitPolicyUpdate(); ok {
		t.Fatal(`front did not change`)
	}

	// new front
	q.Set(userOwner(3), at(timerBase, 50), SetAlways)
	if p, ok := q.TakeWaitPolicyUpdate(); !ok || p != WaitUntil(at(timerBase, 50)) {
		t.Fatalf(`unexpected policy: %v %v`, p, ok)
	}

	q.PopReady(at(timerBase, 50))
	if p, ok := q.TakeWaitPolicyUpdate(); !ok || p != WaitUntil(at(timerBase, 100)) {
		t.Fatalf(`unexpected policy: %v %v`, p, ok)
	}

	q.Cancel(userOwner(1), time.Time{})
	if p, ok := q.TakeWaitPolicyUpdate(); !ok || p != WaitIndefinitely() {
		t.Fatalf(`unexpected policy: %v %v`, p, ok)
	}
}

func TestTimerQueue_frontChangeProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	var q TimerQueue
	for i := 0; i < 3000; i++ {
		before, hadFront := q.Front()
		owner := userOwner(rng.IntN(40))
		var replaced bool
		switch rng.IntN(4) {
		case 0, 1:
			wakeAt := at(timerBase, rng.IntN(1000))
			replaced = hadFront && before == Timeout{Owner: owner, WakeAt: wakeAt}
			q.Set(owner, wakeAt, SetMode(rng.IntN(2)))
		case 2:
			q.Cancel(owner, time.Time{})
		case 3:
			q.PopReady(at(timerBase, rng.IntN(1000)))
		}
		assertTimerInvariants(t, &q)

		after, hasFront := q.Front()
		changed := hadFront != hasFront || before != after
		_, updated := q.TakeWaitPolicyUpdate()
		if changed && !updated {
			t.Fatalf(`iteration %d: front changed without an update`, i)
		}
		// setting the front to itself may report an update
		if updated && !changed && !replaced {
			t.Fatalf(`iteration %d: update without the front changing: %v`, i, after)
		}
	}
}

func TestTimerQueue_CancelTask(t *testing.T) {
	var q TimerQueue
	q.Set(TaskDelay(1, 1), at(timerBase, 10), SetAlways)
	q.Set(TaskDelay(2, 1), at(timerBase, 20), SetAlways)
	q.Set(TaskDelay(1, 2), at(timerBase, 30), SetAlways)
	q.Set(userOwner(1), at(timerBase, 40), SetAlways)

	if n := q.CancelTask(1); n != 2 {
		t.Fatalf(`expected 2 removed, got %d`, n)
	}
	if !slices.Equal(q.Timeouts(), []Timeout{
		{Owner: TaskDelay(2, 1), WakeAt: at(timerBase, 20)},
		{Owner: userOwner(1), WakeAt: at(timerBase, 40)},
	}) {
		t.Fatalf(`unexpected timeouts: %v`, q.Timeouts())
	}
}

func TestTimerQueue_compaction(t *testing.T) {
	var q TimerQueue
	for i := 0; i < 4096; i++ {
		q.Set(TaskDelay(TaskID(i+1), 0), at(timerBase, i), SetAlways)
	}
	before := q.Cap()
	if before < 4096 {
		t.Fatalf(`unexpected capacity: %d`, before)
	}
	for i := 0; i < 3200; i++ {
		if _, ok := q.PopReady(at(timerBase, 4096)); !ok {
			t.Fatalf(`expected due timeout at %d`, i)
		}
	}
	if q.Len() != 896 {
		t.Fatalf(`unexpected len: %d`, q.Len())
	}
	if c := q.Cap(); c > before/2 {
		t.Fatalf(`expected capacity <= %d, got %d`, before/2, c)
	}
	if front, _ := q.Front(); !front.WakeAt.Equal(at(timerBase, 3200)) {
		t.Fatalf(`unexpected front: %v`, front)
	}
	assertTimerInvariants(t, &q)

	// drain, the floor applies
	for q.Len() != 0 {
		q.PopReady(at(timerBase, 4096))
	}
	if c := q.Cap(); c < DefaultTableMinCapacity {
		t.Fatalf(`capacity below floor: %d`, c)
	}
}

func TestTimerQueue_reusesPoppedPrefix(t *testing.T) {
	q := NewTimerQueue(4)
	for i := 0; i < 4; i++ {
		q.Set(userOwner(i), at(timerBase, i*10), SetAlways)
	}
	q.PopReady(at(timerBase, 0))
	q.PopReady(at(timerBase, 10))
	// before the front
	q.Set(userOwner(10), at(timerBase, 5), SetAlways)
	// after the back
	q.Set(userOwner(11), at(timerBase, 100), SetAlways)
	q.Set(userOwner(12), at(timerBase, 25), SetAlways)

	var got []int
	for _, v := range q.Timeouts() {
		got = append(got, int(v.Owner.ID[15]))
	}
	if !slices.Equal(got, []int{10, 2, 12, 3, 11}) {
		t.Fatalf(`unexpected order: %v`, got)
	}
	assertTimerInvariants(t, q)
}
