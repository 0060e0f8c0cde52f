package hostrt

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// Executor owns the suspended tasks, and polls them, but only when woken.
//
// An Executor must only be used from the control thread, with the exception
// of the WakeBridge (and WakeHandle values) it hands out.
type Executor struct {
	store   taskStore
	bridge  *WakeBridge
	logger  *logiface.Logger[logiface.Event]
	limiter *catrate.Limiter
	polling bool
}

// DefaultStaleWakeRates limits how often a stale wake (a poll for a missing
// task) is logged, per task.
var DefaultStaleWakeRates = map[time.Duration]int{
	time.Second: 2,
	time.Minute: 10,
}

// NewExecutor constructs a standalone executor, which sends wake
// notifications via the given injector. Most users should use a Router,
// which constructs its own executor, from the same options.
//
// Only the task related options (e.g. WithSingleTaskSlot, WithLogger) are
// relevant. A panic will occur if injector is nil.
func NewExecutor(injector Injector, options ...Option) (*Executor, error) {
	cfg, err := resolveOptions(options)
	if err != nil {
		return nil, err
	}
	return newExecutor(injector, cfg), nil
}

func newExecutor(injector Injector, cfg *config) *Executor {
	x := Executor{
		bridge: NewWakeBridge(injector, cfg.logger),
		logger: cfg.logger,
	}
	if cfg.singleTaskSlot {
		x.store = new(singleSlot)
	} else {
		x.store = newTaskTable(cfg.tableMinCapacity)
	}
	if len(cfg.staleWakeRates) != 0 {
		x.limiter = catrate.NewLimiter(cfg.staleWakeRates)
	}
	return &x
}

// Spawn inserts the task, and requests a wake for it. The task is NOT polled
// inline, it will be polled once the wake notification is routed back to the
// control thread.
//
// If the task cannot be accepted (the single slot is in use), it is dropped,
// the failure is logged, and InvalidTaskID is returned. See also TrySpawn.
func (x *Executor) Spawn(task Task) TaskID {
	id, err := x.TrySpawn(task)
	if err != nil {
		x.logger.Err().
			Limit().
			Err(err).
			Log(`hostrt: task dropped`)
	}
	return id
}

// TrySpawn is Spawn, returning ErrTaskSlotInUse if the task was not
// accepted.
func (x *Executor) TrySpawn(task Task) (TaskID, error) {
	if task == nil {
		panic(`hostrt: nil task`)
	}
	id, ok := x.store.spawn(task)
	if !ok {
		return InvalidTaskID, ErrTaskSlotInUse
	}
	x.bridge.Wake(id)
	return id, nil
}

// Poll drives the identified task once. If it completes, it is dropped, and
// its output is returned with done=true. If it is still pending, it is
// returned to the table, under the same id.
//
// A poll for a task that doesn't exist (e.g. a duplicate or stale wake) is
// logged, and is otherwise a no-op.
func (x *Executor) Poll(id TaskID) (output any, done bool) {
	task, ok := x.store.fetch(id)
	if !ok {
		x.logStaleWake(id)
		return nil, false
	}

	output, done = x.pollTask(id, task)

	if done {
		x.store.release(id)
		x.store.clean()
	} else {
		x.store.insert(id, task)
	}

	return output, done
}

func (x *Executor) pollTask(id TaskID, task Task) (output any, done bool) {
	if x.polling {
		// can only happen if a task polls the executor directly
		panic(`hostrt: reentrant poll`)
	}
	x.polling = true
	defer func() {
		x.polling = false
		if r := recover(); r != nil {
			err := PanicError{Value: r}
			x.logger.Err().
				Err(err).
				Uint64(`task`, uint64(id)).
				Log(`hostrt: task panicked`)
			output, done = err, true
		}
	}()
	return task.Poll(x.bridge.Handle(id))
}

// Cancel drops the task without polling it, and without notification,
// returning false if it did not exist. Any cleanup that would normally run
// on a later resumption of the task will not run.
func (x *Executor) Cancel(id TaskID) bool {
	_, ok := x.store.fetch(id)
	if ok {
		x.store.release(id)
	}
	return ok
}

// Compact shrinks the task table if it is at most a quarter full. It is
// called automatically, after every completion.
func (x *Executor) Compact() { x.store.clean() }

// Len returns the number of tasks that are currently suspended.
func (x *Executor) Len() int { return x.store.len() }

// Cap returns the (tracked) allocated capacity of the task table.
func (x *Executor) Cap() int { return x.store.capacity() }

// Contains returns true if the task is currently suspended, in the table.
func (x *Executor) Contains(id TaskID) bool { return x.store.contains(id) }

// Bridge returns the WakeBridge used by this executor.
func (x *Executor) Bridge() *WakeBridge { return x.bridge }

func (x *Executor) logStaleWake(id TaskID) {
	if x.limiter != nil {
		if _, ok := x.limiter.Allow(id); !ok {
			return
		}
	}
	x.logger.Err().
		Uint64(`task`, uint64(id)).
		Log(`hostrt: poll for unknown task`)
}
