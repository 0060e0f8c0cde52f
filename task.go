package hostrt

import (
	"fmt"
)

type (
	// TaskID identifies a task managed by an Executor. IDs are assigned
	// monotonically (starting at 1) by the default task table, and are
	// stable for the lifetime of the task. See also SingleSlotID.
	TaskID uint64

	// Task models a suspendable computation, driven by an Executor.
	//
	// Poll is called on the control thread, once per wake notification routed
	// to the task. It must not block. If the task cannot make progress it
	// must arrange for w.Wake to be called later (e.g. by a timer, or from a
	// background goroutine), then return done=false. Once done is true, the
	// task is dropped, and output is delivered as TaskReady.
	Task interface {
		Poll(w WakeHandle) (output any, done bool)
	}

	// TaskFunc adapts a function to the Task interface.
	TaskFunc func(w WakeHandle) (output any, done bool)

	// PanicError is the output of a task whose Poll method panicked. The task
	// is treated as completed.
	PanicError struct {
		Value any
	}
)

// SingleSlotID is the only TaskID used when the executor is configured with
// WithSingleTaskSlot.
const SingleSlotID TaskID = 0

// InvalidTaskID is returned by Executor.Spawn if the task was dropped. No
// task ever uses it.
const InvalidTaskID TaskID = ^TaskID(0)

var (
	// compile time assertions

	_ Task = TaskFunc(nil)
)

// Poll implements Task.
func (x TaskFunc) Poll(w WakeHandle) (any, bool) { return x(w) }

// String implements fmt.Stringer.
func (x TaskID) String() string { return fmt.Sprintf(`task#%d`, uint64(x)) }

func (e PanicError) Error() string {
	return fmt.Sprintf(`hostrt: task panicked: %v`, e.Value)
}

// Unwrap returns the panic value, if it is an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Ready returns a task that completes on its first poll, with the given
// output.
func Ready(output any) Task {
	return TaskFunc(func(WakeHandle) (any, bool) { return output, true })
}
