package hostrt

import (
	"context"
	"sync"
)

type (
	// Result is the output of a task created by Go.
	Result struct {
		Value any
		Err   error
	}

	goTask struct {
		ctx    context.Context
		fn     func(ctx context.Context) (any, error)
		once   sync.Once
		done   chan struct{}
		result Result
	}
)

// Go returns a task that runs fn in a new goroutine (started on the first
// poll), completing with a Result once fn returns. A panic in fn is
// recovered, as a PanicError.
//
// Canceling the task does not stop the goroutine, use ctx for that.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) Task {
	if ctx == nil {
		panic(`hostrt: nil context`)
	}
	if fn == nil {
		panic(`hostrt: nil function`)
	}
	return &goTask{
		ctx:  ctx,
		fn:   fn,
		done: make(chan struct{}),
	}
}

func (x *goTask) Poll(w WakeHandle) (any, bool) {
	x.once.Do(func() { go x.run(w) })
	select {
	case <-x.done:
		return x.result, true
	default:
		return nil, false
	}
}

func (x *goTask) run(w WakeHandle) {
	defer w.Wake()
	defer close(x.done)
	defer func() {
		if r := recover(); r != nil {
			x.result = Result{Err: PanicError{Value: r}}
		}
	}()
	value, err := x.fn(x.ctx)
	x.result = Result{Value: value, Err: err}
}
