// Package app implements application mounting on top of the hostrt
// scheduling core: a window is created once the host resumes, the
// application is constructed asynchronously once the window has a size, and
// every event received in the meantime is replayed to it, in order.
package app

import (
	"fmt"

	"github.com/joeycumines/go-hostrt"
)

type (
	// App is a mounted application.
	App interface {
		Event(cx *Ctx, ev hostrt.Event)
	}

	// Func adapts a function to the App interface.
	Func func(cx *Ctx, ev hostrt.Event)

	// InitFunc returns the task that constructs the application. The task's
	// output must be an App (or a hostrt.Result with an App value). The
	// context is the one the application will be mounted with.
	InitFunc func(cx *Ctx) hostrt.Task

	// MountError indicates that the construction task did not produce an
	// application.
	MountError struct {
		// Output is the construction task's output.
		Output any
	}
)

var (
	// compile time assertions

	_ App = Func(nil)
)

// Event implements App.
func (x Func) Event(cx *Ctx, ev hostrt.Event) { x(cx, ev) }

func (e *MountError) Error() string {
	if err := e.Unwrap(); err != nil {
		return `app: mount failed: ` + err.Error()
	}
	return fmt.Sprintf(`app: mount failed: unexpected output %T`, e.Output)
}

// Unwrap returns the output, if it was an error.
func (e *MountError) Unwrap() error {
	switch v := e.Output.(type) {
	case error:
		return v
	case hostrt.Result:
		return v.Err
	default:
		return nil
	}
}

// resolveApp converts the construction task output to an App
func resolveApp(output any) (App, error) {
	v := output
	if r, ok := v.(hostrt.Result); ok {
		if r.Err != nil {
			return nil, &MountError{Output: output}
		}
		v = r.Value
	}
	if a, ok := v.(App); ok && a != nil {
		return a, nil
	}
	return nil, &MountError{Output: output}
}
