package app

import (
	"github.com/joeycumines/go-hostrt"
)

// appState wraps the mounted application, handling the window events the
// runtime reacts to, before the application sees them.
type appState struct {
	cx  *Ctx
	app App
}

// event delivers ev to the application, returning true if exit was requested
func (x *appState) event(ev hostrt.Event) bool {
	switch ev := ev.(type) {
	case hostrt.WindowEvent:
		if ev.Window != x.cx.window {
			return x.cx.exit
		}
		switch ev.Data.(type) {
		case hostrt.RedrawRequested:
			if frames := x.cx.rt.Frames(); frames != nil {
				frames.Redrawn(x.cx.window)
			}
		case hostrt.Resized, hostrt.ScaleFactorChanged:
			_ = x.cx.RequestRedraw()
		case hostrt.CloseRequested:
			x.cx.exit = true
		}

	case hostrt.TimerFired:
		if ev.Owner.Kind != hostrt.OwnerUser {
			return x.cx.exit
		}

	case hostrt.Exit:
		// not delivered, see Mount
		return x.cx.exit
	}

	x.app.Event(x.cx, ev)

	return x.cx.exit
}
