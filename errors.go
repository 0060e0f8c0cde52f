package hostrt

import (
	"errors"
)

var (
	// ErrHostClosed should be returned by Injector.Inject, once the host has
	// stopped delivering notifications.
	ErrHostClosed = errors.New(`hostrt: host closed`)

	// ErrDisabled is returned by Ctx operations whose subsystem was not
	// enabled, see the Router options.
	ErrDisabled = errors.New(`hostrt: subsystem disabled`)

	// ErrUnschedulable indicates a timeout that could not be represented.
	ErrUnschedulable = errors.New(`hostrt: timeout not schedulable`)

	// ErrNoRedrawer is returned by frame pacing operations if the host does
	// not implement Redrawer.
	ErrNoRedrawer = errors.New(`hostrt: host cannot redraw`)

	// ErrTaskSlotInUse is returned by Executor.TrySpawn, in single slot mode,
	// while another task is live.
	ErrTaskSlotInUse = errors.New(`hostrt: single task slot in use`)
)
