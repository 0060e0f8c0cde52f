package hostloop

import (
	"sync/atomic"
)

// LoopState represents the current state of the loop.
//
// State Machine:
//
//	StateAwake → StateRunning             [Run()]
//	StateRunning → StateSleeping          [waiting, via CAS]
//	StateSleeping → StateRunning          [woken, via CAS]
//	StateRunning|StateSleeping → StateTerminating [Shutdown(), exit, ctx]
//	StateAwake → StateTerminated          [Shutdown() before Run()]
//	StateTerminating → StateTerminated    [Exiting delivered]
//
// Use TryTransition (CAS) for the temporary states, and Store only for
// StateTerminated.
type LoopState uint64

const (
	// StateAwake indicates the loop has been created but not started.
	StateAwake LoopState = iota
	// StateRunning indicates the loop is delivering notifications.
	StateRunning
	// StateSleeping indicates the loop is blocked, waiting for a
	// notification, or the wait policy deadline.
	StateSleeping
	// StateTerminating indicates shutdown has been requested but not
	// completed.
	StateTerminating
	// StateTerminated indicates the loop has delivered Exiting, and stopped.
	StateTerminated
)

// String returns a human-readable representation of the state.
func (s LoopState) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateRunning:
		return "Running"
	case StateSleeping:
		return "Sleeping"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free state machine.
type fastState struct {
	v atomic.Uint64
}

func (s *fastState) Load() LoopState {
	return LoopState(s.v.Load())
}

func (s *fastState) Store(state LoopState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically transition from one state to another.
func (s *fastState) TryTransition(from, to LoopState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// terminate moves any non-terminal state to StateTerminating, returning the
// previous state, or false if already terminating (or terminated).
func (s *fastState) terminate() (LoopState, bool) {
	for {
		current := s.Load()
		if current == StateTerminating || current == StateTerminated {
			return current, false
		}
		if s.TryTransition(current, StateTerminating) {
			return current, true
		}
	}
}
