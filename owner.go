package hostrt

import (
	"fmt"

	"github.com/google/uuid"
)

// OwnerKind discriminates the TimeoutOwner variants.
type OwnerKind uint8

const (
	// OwnerUser is a timeout set by application code, identified by a
	// 128-bit id. It is delivered as a TimerFired event.
	OwnerUser OwnerKind = iota + 1
	// OwnerFrame is a repaint request for a window. It is consumed by the
	// frame pacer, and never delivered.
	OwnerFrame
	// OwnerTaskDelay is a task-internal delay (see Delay). It is consumed by
	// waking the task, and never delivered.
	OwnerTaskDelay
)

// TimeoutOwner identifies the owner of a pending timeout. There is at most
// one pending timeout per owner. It is comparable, and only the fields
// relevant to the Kind are set, use the constructors.
type TimeoutOwner struct {
	Kind   OwnerKind
	ID     uuid.UUID
	Window WindowID
	Task   TaskID
	Seq    uint64
}

// UserTimeout returns the owner for a user timeout.
func UserTimeout(id uuid.UUID) TimeoutOwner {
	return TimeoutOwner{Kind: OwnerUser, ID: id}
}

// FrameRequest returns the owner for a window's pending frame request.
func FrameRequest(window WindowID) TimeoutOwner {
	return TimeoutOwner{Kind: OwnerFrame, Window: window}
}

// TaskDelay returns the owner for a task's delay. The seq distinguishes
// multiple delays awaited by the same task, which may overlap if a delay is
// abandoned.
func TaskDelay(task TaskID, seq uint64) TimeoutOwner {
	return TimeoutOwner{Kind: OwnerTaskDelay, Task: task, Seq: seq}
}

func (x OwnerKind) String() string {
	switch x {
	case OwnerUser:
		return `user`
	case OwnerFrame:
		return `frame`
	case OwnerTaskDelay:
		return `task-delay`
	default:
		return fmt.Sprintf(`OwnerKind(%d)`, uint8(x))
	}
}

func (x TimeoutOwner) String() string {
	switch x.Kind {
	case OwnerUser:
		return `user:` + x.ID.String()
	case OwnerFrame:
		return fmt.Sprintf(`frame:%d`, uint64(x.Window))
	case OwnerTaskDelay:
		return fmt.Sprintf(`task-delay:%d/%d`, uint64(x.Task), x.Seq)
	default:
		return x.Kind.String()
	}
}
