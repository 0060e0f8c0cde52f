// Package hostrt implements a cooperative task and timer scheduling core, for
// programs whose main loop is driven by an external host, i.e. a callback
// based event source that calls into the program.
//
// # Architecture
//
// The [Router] is the entry point. The host calls [Router.Notify] for every
// [Notification], on a single control thread. The router maps notifications,
// task wakes and timer firings onto a single stream of [Event] values,
// delivered to a [Handler].
//
// Tasks ([Task]) are hand-written state machines, polled by the [Executor]
// only when woken. A task that cannot make progress arranges for its
// [WakeHandle] to be called later, which injects a [WakeTask] notification
// via the host. Spawning a task requests a wake; it is never polled inline.
//
// The [TimerQueue] holds pending timeouts ordered by wake time, with at most
// one timeout per [TimeoutOwner]. The router tells the host when to next
// wake the program, via [Host.SetWaitPolicy], only when the earliest timeout
// changes. Timeouts never block.
//
// # Thread Safety
//
// Everything except [WakeHandle], [WakeBridge] and [EventDispatcher] must
// only be used on the control thread, i.e. from within [Router.Notify].
// Hosts must implement [Injector.Inject] such that it is safe to call from
// any goroutine, and never re-enters the router.
//
// # Optional subsystems
//
// The timer queue and frame pacing may be disabled, and the task table may
// be replaced with a single slot, see [WithTimers], [WithFramePacing] and
// [WithSingleTaskSlot].
package hostrt
