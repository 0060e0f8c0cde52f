package hostrt

// DefaultTableMinCapacity is the floor used when compacting the task table
// and the timer queue.
const DefaultTableMinCapacity = 1024

type (
	// taskStore holds suspended tasks. It has no scheduling policy, and is
	// only ever accessed from the control thread.
	taskStore interface {
		// spawn inserts a new task, and returns it's id, or false if the store
		// cannot accept another task
		spawn(task Task) (TaskID, bool)
		// insert returns a checked out task to the store, under it's id
		insert(id TaskID, task Task)
		// fetch checks out (removes) a task
		fetch(id TaskID) (Task, bool)
		// release is called once a checked out task is dropped, instead of
		// being inserted
		release(id TaskID)
		// clean is called after every completion
		clean()
		len() int
		capacity() int
		contains(id TaskID) bool
	}

	// taskTable is the default taskStore, mapping ids to tasks.
	//
	// Go maps never release their buckets on delete, so the allocation is
	// tracked separately (as the size hint the current map was built with,
	// or the high water mark since), and the map is rebuilt when compacted.
	taskTable struct {
		tasks  map[TaskID]Task
		cap    int
		minCap int
		nextID TaskID
	}

	// singleSlot is the simplified taskStore, for programs that only ever
	// have one live task. Every task uses SingleSlotID. The slot stays
	// occupied while its task is checked out.
	singleSlot struct {
		task       Task
		checkedOut bool
	}
)

var (
	// compile time assertions

	_ taskStore = (*taskTable)(nil)
	_ taskStore = (*singleSlot)(nil)
)

func newTaskTable(minCap int) *taskTable {
	if minCap <= 0 {
		minCap = DefaultTableMinCapacity
	}
	return &taskTable{
		tasks:  make(map[TaskID]Task),
		minCap: minCap,
		nextID: 1, // 0 is reserved for SingleSlotID
	}
}

func (x *taskTable) spawn(task Task) (TaskID, bool) {
	id := x.nextID
	x.nextID++
	x.insert(id, task)
	return id, true
}

func (x *taskTable) insert(id TaskID, task Task) {
	x.tasks[id] = task
	if n := len(x.tasks); n > x.cap {
		// approximates the growth of the underlying allocation
		x.cap = max(n, x.cap*2)
	}
}

func (x *taskTable) fetch(id TaskID) (Task, bool) {
	task, ok := x.tasks[id]
	if ok {
		delete(x.tasks, id)
	}
	return task, ok
}

// clean shrinks the table to half it's capacity, once it is at most a
// quarter full, but never below minCap.
func (x *taskTable) clean() {
	if x.cap <= x.minCap || len(x.tasks) > x.cap/4 {
		return
	}
	newCap := max(x.cap/2, x.minCap)
	tasks := make(map[TaskID]Task, newCap)
	for id, task := range x.tasks {
		tasks[id] = task
	}
	x.tasks = tasks
	x.cap = newCap
}

func (x *taskTable) release(TaskID) {}

func (x *taskTable) len() int { return len(x.tasks) }

func (x *taskTable) capacity() int { return x.cap }

func (x *taskTable) contains(id TaskID) bool {
	_, ok := x.tasks[id]
	return ok
}

func (x *singleSlot) spawn(task Task) (TaskID, bool) {
	if x.task != nil || x.checkedOut {
		return SingleSlotID, false
	}
	x.task = task
	return SingleSlotID, true
}

func (x *singleSlot) insert(_ TaskID, task Task) {
	x.task = task
	x.checkedOut = false
}

func (x *singleSlot) fetch(TaskID) (Task, bool) {
	task := x.task
	if task == nil {
		return nil, false
	}
	x.task = nil
	x.checkedOut = true
	return task, true
}

func (x *singleSlot) release(TaskID) { x.checkedOut = false }

func (x *singleSlot) clean() {}

func (x *singleSlot) len() int {
	if x.task != nil {
		return 1
	}
	return 0
}

func (x *singleSlot) capacity() int { return 1 }

func (x *singleSlot) contains(TaskID) bool { return x.task != nil }
