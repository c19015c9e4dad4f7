// Package progress provides an in-memory hierarchical progress tracker and a
// terminal renderer for it.
package progress

import (
	"sync"
	"time"

	"github.com/rv-tools/multibuild/internal/application/ports"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// EventKind says what happened to a task.
type EventKind int

const (
	EventStarted EventKind = iota
	EventReported
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventReported:
		return "reported"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Task is a snapshot of one tracked task.
type Task struct {
	ID          ports.TaskID
	Parent      ports.TaskID
	Name        string
	Description string
	Sticky      bool
	Current     int
	Total       int
	// Status is empty while the task is running.
	Status   values.Status
	Started  time.Time
	Finished time.Time
	Depth    int
}

// Done reports whether the task has finished.
func (t Task) Done() bool {
	return t.Status != ""
}

// Event records one change to a task.
type Event struct {
	Kind EventKind
	Task Task
	At   time.Time
}

// Tracker implements ports.ProgressReporter.
type Tracker struct {
	mu          sync.Mutex
	next        ports.TaskID
	tasks       map[ports.TaskID]*Task
	order       []ports.TaskID
	events      []Event
	subscribers map[int]func(Event)
	nextSub     int
	now         func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		tasks:       make(map[ports.TaskID]*Task),
		subscribers: make(map[int]func(Event)),
		now:         time.Now,
	}
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it. fn is called synchronously on the reporting goroutine.
func (t *Tracker) Subscribe(fn func(Event)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	t.subscribers[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subscribers, id)
	}
}

// Start begins a task. An unknown parent is treated as no parent.
func (t *Tracker) Start(name string, opts ports.TaskOptions) ports.TaskID {
	t.mu.Lock()
	t.next++
	task := &Task{
		ID:          t.next,
		Name:        name,
		Description: opts.Description,
		Sticky:      opts.Sticky,
		Started:     t.now(),
	}
	if parent, ok := t.tasks[opts.Parent]; ok {
		task.Parent = parent.ID
		task.Depth = parent.Depth + 1
	}
	t.tasks[task.ID] = task
	t.order = append(t.order, task.ID)
	ev := t.record(EventStarted, task)
	subs := t.subscriberList()
	t.mu.Unlock()

	notify(subs, ev)
	return task.ID
}

// Report sets the current/total counters of a running task.
func (t *Tracker) Report(id ports.TaskID, current, total int) {
	t.mu.Lock()
	task, ok := t.tasks[id]
	if !ok || task.Done() {
		t.mu.Unlock()
		return
	}
	task.Current = current
	task.Total = total
	ev := t.record(EventReported, task)
	subs := t.subscriberList()
	t.mu.Unlock()

	notify(subs, ev)
}

// Finish completes a task. Finishing a task twice has no effect.
func (t *Tracker) Finish(id ports.TaskID, status values.Status) {
	t.mu.Lock()
	task, ok := t.tasks[id]
	if !ok || task.Done() {
		t.mu.Unlock()
		return
	}
	task.Status = status
	task.Finished = t.now()
	ev := t.record(EventFinished, task)
	subs := t.subscriberList()
	t.mu.Unlock()

	notify(subs, ev)
}

// Task returns a snapshot of a task.
func (t *Tracker) Task(id ports.TaskID) (Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Tasks returns the visible tasks in start order: running tasks and
// finished sticky ones.
func (t *Tracker) Tasks() []Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Task, 0, len(t.order))
	for _, id := range t.order {
		task := t.tasks[id]
		if task.Done() && !task.Sticky {
			continue
		}
		out = append(out, *task)
	}
	return out
}

// Events returns every event recorded so far.
func (t *Tracker) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// Clear drops finished tasks, sticky or not.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.order[:0]
	for _, id := range t.order {
		if t.tasks[id].Done() {
			delete(t.tasks, id)
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
}

// record appends an event. Caller must hold t.mu.
func (t *Tracker) record(kind EventKind, task *Task) Event {
	ev := Event{Kind: kind, Task: *task, At: t.now()}
	t.events = append(t.events, ev)
	return ev
}

// subscriberList copies the subscribers. Caller must hold t.mu.
func (t *Tracker) subscriberList() []func(Event) {
	subs := make([]func(Event), 0, len(t.subscribers))
	for i := 0; i < t.nextSub; i++ {
		if fn, ok := t.subscribers[i]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
