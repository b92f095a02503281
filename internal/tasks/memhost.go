package tasks

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"
)

const (
	// maxSleepCap bounds how long the host sleeps before re-checking its heap
	maxSleepCap = 60 * time.Second

	// DefaultRunBudget is how long a fired task may run before its deadline
	DefaultRunBudget = 30 * time.Second

	// DefaultMaxPending is the number of pending requests the host accepts
	DefaultMaxPending = 16

	// DefaultMinDelay is the earliest a submitted request may fire
	DefaultMinDelay = time.Second
)

// MemoryHost is an in-process Host.
// The pending map is the source of truth. A single goroutine rebuilds its
// min-heap from it whenever a request changes and fires requests when due.
// At most one firing per task name runs at a time.
type MemoryHost struct {
	budget     time.Duration
	maxPending int
	minDelay   time.Duration

	wakeCh chan struct{}
	ctx    context.Context

	mu        sync.Mutex
	launchers map[string]func(HostTask)
	pending   map[string]time.Time
	running   map[string]bool
}

var _ Host = (*MemoryHost)(nil)

// MemoryHostOption configures a MemoryHost
type MemoryHostOption func(*MemoryHost)

// WithRunBudget sets the time granted to each firing
func WithRunBudget(budget time.Duration) MemoryHostOption {
	return func(h *MemoryHost) {
		if budget > 0 {
			h.budget = budget
		}
	}
}

// WithMaxPending sets how many pending requests are accepted before submissions are rejected
func WithMaxPending(n int) MemoryHostOption {
	return func(h *MemoryHost) {
		if n > 0 {
			h.maxPending = n
		}
	}
}

// WithMinDelay sets the floor applied to every submission.
// A request for "as soon as possible" fires after this delay.
func WithMinDelay(d time.Duration) MemoryHostOption {
	return func(h *MemoryHost) {
		if d >= 0 {
			h.minDelay = d
		}
	}
}

// NewMemoryHost creates and starts a host. It stops when ctx is cancelled.
func NewMemoryHost(ctx context.Context, opts ...MemoryHostOption) *MemoryHost {
	h := &MemoryHost{
		budget:     DefaultRunBudget,
		maxPending: DefaultMaxPending,
		minDelay:   DefaultMinDelay,
		wakeCh:     make(chan struct{}, 1),
		ctx:        ctx,
		launchers:  make(map[string]func(HostTask)),
		pending:    make(map[string]time.Time),
		running:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.run()
	return h
}

// Register binds name to launch. Registering a name twice fails.
func (h *MemoryHost) Register(name string, launch func(HostTask)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.launchers[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	h.launchers[name] = launch
	return nil
}

// Submit replaces any pending request of name
func (h *MemoryHost) Submit(name string, earliestBegin *time.Time) error {
	if h.ctx.Err() != nil {
		return fmt.Errorf("%w: host stopped", ErrSubmitRejected)
	}

	at := time.Now().Add(h.minDelay)
	if earliestBegin != nil && earliestBegin.After(at) {
		at = *earliestBegin
	}

	h.mu.Lock()
	if _, ok := h.launchers[name]; !ok {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	if _, exists := h.pending[name]; !exists && len(h.pending) >= h.maxPending {
		h.mu.Unlock()
		return fmt.Errorf("%w: %d requests already pending", ErrSubmitRejected, len(h.pending))
	}
	h.pending[name] = at
	h.mu.Unlock()

	h.wake()
	return nil
}

// Cancel drops the pending request of name
func (h *MemoryHost) Cancel(name string) {
	h.mu.Lock()
	delete(h.pending, name)
	h.mu.Unlock()

	h.wake()
}

// CancelAll drops every pending request
func (h *MemoryHost) CancelAll() {
	h.mu.Lock()
	clear(h.pending)
	h.mu.Unlock()

	h.wake()
}

// Pending returns the trigger time of every pending request
func (h *MemoryHost) Pending() map[string]time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return maps.Clone(h.pending)
}

// wake asks the run loop to rebuild its heap. A queued wake covers every change made before it is consumed.
func (h *MemoryHost) wake() {
	select {
	case h.wakeCh <- struct{}{}:
	default:
	}
}

// rebuild replaces the heap contents with the pending requests
func (h *MemoryHost) rebuild(events *eventHeap) {
	h.mu.Lock()
	defer h.mu.Unlock()

	*events = (*events)[:0]
	for name, at := range h.pending {
		*events = append(*events, event{name: name, triggerAt: at})
	}
	heap.Init(events)
}

func (h *MemoryHost) run() {
	events := &eventHeap{}
	heap.Init(events)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if events.Len() == 0 {
			return nil
		}
		dur := min(max(time.Until((*events)[0].triggerAt), 0), maxSleepCap)
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()
	for {
		select {
		case <-h.ctx.Done():
			return

		case <-h.wakeCh:
			h.rebuild(events)
			timerCh = resetTimer()

		case <-timerCh:
			now := time.Now()
			for events.Len() > 0 && !(*events)[0].triggerAt.After(now) {
				h.fire(heap.Pop(events).(event), now)
			}
			timerCh = resetTimer()
		}
	}
}

func (h *MemoryHost) fire(e event, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	at, ok := h.pending[e.name]
	if !ok || !at.Equal(e.triggerAt) {
		// cancelled or superseded
		return
	}
	delete(h.pending, e.name)

	if h.running[e.name] {
		slog.Warn("Task still running, skipping firing", "task", e.name)
		return
	}
	launch := h.launchers[e.name]
	h.running[e.name] = true

	t := &memoryHostTask{
		deadline: now.Add(h.budget),
		done: func(success bool) {
			h.mu.Lock()
			delete(h.running, e.name)
			h.mu.Unlock()
			slog.Debug("Task completed", "task", e.name, "success", success)
		},
	}
	go launch(t)
}

type memoryHostTask struct {
	deadline time.Time
	once     sync.Once
	done     func(success bool)
}

func (t *memoryHostTask) Deadline() time.Time {
	return t.deadline
}

func (t *memoryHostTask) SetCompleted(success bool) {
	t.once.Do(func() { t.done(success) })
}
