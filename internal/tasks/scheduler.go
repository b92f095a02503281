// Package tasks runs named periodic background tasks on top of a Host.
//
// Each firing gets a deadline from the host. A handler that has not reported
// completion by then counts as failed, and the task is rescheduled without
// waiting for it. Completion reported after the deadline is ignored.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/stacklok/keysync/internal/telemetry"
)

// Handler does the work of a task. It must call complete exactly once.
// ctx is not cancelled at the deadline. Handlers that want to stop early should watch deadline.
type Handler func(ctx context.Context, deadline time.Time, complete func(success bool))

// Task describes a periodic background task
type Task struct {
	// Name is the identifier registered with the host
	Name string
	// Interval is the earliest gap between two firings. Zero means as soon as the host allows.
	Interval time.Duration
	// Cron, when set, takes precedence over Interval for computing the next earliest begin
	Cron string
	// Handler runs on each firing
	Handler Handler
}

// Outcome is the result of one firing
type Outcome string

const (
	// OutcomeSucceeded means the handler reported success before the deadline
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed means the handler reported failure before the deadline
	OutcomeFailed Outcome = "failed"
	// OutcomeExpired means the deadline passed before the handler reported
	OutcomeExpired Outcome = "expired"
)

// State is the scheduling state of a registered task
type State string

const (
	// StateRegistered means the task is known but has no pending request
	StateRegistered State = "registered"
	// StateScheduled means a request is pending with the host
	StateScheduled State = "scheduled"
	// StateRunning means the handler is running
	StateRunning State = "running"
)

var (
	// ErrExpired is the error recorded for a firing whose deadline passed
	ErrExpired = errors.New("task deadline expired before completion")

	// ErrInvalidTask is returned when registering a malformed task
	ErrInvalidTask = errors.New("invalid task")
)

// TaskStatus is a snapshot of one task
type TaskStatus struct {
	Name              string     `json:"name"`
	State             State      `json:"state"`
	LastOutcome       Outcome    `json:"lastOutcome,omitempty"`
	LastError         string     `json:"lastError,omitempty"`
	LastFiredAt       *time.Time `json:"lastFiredAt,omitempty"`
	LastCompletedAt   *time.Time `json:"lastCompletedAt,omitempty"`
	NextEarliestBegin *time.Time `json:"nextEarliestBegin,omitempty"`
}

// Scheduler registers tasks with a Host and keeps them scheduled
//
//go:generate mockgen -destination=mocks/mock_scheduler.go -package=mocks github.com/stacklok/keysync/internal/tasks Scheduler
type Scheduler interface {
	// RegisterTask binds a task to the host. It must be called before ScheduleAll.
	RegisterTask(task Task) error
	// ScheduleAll submits every registered task, cancelling pending requests first when cancelExisting is set
	ScheduleAll(cancelExisting bool)
	// Cancel drops the pending request of one task. A running firing of it is not resubmitted.
	// The next ScheduleAll schedules it again.
	Cancel(name string)
	// CancelAll drops every pending request and suspends rescheduling until the next ScheduleAll
	CancelAll()
	// OnCapabilityChanged schedules everything when usable, otherwise cancels everything
	OnCapabilityChanged(usable bool)
	// Status returns a snapshot of every registered task in registration order
	Status() []TaskStatus
}

type taskEntry struct {
	task    Task
	status  TaskStatus
	running bool
	// cancelled stops a running firing from resubmitting the task
	cancelled bool
}

type defaultScheduler struct {
	host    Host
	now     func() time.Time
	baseCtx context.Context
	metrics *telemetry.TaskMetrics

	mu      sync.Mutex
	tasks   map[string]*taskEntry
	order   []string
	enabled bool
}

// Option configures the scheduler
type Option func(*defaultScheduler)

// WithClock overrides the clock used to compute earliest begin times
func WithClock(now func() time.Time) Option {
	return func(s *defaultScheduler) {
		s.now = now
	}
}

// WithBaseContext sets the context handed to task handlers
func WithBaseContext(ctx context.Context) Option {
	return func(s *defaultScheduler) {
		s.baseCtx = ctx
	}
}

// WithTaskMetrics records firing outcomes
func WithTaskMetrics(m *telemetry.TaskMetrics) Option {
	return func(s *defaultScheduler) {
		s.metrics = m
	}
}

// NewScheduler creates a scheduler on top of host
func NewScheduler(host Host, opts ...Option) Scheduler {
	s := &defaultScheduler{
		host:    host,
		now:     time.Now,
		baseCtx: context.Background(),
		tasks:   make(map[string]*taskEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *defaultScheduler) RegisterTask(task Task) error {
	if task.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTask)
	}
	if task.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidTask, task.Name)
	}
	if task.Interval < 0 {
		return fmt.Errorf("%w: %s has a negative interval", ErrInvalidTask, task.Name)
	}
	if task.Cron != "" && !gronx.New().IsValid(task.Cron) {
		return fmt.Errorf("%w: %s has invalid cron expression %q", ErrInvalidTask, task.Name, task.Cron)
	}

	s.mu.Lock()
	if _, ok := s.tasks[task.Name]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, task.Name)
	}
	s.mu.Unlock()

	if err := s.host.Register(task.Name, s.launcher(task.Name)); err != nil {
		return fmt.Errorf("failed to register task %s with host: %w", task.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.Name] = &taskEntry{
		task:   task,
		status: TaskStatus{Name: task.Name, State: StateRegistered},
	}
	s.order = append(s.order, task.Name)

	slog.Info("Task registered", "task", task.Name, "interval", task.Interval, "cron", task.Cron)
	return nil
}

func (s *defaultScheduler) ScheduleAll(cancelExisting bool) {
	s.mu.Lock()
	s.enabled = true
	names := append([]string(nil), s.order...)
	for _, entry := range s.tasks {
		entry.cancelled = false
	}
	s.mu.Unlock()

	for _, name := range names {
		if cancelExisting {
			s.host.Cancel(name)
		}
		s.submit(name)
	}
}

func (s *defaultScheduler) Cancel(name string) {
	s.host.Cancel(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tasks[name]
	if !ok {
		return
	}
	entry.cancelled = true
	entry.status.NextEarliestBegin = nil
	if !entry.running {
		entry.status.State = StateRegistered
	}
}

func (s *defaultScheduler) CancelAll() {
	s.host.CancelAll()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	for _, entry := range s.tasks {
		if !entry.running {
			entry.status.State = StateRegistered
		}
		entry.status.NextEarliestBegin = nil
	}
	slog.Info("All background tasks cancelled")
}

func (s *defaultScheduler) OnCapabilityChanged(usable bool) {
	slog.Info("Background capability changed", "usable", usable)
	if usable {
		s.ScheduleAll(true)
		return
	}
	s.CancelAll()
}

func (s *defaultScheduler) Status() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskStatus, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tasks[name].status)
	}
	return out
}

// submit requests the next firing of name. Host rejections are logged and not retried.
func (s *defaultScheduler) submit(name string) {
	s.mu.Lock()
	entry, ok := s.tasks[name]
	if !ok {
		s.mu.Unlock()
		return
	}
	earliest := s.earliestBegin(entry.task)
	s.mu.Unlock()

	err := s.host.Submit(name, earliest)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		slog.Error("Task submission failed", "task", name, "error", err)
		if !entry.running {
			entry.status.State = StateRegistered
		}
		entry.status.NextEarliestBegin = nil
		entry.status.LastError = err.Error()
		return
	}
	if !entry.running {
		entry.status.State = StateScheduled
	}
	entry.status.NextEarliestBegin = earliest
	slog.Debug("Task submitted", "task", name, "earliest_begin", earliest)
}

func (s *defaultScheduler) earliestBegin(task Task) *time.Time {
	now := s.now()
	if task.Cron != "" {
		next, err := gronx.NextTickAfter(task.Cron, now, false)
		if err == nil {
			return &next
		}
		slog.Warn("Failed to compute next cron tick, using interval", "task", task.Name, "error", err)
	}
	if task.Interval > 0 {
		next := now.Add(task.Interval)
		return &next
	}
	return nil
}

// launcher returns the function the host invokes when name fires
func (s *defaultScheduler) launcher(name string) func(HostTask) {
	return func(ht HostTask) {
		s.mu.Lock()
		entry := s.tasks[name]
		if entry == nil || entry.running {
			s.mu.Unlock()
			slog.Warn("Ignoring firing of task that is unknown or already running", "task", name)
			ht.SetCompleted(false)
			return
		}
		entry.running = true
		firedAt := s.now()
		entry.status.State = StateRunning
		entry.status.LastFiredAt = &firedAt
		handler := entry.task.Handler
		s.mu.Unlock()

		slog.Info("Task started", "task", name, "deadline", ht.Deadline())
		start := time.Now()
		outcome := s.run(name, handler, ht.Deadline())
		ht.SetCompleted(outcome == OutcomeSucceeded)
		s.metrics.RecordFiring(s.baseCtx, name, string(outcome), time.Since(start))

		s.finish(name, outcome)
	}
}

// run waits for the handler to complete or for the deadline, whichever comes first
func (s *defaultScheduler) run(name string, handler Handler, deadline time.Time) Outcome {
	// buffered so a late completion never blocks the handler
	result := make(chan bool, 1)
	var once sync.Once
	complete := func(success bool) {
		once.Do(func() { result <- success })
	}

	go handler(s.baseCtx, deadline, complete)

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case ok := <-result:
		if ok {
			return OutcomeSucceeded
		}
		return OutcomeFailed
	case <-timer.C:
		slog.Warn("Task expired before completion", "task", name, "deadline", deadline)
		return OutcomeExpired
	}
}

func (s *defaultScheduler) finish(name string, outcome Outcome) {
	s.mu.Lock()
	entry := s.tasks[name]
	completedAt := s.now()
	entry.running = false
	entry.status.State = StateRegistered
	entry.status.LastOutcome = outcome
	entry.status.LastCompletedAt = &completedAt
	switch outcome {
	case OutcomeExpired:
		entry.status.LastError = ErrExpired.Error()
	case OutcomeFailed:
		entry.status.LastError = "task reported failure"
	default:
		entry.status.LastError = ""
	}
	resubmit := s.enabled && !entry.cancelled
	s.mu.Unlock()

	slog.Info("Task finished", "task", name, "outcome", outcome)

	if resubmit {
		s.submit(name)
	}
}
