package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitCall struct {
	name     string
	earliest *time.Time
}

// fakeHost records requests and lets tests fire tasks synchronously
type fakeHost struct {
	mu         sync.Mutex
	launchers  map[string]func(HostTask)
	submits    []submitCall
	cancels    []string
	cancelAlls int
	submitErr  error
}

func newFakeHost() *fakeHost {
	return &fakeHost{launchers: make(map[string]func(HostTask))}
}

func (h *fakeHost) Register(name string, launch func(HostTask)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.launchers[name]; ok {
		return ErrAlreadyRegistered
	}
	h.launchers[name] = launch
	return nil
}

func (h *fakeHost) Submit(name string, earliestBegin *time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.submits = append(h.submits, submitCall{name: name, earliest: earliestBegin})
	return h.submitErr
}

func (h *fakeHost) Cancel(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancels = append(h.cancels, name)
}

func (h *fakeHost) CancelAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelAlls++
}

func (h *fakeHost) submitted() []submitCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]submitCall(nil), h.submits...)
}

// fire runs the launcher of name and returns once the scheduler is done with the firing
func (h *fakeHost) fire(name string, deadline time.Time) *fakeHostTask {
	h.mu.Lock()
	launch := h.launchers[name]
	h.mu.Unlock()

	ht := &fakeHostTask{deadline: deadline}
	launch(ht)
	return ht
}

type fakeHostTask struct {
	deadline time.Time
	mu       sync.Mutex
	results  []bool
}

func (t *fakeHostTask) Deadline() time.Time { return t.deadline }

func (t *fakeHostTask) SetCompleted(success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results = append(t.results, success)
}

func (t *fakeHostTask) completions() []bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]bool(nil), t.results...)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 10, 16, 12, 30, 0, 0, time.UTC)}
}

func completeWith(success bool) Handler {
	return func(_ context.Context, _ time.Time, complete func(bool)) {
		complete(success)
	}
}

func TestScheduler_ExpiredFiringIsRescheduledWithoutWaiting(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	host := newFakeHost()
	s := NewScheduler(host, WithClock(clock.Now))

	release := make(chan struct{})
	lateDone := make(chan struct{})
	require.NoError(t, s.RegisterTask(Task{
		Name:     "fetch-test-results",
		Interval: 2 * time.Hour,
		Handler: func(_ context.Context, _ time.Time, complete func(bool)) {
			<-release
			complete(true)
			close(lateDone)
		},
	}))

	s.ScheduleAll(false)
	require.Len(t, host.submitted(), 1)

	clock.Advance(2 * time.Hour)
	ht := host.fire("fetch-test-results", time.Now().Add(50*time.Millisecond))

	// the host hears about the failure as soon as the deadline passes
	assert.Equal(t, []bool{false}, ht.completions())

	submits := host.submitted()
	require.Len(t, submits, 2)
	require.NotNil(t, submits[1].earliest)
	assert.True(t, submits[1].earliest.Equal(clock.Now().Add(2*time.Hour)))

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, OutcomeExpired, status[0].LastOutcome)
	assert.Equal(t, ErrExpired.Error(), status[0].LastError)
	assert.Equal(t, StateScheduled, status[0].State)

	// a late completion changes nothing
	close(release)
	<-lateDone
	assert.Equal(t, []bool{false}, ht.completions())
	assert.Len(t, host.submitted(), 2)
	assert.Equal(t, OutcomeExpired, s.Status()[0].LastOutcome)
}

func TestScheduler_OutcomesAndRescheduling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		task        Task
		wantOutcome Outcome
		wantSuccess bool
		wantNext    func(now time.Time) *time.Time
	}{
		{
			name:        "success with interval",
			task:        Task{Name: "fetch-test-results", Interval: 2 * time.Hour, Handler: completeWith(true)},
			wantOutcome: OutcomeSucceeded,
			wantSuccess: true,
			wantNext: func(now time.Time) *time.Time {
				next := now.Add(2 * time.Hour)
				return &next
			},
		},
		{
			name:        "failure without interval",
			task:        Task{Name: "exposure-notification", Handler: completeWith(false)},
			wantOutcome: OutcomeFailed,
			wantSuccess: false,
			wantNext:    func(time.Time) *time.Time { return nil },
		},
		{
			name:        "cron takes precedence over interval",
			task:        Task{Name: "hourly", Interval: time.Minute, Cron: "0 * * * *", Handler: completeWith(true)},
			wantOutcome: OutcomeSucceeded,
			wantSuccess: true,
			wantNext: func(now time.Time) *time.Time {
				next := now.Truncate(time.Hour).Add(time.Hour)
				return &next
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clock := newTestClock()
			host := newFakeHost()
			s := NewScheduler(host, WithClock(clock.Now))
			require.NoError(t, s.RegisterTask(tt.task))
			s.ScheduleAll(false)

			ht := host.fire(tt.task.Name, time.Now().Add(time.Second))
			assert.Equal(t, []bool{tt.wantSuccess}, ht.completions())

			submits := host.submitted()
			require.Len(t, submits, 2)
			want := tt.wantNext(clock.Now())
			if want == nil {
				assert.Nil(t, submits[1].earliest)
			} else {
				require.NotNil(t, submits[1].earliest)
				assert.True(t, want.Equal(*submits[1].earliest), "want %s, got %s", want, submits[1].earliest)
			}

			status := s.Status()[0]
			assert.Equal(t, tt.wantOutcome, status.LastOutcome)
			assert.NotNil(t, status.LastFiredAt)
			assert.NotNil(t, status.LastCompletedAt)
		})
	}
}

func TestScheduler_RegisterTaskValidation(t *testing.T) {
	t.Parallel()

	s := NewScheduler(newFakeHost())

	assert.ErrorIs(t, s.RegisterTask(Task{Handler: completeWith(true)}), ErrInvalidTask)
	assert.ErrorIs(t, s.RegisterTask(Task{Name: "a"}), ErrInvalidTask)
	assert.ErrorIs(t, s.RegisterTask(Task{Name: "a", Interval: -time.Second, Handler: completeWith(true)}), ErrInvalidTask)
	assert.ErrorIs(t, s.RegisterTask(Task{Name: "a", Cron: "not a cron", Handler: completeWith(true)}), ErrInvalidTask)

	require.NoError(t, s.RegisterTask(Task{Name: "a", Handler: completeWith(true)}))
	assert.ErrorIs(t, s.RegisterTask(Task{Name: "a", Handler: completeWith(true)}), ErrAlreadyRegistered)
	assert.Len(t, s.Status(), 1)
}

func TestScheduler_CapabilityChanges(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	s := NewScheduler(host)
	require.NoError(t, s.RegisterTask(Task{Name: "exposure-notification", Handler: completeWith(true)}))
	require.NoError(t, s.RegisterTask(Task{Name: "fetch-test-results", Interval: 2 * time.Hour, Handler: completeWith(true)}))

	s.OnCapabilityChanged(true)
	assert.Equal(t, []string{"exposure-notification", "fetch-test-results"}, host.cancels)
	assert.Len(t, host.submitted(), 2)
	for _, st := range s.Status() {
		assert.Equal(t, StateScheduled, st.State)
	}

	s.OnCapabilityChanged(false)
	assert.Equal(t, 1, host.cancelAlls)
	for _, st := range s.Status() {
		assert.Equal(t, StateRegistered, st.State)
		assert.Nil(t, st.NextEarliestBegin)
	}

	// a firing that was already granted does not re-enable scheduling
	host.fire("exposure-notification", time.Now().Add(time.Second))
	assert.Len(t, host.submitted(), 2)
}

func TestScheduler_ScheduleAllWithoutCancel(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	s := NewScheduler(host)
	require.NoError(t, s.RegisterTask(Task{Name: "exposure-notification", Handler: completeWith(true)}))

	s.ScheduleAll(false)
	assert.Empty(t, host.cancels)
	assert.Len(t, host.submitted(), 1)
}

func TestScheduler_CancelOne(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	s := NewScheduler(host)
	require.NoError(t, s.RegisterTask(Task{Name: "a", Handler: completeWith(true)}))
	require.NoError(t, s.RegisterTask(Task{Name: "b", Handler: completeWith(true)}))
	s.ScheduleAll(false)

	s.Cancel("a")
	assert.Equal(t, []string{"a"}, host.cancels)
	status := s.Status()
	assert.Equal(t, StateRegistered, status[0].State)
	assert.Equal(t, StateScheduled, status[1].State)
}

func TestScheduler_CancelWhileRunningIsNotResubmitted(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	s := NewScheduler(host)

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.RegisterTask(Task{
		Name: "exposure-detection",
		Handler: func(_ context.Context, _ time.Time, complete func(bool)) {
			close(started)
			<-release
			complete(true)
		},
	}))
	s.ScheduleAll(false)
	require.Len(t, host.submitted(), 1)

	fired := make(chan struct{})
	go func() {
		defer close(fired)
		host.fire("exposure-detection", time.Now().Add(time.Minute))
	}()
	<-started

	s.Cancel("exposure-detection")
	assert.Equal(t, StateRunning, s.Status()[0].State)
	close(release)
	<-fired

	assert.Len(t, host.submitted(), 1)
	status := s.Status()[0]
	assert.Equal(t, StateRegistered, status.State)
	assert.Equal(t, OutcomeSucceeded, status.LastOutcome)
	assert.Nil(t, status.NextEarliestBegin)

	// scheduling again clears the cancellation
	s.ScheduleAll(false)
	assert.Len(t, host.submitted(), 2)
	assert.Equal(t, StateScheduled, s.Status()[0].State)
}

func TestScheduler_SubmitFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	host.submitErr = errors.New("host refused")
	s := NewScheduler(host)
	require.NoError(t, s.RegisterTask(Task{Name: "exposure-notification", Handler: completeWith(true)}))

	s.ScheduleAll(false)
	assert.Len(t, host.submitted(), 1)

	status := s.Status()[0]
	assert.Equal(t, StateRegistered, status.State)
	assert.Equal(t, "host refused", status.LastError)
}

func TestScheduler_ConcurrentFiringIsRejected(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	s := NewScheduler(host)

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.RegisterTask(Task{
		Name: "exposure-notification",
		Handler: func(_ context.Context, _ time.Time, complete func(bool)) {
			close(started)
			<-release
			complete(true)
		},
	}))
	s.ScheduleAll(false)

	firstDone := make(chan *fakeHostTask)
	go func() {
		firstDone <- host.fire("exposure-notification", time.Now().Add(5*time.Second))
	}()
	<-started

	second := host.fire("exposure-notification", time.Now().Add(5*time.Second))
	assert.Equal(t, []bool{false}, second.completions())
	assert.Equal(t, StateRunning, s.Status()[0].State)

	close(release)
	first := <-firstDone
	assert.Equal(t, []bool{true}, first.completions())
	assert.Equal(t, OutcomeSucceeded, s.Status()[0].LastOutcome)
}

func TestScheduler_HandlerGetsBaseContextAndDeadline(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}
	base := context.WithValue(context.Background(), ctxKey{}, "base")

	host := newFakeHost()
	s := NewScheduler(host, WithBaseContext(base))

	deadline := time.Now().Add(time.Second)
	var gotValue any
	var gotDeadline time.Time
	require.NoError(t, s.RegisterTask(Task{
		Name: "exposure-notification",
		Handler: func(ctx context.Context, d time.Time, complete func(bool)) {
			gotValue = ctx.Value(ctxKey{})
			gotDeadline = d
			complete(true)
		},
	}))

	host.fire("exposure-notification", deadline)
	assert.Equal(t, "base", gotValue)
	assert.True(t, deadline.Equal(gotDeadline))
}
