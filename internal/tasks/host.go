package tasks

import (
	"errors"
	"time"
)

var (
	// ErrAlreadyRegistered is returned when a task name is registered twice
	ErrAlreadyRegistered = errors.New("task already registered")

	// ErrNotRegistered is returned when submitting a task the host does not know
	ErrNotRegistered = errors.New("task not registered")

	// ErrSubmitRejected is returned when the host refuses a scheduling request
	ErrSubmitRejected = errors.New("task submission rejected")
)

// HostTask is one firing granted by the host
type HostTask interface {
	// Deadline is when the host stops waiting for completion
	Deadline() time.Time
	// SetCompleted reports the result of the firing to the host. Only the first call counts.
	SetCompleted(success bool)
}

// Host is the platform mechanism that runs registered tasks in the background
//
//go:generate mockgen -destination=mocks/mock_host.go -package=mocks github.com/stacklok/keysync/internal/tasks Host
type Host interface {
	// Register binds a task name to the function invoked when it fires
	Register(name string, launch func(HostTask)) error
	// Submit requests a run of name no earlier than earliestBegin (nil means as soon as possible)
	Submit(name string, earliestBegin *time.Time) error
	// Cancel drops the pending request of name
	Cancel(name string)
	// CancelAll drops every pending request
	CancelAll()
}
