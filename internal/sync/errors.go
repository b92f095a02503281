package sync

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a sync failure
type Kind string

// Failure kinds
const (
	KindNetwork         Kind = "network"
	KindStorage         Kind = "storage"
	KindMaterialization Kind = "materialization"
	KindExpired         Kind = "expired"
	KindDetection       Kind = "detection"
	KindConfiguration   Kind = "configuration"
)

// Phase names the pipeline step an error came from
type Phase string

// Pipeline phases
const (
	PhaseDiscover      Phase = "discover"
	PhasePruneDiff     Phase = "prune-diff"
	PhaseFetchCommit   Phase = "fetch-commit"
	PhaseMaterialize   Phase = "materialize"
	PhaseConfiguration Phase = "configuration"
	PhaseDetect        Phase = "detect"
)

// Error is a structured failure of one pipeline phase
type Error struct {
	Err     error
	Message string
	Kind    Kind
	Phase   Phase
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds an Error. A context deadline in the cause is reported as KindExpired.
func newError(phase Phase, kind Kind, err error, format string, args ...any) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindExpired
	}
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Err:     err,
		Message: fmt.Sprintf("%s: %v", msg, err),
		Kind:    kind,
		Phase:   phase,
	}
}
