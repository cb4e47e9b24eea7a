package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDeadEndState is matched by every *DeadEndError.
	ErrDeadEndState = errors.New("dead-end state")

	// ErrRunning is returned by operations that require a stopped machine.
	ErrRunning = errors.New("machine is running")

	// ErrNoPersister is returned by RestoreLatest when no Persister is configured.
	ErrNoPersister = errors.New("no persister configured")
)

// DeadEndError reports a current state without an entry in the transition table.
type DeadEndError struct {
	State any
}

func (e *DeadEndError) Error() string {
	return fmt.Sprintf("dead-end state %v: no transitions defined", e.State)
}

// Is makes errors.Is(err, ErrDeadEndState) hold.
func (e *DeadEndError) Is(target error) bool {
	return target == ErrDeadEndState
}
