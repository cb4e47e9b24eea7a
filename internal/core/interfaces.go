package core

import (
	"context"
	"time"

	"github.com/comalice/tickfsm/internal/primitives"
)

// Outcome classifies what happened to a pushed event.
type Outcome string

const (
	OutcomeQueued       Outcome = "queued"
	OutcomeDropped      Outcome = "dropped"
	OutcomeRejected     Outcome = "rejected"
	OutcomeTransitioned Outcome = "transitioned"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeDeadEnd      Outcome = "dead_end"
)

// Observer receives runtime measurements. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	ObserveEvent(machine string, id primitives.EventID, outcome Outcome)
	ObserveProcessing(machine string, d time.Duration)
	ObserveTick(machine string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveEvent(string, primitives.EventID, Outcome) {}
func (nopObserver) ObserveProcessing(string, time.Duration)           {}
func (nopObserver) ObserveTick(string, time.Duration)                 {}

// TransitionRecord describes one matched transition.
type TransitionRecord struct {
	MachineID string             `json:"machineID" yaml:"machineID"`
	EventID   primitives.EventID `json:"eventID" yaml:"eventID"`
	From      string             `json:"from" yaml:"from"`
	To        string             `json:"to" yaml:"to"`
	Timestamp time.Time          `json:"timestamp" yaml:"timestamp"`
}

// Publisher is notified synchronously on the consumer goroutine after each
// matched transition. Errors are logged, never surfaced.
type Publisher interface {
	Publish(ctx context.Context, rec TransitionRecord) error
	Close() error
}

// Snapshot is the serializable runtime state of a machine.
// Queued events are not part of it.
type Snapshot struct {
	MachineID    string        `json:"machineID" yaml:"machineID"`
	State        string        `json:"state" yaml:"state"`
	Period       time.Duration `json:"period,omitempty" yaml:"period,omitempty"`
	TimerStarted bool          `json:"timerStarted,omitempty" yaml:"timerStarted,omitempty"`
	Timestamp    time.Time     `json:"timestamp" yaml:"timestamp"`
}

// Persister stores snapshots keyed by machine ID.
type Persister interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, machineID string) (Snapshot, error)
}
