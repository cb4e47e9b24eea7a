// Package tickfsm is a runtime for single-consumer, event-driven state machines
// with optional per-state periodic work.
//
// A StateMachine owns an event queue and one consumer goroutine. Events are
// dispatched in push order through a (state, event) transition table whose
// functions set the next state themselves. A PeriodicStateMachine additionally
// owns a drift-compensated Timer that runs the function registered for the
// current state on every tick.
//
//	type lamp struct{ m *tickfsm.PeriodicStateMachine[string] }
//
//	func (l *lamp) SetupStateFunctions(t tickfsm.StateFunctionTable[string]) {
//		t["on"] = func() { fmt.Println("blink") }
//	}
//
//	func (l *lamp) SetupTransitions(t tickfsm.TransitionTable[string]) {
//		t.Add("off", EvSwitch, func(tickfsm.Event) { l.m.SetState("on"); l.m.StartTimer() })
//		t.Add("on", EvSwitch, func(tickfsm.Event) { l.m.StopTimer(); l.m.SetState("off") })
//	}
//
//	func (l *lamp) OnDeadEndState(err error) { log.Println(err) }
//
// Stop every machine before dropping it: Stop joins the goroutines it owns.
package tickfsm

import (
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/comalice/tickfsm/internal/core"
	"github.com/comalice/tickfsm/internal/primitives"
)

type (
	EventID       = primitives.EventID
	Event         = primitives.Event
	BaseEvent     = primitives.BaseEvent
	Capacity      = primitives.Capacity
	MachineConfig = primitives.MachineConfig

	Queue[T any] = primitives.Queue[T]

	Timer            = core.Timer
	Processor        = core.Processor
	Handler          = core.Handler
	HandlerFunc      = core.HandlerFunc
	Option           = core.Option
	Observer         = core.Observer
	Outcome          = core.Outcome
	Publisher        = core.Publisher
	Persister        = core.Persister
	Snapshot         = core.Snapshot
	TransitionRecord = core.TransitionRecord
	DeadEndError     = core.DeadEndError
	TransitionFunc   = core.TransitionFunc
	EventTable       = core.EventTable
	StateFunc        = core.StateFunc

	TransitionTable[S comparable]      = core.TransitionTable[S]
	Dispatcher[S comparable]           = core.Dispatcher[S]
	Definition[S comparable]           = core.Definition[S]
	StateMachine[S comparable]         = core.StateMachine[S]
	StateFunctionTable[S comparable]   = core.StateFunctionTable[S]
	PeriodicDefinition[S comparable]   = core.PeriodicDefinition[S]
	PeriodicStateMachine[S comparable] = core.PeriodicStateMachine[S]
)

var (
	ErrQueueFull     = primitives.ErrQueueFull
	ErrInvalidConfig = primitives.ErrInvalidConfig
	ErrDeadEndState  = core.ErrDeadEndState
	ErrRunning       = core.ErrRunning
	ErrNoPersister   = core.ErrNoPersister
)

const (
	OutcomeQueued       = core.OutcomeQueued
	OutcomeDropped      = core.OutcomeDropped
	OutcomeRejected     = core.OutcomeRejected
	OutcomeTransitioned = core.OutcomeTransitioned
	OutcomeIgnored      = core.OutcomeIgnored
	OutcomeDeadEnd      = core.OutcomeDeadEnd
)

// NewEvent returns a payload-free event.
func NewEvent(id EventID) BaseEvent { return primitives.NewEvent(id) }

// SameEvent reports whether two events share an identity.
func SameEvent(a, b Event) bool { return primitives.SameEvent(a, b) }

// Unbounded returns a capacity without limit.
func Unbounded() Capacity { return primitives.Unbounded() }

// Bounded returns a capacity of n elements.
func Bounded(n int) Capacity { return primitives.Bounded(n) }

// ParseCapacity parses "unbounded" or a positive integer.
func ParseCapacity(s string) (Capacity, error) { return primitives.ParseCapacity(s) }

// NewQueue creates a blocking FIFO queue.
func NewQueue[T any](capacity Capacity) *Queue[T] { return primitives.NewQueue[T](capacity) }

// DefaultMachineConfig returns an unbounded config with a generated ID.
func DefaultMachineConfig() MachineConfig { return primitives.DefaultMachineConfig() }

// LoadConfig reads a YAML machine config.
func LoadConfig(path string) (MachineConfig, error) { return primitives.LoadConfig(path) }

// NewTimer returns an idle single-shot timer.
func NewTimer(opts ...Option) *Timer { return core.NewTimer(opts...) }

// StartSingleShot blocks for d, then calls fn.
func StartSingleShot(d time.Duration, fn func()) { core.StartSingleShot(d, fn) }

// NewProcessor creates a stopped processor delivering to h.
func NewProcessor(h Handler, opts ...Option) *Processor { return core.NewProcessor(h, opts...) }

// NewStateMachine creates a stopped machine in the initial state.
func NewStateMachine[S comparable](initial S, def Definition[S], opts ...Option) *StateMachine[S] {
	return core.NewStateMachine(initial, def, opts...)
}

// NewPeriodicStateMachine creates a stopped machine with an idle periodic timer.
func NewPeriodicStateMachine[S comparable](initial S, period time.Duration, def PeriodicDefinition[S], opts ...Option) *PeriodicStateMachine[S] {
	return core.NewPeriodicStateMachine(initial, period, def, opts...)
}

func WithName(name string) Option         { return core.WithName(name) }
func WithCapacity(c Capacity) Option      { return core.WithCapacity(c) }
func WithLogger(l logr.Logger) Option     { return core.WithLogger(l) }
func WithClock(c clock.WithTicker) Option { return core.WithClock(c) }
func WithObserver(o Observer) Option      { return core.WithObserver(o) }
func WithPublisher(p Publisher) Option    { return core.WithPublisher(p) }
func WithPersister(p Persister) Option    { return core.WithPersister(p) }
func WithConfig(cfg MachineConfig) Option { return core.WithConfig(cfg) }
