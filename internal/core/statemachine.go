package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/comalice/tickfsm/internal/primitives"
)

// TransitionFunc runs a matched transition on the consumer goroutine. It owns
// the event and is responsible for any state change, typically via SetState.
type TransitionFunc func(e primitives.Event)

// EventTable maps event identities to transitions within one state.
type EventTable map[primitives.EventID]TransitionFunc

// TransitionTable maps states to their event tables.
type TransitionTable[S comparable] map[S]EventTable

// Dispatcher resolves the transition for an event in a state.
// A state without transitions yields a *DeadEndError; an event without a
// transition in a known state yields (nil, nil).
type Dispatcher[S comparable] interface {
	Dispatch(state S, id primitives.EventID) (TransitionFunc, error)
}

// Dispatch implements Dispatcher.
func (t TransitionTable[S]) Dispatch(state S, id primitives.EventID) (TransitionFunc, error) {
	events, ok := t[state]
	if !ok {
		return nil, &DeadEndError{State: state}
	}
	return events[id], nil
}

// Add registers fn for id in state, replacing any previous entry.
func (t TransitionTable[S]) Add(state S, id primitives.EventID, fn TransitionFunc) {
	events, ok := t[state]
	if !ok {
		events = make(EventTable)
		t[state] = events
	}
	events[id] = fn
}

// Definition supplies the application side of a StateMachine.
type Definition[S comparable] interface {
	// SetupTransitions fills the table. Called once, before delivery starts.
	SetupTransitions(table TransitionTable[S])
	// OnDeadEndState is called on the consumer goroutine for every event
	// received in a state without transitions. err is a *DeadEndError.
	OnDeadEndState(err error)
}

// StateMachine dispatches events from its Processor through a transition table
// keyed by the current state.
type StateMachine[S comparable] struct {
	*Processor

	def         Definition[S]
	transitions TransitionTable[S]
	setupOnce   sync.Once

	stateMu sync.RWMutex
	state   S

	log       logr.Logger
	observer  Observer
	clk       clock.PassiveClock
	publisher Publisher
	persister Persister

	// Hooks letting a periodic machine save and restore its timer state.
	snapshotHook func(*Snapshot)
	restoreHook  func(Snapshot)
}

// NewStateMachine creates a stopped machine in the initial state.
func NewStateMachine[S comparable](initial S, def Definition[S], opts ...Option) *StateMachine[S] {
	return newStateMachine(initial, def, newSettings(opts))
}

func newStateMachine[S comparable](initial S, def Definition[S], s settings) *StateMachine[S] {
	if def == nil {
		panic("core: nil definition")
	}
	m := &StateMachine[S]{
		def:         def,
		transitions: make(TransitionTable[S]),
		state:       initial,
		log:         s.logger.WithName("statemachine").WithValues("machine", s.name),
		observer:    s.observer,
		clk:         s.clock,
		publisher:   s.publisher,
		persister:   s.persister,
	}
	m.Processor = newProcessor(HandlerFunc(m.processEvent), s)
	return m
}

// SetupAndStart fills the transition table on the first call, then starts
// event delivery.
func (m *StateMachine[S]) SetupAndStart() {
	m.setupOnce.Do(func() {
		m.def.SetupTransitions(m.transitions)
		m.log.V(1).Info("transitions set up", "states", len(m.transitions))
	})
	m.Start()
}

// State returns the current state.
func (m *StateMachine[S]) State() S {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// SetState sets the current state. Intended for transition functions.
func (m *StateMachine[S]) SetState(s S) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.state = s
}

// Transitions exposes the table. It must not be modified once delivery started.
func (m *StateMachine[S]) Transitions() TransitionTable[S] { return m.transitions }

func (m *StateMachine[S]) processEvent(e primitives.Event) {
	from := m.State()
	fn, err := m.transitions.Dispatch(from, e.ID())
	switch {
	case err != nil:
		m.log.V(2).Info("event in dead-end state", "event", e.ID(), "state", from)
		m.observer.ObserveEvent(m.Name(), e.ID(), OutcomeDeadEnd)
		m.def.OnDeadEndState(err)
		return
	case fn == nil:
		m.log.V(2).Info("event ignored", "event", e.ID(), "state", from)
		m.observer.ObserveEvent(m.Name(), e.ID(), OutcomeIgnored)
		return
	}

	fn(e)
	to := m.State()
	m.log.V(2).Info("transition", "event", e.ID(), "from", from, "to", to)
	m.observer.ObserveEvent(m.Name(), e.ID(), OutcomeTransitioned)
	m.record(e.ID(), from, to)
}

func (m *StateMachine[S]) record(id primitives.EventID, from, to S) {
	if m.publisher == nil && m.persister == nil {
		return
	}
	ctx := context.Background()
	if m.publisher != nil {
		rec := TransitionRecord{
			MachineID: m.Name(),
			EventID:   id,
			From:      fmt.Sprint(from),
			To:        fmt.Sprint(to),
			Timestamp: m.clk.Now(),
		}
		if err := m.publisher.Publish(ctx, rec); err != nil {
			m.log.Error(err, "publish transition", "event", id)
		}
	}
	if m.persister != nil {
		if err := m.persister.Save(ctx, m.Snapshot()); err != nil {
			m.log.Error(err, "save snapshot", "event", id)
		}
	}
}

// Snapshot captures the current state.
func (m *StateMachine[S]) Snapshot() Snapshot {
	snap := Snapshot{
		MachineID: m.Name(),
		State:     fmt.Sprint(m.State()),
		Timestamp: m.clk.Now(),
	}
	if m.snapshotHook != nil {
		m.snapshotHook(&snap)
	}
	return snap
}

// Restore applies a snapshot's state. decode maps the stored state name back
// to a state and reports whether it is known. The machine must be stopped.
func (m *StateMachine[S]) Restore(snap Snapshot, decode func(string) (S, bool)) error {
	if m.Running() {
		return fmt.Errorf("restore %s: %w", m.Name(), ErrRunning)
	}
	s, ok := decode(snap.State)
	if !ok {
		return fmt.Errorf("restore %s: unknown state %q", m.Name(), snap.State)
	}
	m.SetState(s)
	if m.restoreHook != nil {
		m.restoreHook(snap)
	}
	m.log.V(1).Info("state restored", "state", snap.State, "savedAt", snap.Timestamp)
	return nil
}

// RestoreLatest loads the last snapshot from the configured Persister and restores it.
func (m *StateMachine[S]) RestoreLatest(ctx context.Context, decode func(string) (S, bool)) error {
	if m.persister == nil {
		return ErrNoPersister
	}
	snap, err := m.persister.Load(ctx, m.Name())
	if err != nil {
		return fmt.Errorf("load snapshot for %s: %w", m.Name(), err)
	}
	return m.Restore(snap, decode)
}
