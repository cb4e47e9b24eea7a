// Package builder assembles transition and state function tables from
// declarative state descriptions.
//
//	var m *tickfsm.PeriodicStateMachine[string]
//	def := builder.NewMachine(
//		builder.NewState("idle").On(EvHeat, "heating"),
//		builder.NewState("heating").
//			OnEntry(func() { m.StartTimer() }).
//			OnExit(func() { m.StopTimer() }).
//			Every(sample).
//			On(EvStop, "idle"),
//	)
//	m = tickfsm.NewPeriodicStateMachine[string]("idle", time.Second, def)
//	def.Bind(m)
package builder

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/comalice/tickfsm"
)

// Target is the machine a built definition drives.
type Target[S comparable] interface {
	State() S
	SetState(S)
}

// TransOption configures one transition.
type TransOption func(*transOptions)

type transOptions struct {
	guard  tickfsm.Guard
	action tickfsm.TransitionFunc
}

// WithGuard makes the transition conditional. A rejected event is ignored.
func WithGuard(g tickfsm.Guard) TransOption {
	return func(o *transOptions) { o.guard = g }
}

// WithAction runs act between the exit and entry hooks.
func WithAction(act tickfsm.TransitionFunc) TransOption {
	return func(o *transOptions) { o.action = act }
}

type transition[S comparable] struct {
	event    tickfsm.EventID
	target   S
	internal bool
	transOptions
}

// State describes one state. A state without transitions is left out of the
// transition table, which makes it a dead-end state.
type State[S comparable] struct {
	id          S
	onEntry     []func()
	onExit      []func()
	every       tickfsm.StateFunc
	transitions []transition[S]
}

// NewState starts the description of state id.
func NewState[S comparable](id S) *State[S] {
	return &State[S]{id: id}
}

// On adds an external transition to target: exit hooks, action, state change, entry hooks.
func (s *State[S]) On(id tickfsm.EventID, target S, opts ...TransOption) *State[S] {
	t := transition[S]{event: id, target: target}
	for _, opt := range opts {
		opt(&t.transOptions)
	}
	s.transitions = append(s.transitions, t)
	return s
}

// Internal adds a transition that runs act without leaving the state.
func (s *State[S]) Internal(id tickfsm.EventID, act tickfsm.TransitionFunc, opts ...TransOption) *State[S] {
	t := transition[S]{event: id, target: s.id, internal: true}
	t.action = act
	for _, opt := range opts {
		opt(&t.transOptions)
	}
	s.transitions = append(s.transitions, t)
	return s
}

// OnEntry adds a hook run when an external transition enters the state.
func (s *State[S]) OnEntry(fn func()) *State[S] {
	s.onEntry = append(s.onEntry, fn)
	return s
}

// OnExit adds a hook run when an external transition leaves the state.
func (s *State[S]) OnExit(fn func()) *State[S] {
	s.onExit = append(s.onExit, fn)
	return s
}

// Every sets the periodic work of the state.
func (s *State[S]) Every(fn tickfsm.StateFunc) *State[S] {
	s.every = fn
	return s
}

// Machine is a tickfsm.PeriodicDefinition built from state descriptions.
// It must be bound to its machine before delivery starts.
type Machine[S comparable] struct {
	states    []*State[S]
	index     map[S]*State[S]
	onDeadEnd func(error)
	target    Target[S]
}

// NewMachine collects states. Later declarations of the same state replace
// earlier ones.
func NewMachine[S comparable](states ...*State[S]) *Machine[S] {
	m := &Machine[S]{index: make(map[S]*State[S], len(states))}
	for _, s := range states {
		if _, dup := m.index[s.id]; !dup {
			m.states = append(m.states, s)
		} else {
			for i := range m.states {
				if m.states[i].id == s.id {
					m.states[i] = s
				}
			}
		}
		m.index[s.id] = s
	}
	return m
}

// OnDeadEnd sets the dead-end callback. The default discards the error.
func (m *Machine[S]) OnDeadEnd(fn func(error)) *Machine[S] {
	m.onDeadEnd = fn
	return m
}

// Bind attaches the machine whose state the transitions change.
func (m *Machine[S]) Bind(t Target[S]) { m.target = t }

// Validate reports every transition to an undeclared state and every
// duplicate (state, event) pair.
func (m *Machine[S]) Validate() error {
	var errs error
	for _, s := range m.states {
		seen := make(map[tickfsm.EventID]bool)
		for _, t := range s.transitions {
			if seen[t.event] {
				errs = multierr.Append(errs, fmt.Errorf("state %v: duplicate transition for event %s", s.id, t.event))
			}
			seen[t.event] = true
			if _, ok := m.index[t.target]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("state %v: event %s targets undeclared state %v", s.id, t.event, t.target))
			}
		}
	}
	return errs
}

// SetupTransitions implements tickfsm.Definition.
func (m *Machine[S]) SetupTransitions(table tickfsm.TransitionTable[S]) {
	for _, s := range m.states {
		for _, t := range s.transitions {
			table.Add(s.id, t.event, m.transitionFunc(s, t))
		}
	}
}

// SetupStateFunctions implements tickfsm.PeriodicDefinition.
func (m *Machine[S]) SetupStateFunctions(table tickfsm.StateFunctionTable[S]) {
	for _, s := range m.states {
		if s.every != nil {
			table[s.id] = s.every
		}
	}
}

// OnDeadEndState implements tickfsm.Definition.
func (m *Machine[S]) OnDeadEndState(err error) {
	if m.onDeadEnd != nil {
		m.onDeadEnd(err)
	}
}

func (m *Machine[S]) transitionFunc(from *State[S], t transition[S]) tickfsm.TransitionFunc {
	fn := func(e tickfsm.Event) {
		if t.internal {
			if t.action != nil {
				t.action(e)
			}
			return
		}
		for _, hook := range from.onExit {
			hook()
		}
		if t.action != nil {
			t.action(e)
		}
		if m.target == nil {
			panic(fmt.Sprintf("builder: machine not bound, cannot enter %v", t.target))
		}
		m.target.SetState(t.target)
		if to, ok := m.index[t.target]; ok {
			for _, hook := range to.onEntry {
				hook()
			}
		}
	}
	return tickfsm.Guarded(t.guard, fn)
}
