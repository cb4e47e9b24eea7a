package core

import (
	"sync"
	"time"
)

// StateFunc is the periodic work of one state.
type StateFunc func()

// StateFunctionTable maps states to their periodic work.
type StateFunctionTable[S comparable] map[S]StateFunc

// Lookup returns the periodic work of state, if any.
func (t StateFunctionTable[S]) Lookup(state S) (StateFunc, bool) {
	fn, ok := t[state]
	return fn, ok && fn != nil
}

// PeriodicDefinition is a Definition that also supplies per-state periodic work.
type PeriodicDefinition[S comparable] interface {
	Definition[S]
	// SetupStateFunctions fills the table. Called once, before SetupTransitions.
	SetupStateFunctions(table StateFunctionTable[S])
}

// PeriodicStateMachine is a StateMachine owning a periodic Timer. On each tick
// the function registered for the state current at that moment runs on the
// timer goroutine. States without a function do nothing on a tick.
//
// The timer is never started implicitly; transitions call StartTimer,
// StopTimer, ChangePeriodAndStart or ChangePeriodAndStop. Those must not be
// called from inside a state function.
type PeriodicStateMachine[S comparable] struct {
	*StateMachine[S]

	def       PeriodicDefinition[S]
	functions StateFunctionTable[S]
	timer     *Timer
	setupOnce sync.Once
}

// NewPeriodicStateMachine creates a stopped machine with its timer idle.
// A period supplied through WithConfig takes precedence over period.
func NewPeriodicStateMachine[S comparable](initial S, period time.Duration, def PeriodicDefinition[S], opts ...Option) *PeriodicStateMachine[S] {
	s := newSettings(opts)
	if s.period > 0 {
		period = s.period
	}
	m := &PeriodicStateMachine[S]{
		StateMachine: newStateMachine[S](initial, def, s),
		def:          def,
		functions:    make(StateFunctionTable[S]),
		timer:        newTimer(s),
	}
	m.timer.SetSingleShot(false)
	m.timer.SetPeriod(period)
	m.timer.CallOnTimeout(m.callStateFunction)
	m.snapshotHook = func(snap *Snapshot) {
		snap.Period = m.Period()
		snap.TimerStarted = m.TimerStarted()
	}
	m.restoreHook = func(snap Snapshot) {
		if snap.Period > 0 {
			m.ChangePeriodAndStop(snap.Period)
		}
		if snap.TimerStarted {
			m.StartTimer()
		}
	}
	return m
}

// SetupAndStart fills the state function table and the transition table on
// the first call, then starts event delivery.
func (m *PeriodicStateMachine[S]) SetupAndStart() {
	m.setupOnce.Do(func() {
		m.def.SetupStateFunctions(m.functions)
		m.log.V(1).Info("state functions set up", "states", len(m.functions))
	})
	m.StateMachine.SetupAndStart()
}

// Stop stops event delivery, then the timer.
func (m *PeriodicStateMachine[S]) Stop() {
	m.StateMachine.Stop()
	m.timer.Stop()
}

// StartTimer (re)starts the periodic timer.
func (m *PeriodicStateMachine[S]) StartTimer() { m.timer.Start() }

// StopTimer stops the periodic timer.
func (m *PeriodicStateMachine[S]) StopTimer() { m.timer.Stop() }

// ChangePeriodAndStart stops the timer, sets the period and restarts it.
func (m *PeriodicStateMachine[S]) ChangePeriodAndStart(d time.Duration) {
	m.timer.Stop()
	m.timer.SetPeriod(d)
	m.timer.Start()
}

// ChangePeriodAndStop stops the timer and sets the period.
func (m *PeriodicStateMachine[S]) ChangePeriodAndStop(d time.Duration) {
	m.timer.Stop()
	m.timer.SetPeriod(d)
}

// TimerStarted reports whether the periodic timer is running.
func (m *PeriodicStateMachine[S]) TimerStarted() bool { return m.timer.IsStarted() }

// Period returns the timer period.
func (m *PeriodicStateMachine[S]) Period() time.Duration { return m.timer.Period() }

// StateFunctions exposes the table. It must not be modified once delivery started.
func (m *PeriodicStateMachine[S]) StateFunctions() StateFunctionTable[S] { return m.functions }

func (m *PeriodicStateMachine[S]) callStateFunction() {
	fn, ok := m.functions.Lookup(m.State())
	if !ok {
		return
	}
	begin := m.clk.Now()
	fn()
	m.observer.ObserveTick(m.Name(), m.clk.Since(begin))
}
