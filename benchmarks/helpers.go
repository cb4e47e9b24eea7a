// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"sync/atomic"

	"github.com/comalice/tickfsm/internal/core"
	"github.com/comalice/tickfsm/internal/primitives"
)

// EvTick advances a Ring by one state.
const EvTick primitives.EventID = 1

// Ring is a machine with n states cycling on EvTick.
type Ring struct {
	M         *core.StateMachine[int]
	n         int
	Processed atomic.Int64
}

// NewRing creates a stopped ring of n states (at least one).
func NewRing(n int, opts ...core.Option) *Ring {
	if n < 1 {
		n = 1
	}
	r := &Ring{n: n}
	r.M = core.NewStateMachine[int](0, r, opts...)
	return r
}

func (r *Ring) SetupTransitions(t core.TransitionTable[int]) {
	for i := range r.n {
		next := (i + 1) % r.n
		t.Add(i, EvTick, func(primitives.Event) {
			r.M.SetState(next)
			r.Processed.Add(1)
		})
	}
}

func (r *Ring) OnDeadEndState(error) {}

// GenWideTable creates one state "main" reacting to numEvents distinct events.
func GenWideTable(numEvents int) core.TransitionTable[string] {
	t := make(core.TransitionTable[string], 1)
	for i := range numEvents {
		t.Add("main", primitives.EventID(i), func(primitives.Event) {})
	}
	return t
}
