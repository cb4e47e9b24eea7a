package extensibility

import (
	"github.com/comalice/tickfsm/internal/core"
	"github.com/comalice/tickfsm/internal/primitives"
)

// Guard decides whether a transition may run for an event.
type Guard func(e primitives.Event) bool

// Guarded runs fn only when guard accepts the event. A rejected event behaves
// like an unmatched one: nothing happens. A nil guard always accepts.
func Guarded(guard Guard, fn core.TransitionFunc) core.TransitionFunc {
	if guard == nil {
		return fn
	}
	return func(e primitives.Event) {
		if guard(e) {
			fn(e)
		}
	}
}

// Not inverts a guard.
func Not(g Guard) Guard {
	return func(e primitives.Event) bool { return !g(e) }
}

// Payload builds a guard over events of payload type T. Events of any other
// type are rejected.
func Payload[T primitives.Event](pred func(T) bool) Guard {
	return func(e primitives.Event) bool {
		v, ok := e.(T)
		return ok && pred(v)
	}
}
