package extensibility

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/comalice/tickfsm/internal/core"
	"github.com/comalice/tickfsm/internal/primitives"
)

// Logged wraps fn so that every run is logged at V(1) with its duration.
func Logged(log logr.Logger, name string, fn core.TransitionFunc) core.TransitionFunc {
	log = log.WithValues("transition", name)
	return func(e primitives.Event) {
		start := time.Now()
		fn(e)
		log.V(1).Info("transition executed", "event", e.ID(), "elapsed", time.Since(start))
	}
}
