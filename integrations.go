package tickfsm

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/comalice/tickfsm/internal/extensibility"
	"github.com/comalice/tickfsm/internal/production"
)

type (
	Pusher             = extensibility.Pusher
	EventSource        = extensibility.EventSource
	ChannelEventSource = extensibility.ChannelEventSource
	TimerEventSource   = extensibility.TimerEventSource
	Guard              = extensibility.Guard

	Metrics          = production.Metrics
	ChannelPublisher = production.ChannelPublisher
	MultiPublisher   = production.MultiPublisher
	JSONPersister    = production.JSONPersister
	YAMLPersister    = production.YAMLPersister
)

var ErrSnapshotNotFound = production.ErrSnapshotNotFound

// NewChannelEventSource reads events from a caller-owned channel.
func NewChannelEventSource(ch chan Event) *ChannelEventSource {
	return extensibility.NewChannelEventSource(ch)
}

// NewTimerEventSource emits e every d until stopped.
func NewTimerEventSource(e Event, d time.Duration, opts ...Option) *TimerEventSource {
	return extensibility.NewTimerEventSource(e, d, opts...)
}

// Pump forwards events from src to p until ctx is done or src is exhausted.
func Pump(ctx context.Context, src EventSource, p Pusher, log logr.Logger) error {
	return extensibility.Pump(ctx, src, p, log)
}

// Logged wraps a transition with V(1) logging.
func Logged(log logr.Logger, name string, fn TransitionFunc) TransitionFunc {
	return extensibility.Logged(log, name, fn)
}

// Guarded runs fn only for events accepted by guard.
func Guarded(guard Guard, fn TransitionFunc) TransitionFunc { return extensibility.Guarded(guard, fn) }

// Not inverts a guard.
func Not(g Guard) Guard { return extensibility.Not(g) }

// Payload accepts events of type T satisfying pred.
func Payload[T Event](pred func(T) bool) Guard { return extensibility.Payload(pred) }

// NewMetrics creates unregistered Prometheus metrics usable as an Observer.
func NewMetrics() *Metrics { return production.NewMetrics() }

// NewChannelPublisher publishes transition records to ch without blocking.
func NewChannelPublisher(ch chan<- TransitionRecord) *ChannelPublisher {
	return production.NewChannelPublisher(ch)
}

// NewJSONPersister stores snapshots as JSON files in dir.
func NewJSONPersister(dir string) (*JSONPersister, error) { return production.NewJSONPersister(dir) }

// NewYAMLPersister stores snapshots as YAML files in dir.
func NewYAMLPersister(dir string) (*YAMLPersister, error) { return production.NewYAMLPersister(dir) }
