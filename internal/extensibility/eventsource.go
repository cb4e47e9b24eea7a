// Package extensibility provides adapters around the core runtime: event
// sources feeding a processor and decorators for transition functions.
package extensibility

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/comalice/tickfsm/internal/core"
	"github.com/comalice/tickfsm/internal/primitives"
)

// Pusher accepts events. Processors and machines implement it.
type Pusher interface {
	PushEvent(e primitives.Event) error
}

// EventSource produces events on a channel that is closed when the source ends.
type EventSource interface {
	Events() <-chan primitives.Event
}

// Pump forwards events from src to p until ctx is done or src is exhausted.
// Push failures such as a full queue are logged and the event is dropped.
func Pump(ctx context.Context, src EventSource, p Pusher, log logr.Logger) error {
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := p.PushEvent(e); err != nil {
				log.Error(err, "event dropped", "event", e.ID())
			}
		}
	}
}

// ChannelEventSource is an EventSource backed by a caller-owned channel.
type ChannelEventSource struct {
	ch chan primitives.Event
}

// NewChannelEventSource wraps ch. The channel should be buffered if producers
// must not block.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// Events returns the receive side of the channel.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// TimerEventSource emits the same event every period, driven by a core.Timer.
// Ticks are dropped while the channel buffer is full.
type TimerEventSource struct {
	ch    chan primitives.Event
	timer *core.Timer
	once  sync.Once
}

// NewTimerEventSource starts emitting e every d. Options configure the timer
// (clock, logger, name).
func NewTimerEventSource(e primitives.Event, d time.Duration, opts ...core.Option) *TimerEventSource {
	s := &TimerEventSource{
		ch:    make(chan primitives.Event, 10),
		timer: core.NewTimer(opts...),
	}
	s.timer.SetSingleShot(false)
	s.timer.SetPeriod(d)
	s.timer.CallOnTimeout(func() {
		select {
		case s.ch <- e:
		default:
		}
	})
	s.timer.Start()
	return s
}

// Events returns the event channel.
func (s *TimerEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// Stop stops the timer and closes the channel. Safe to call more than once.
func (s *TimerEventSource) Stop() {
	s.once.Do(func() {
		s.timer.Stop()
		close(s.ch)
	})
}
