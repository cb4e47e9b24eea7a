package core

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/comalice/tickfsm/internal/primitives"
)

// Option configures a Timer, Processor or machine via the functional options pattern.
// Options that do not apply to the constructed type are ignored.
type Option func(*settings)

type settings struct {
	name      string
	capacity  primitives.Capacity
	period    time.Duration
	logger    logr.Logger
	clock     clock.WithTicker
	observer  Observer
	publisher Publisher
	persister Persister
}

func newSettings(opts []Option) settings {
	s := settings{
		capacity: primitives.Unbounded(),
		logger:   logr.Discard(),
		clock:    clock.RealClock{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.name == "" {
		s.name = uuid.NewString()
	}
	return s
}

// WithName sets the machine name used in logs, metrics, records and snapshots.
// Defaults to a random UUID.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithCapacity bounds the event queue. Defaults to unbounded.
func WithCapacity(c primitives.Capacity) Option {
	return func(s *settings) {
		s.capacity = c
	}
}

// WithLogger sets the logger. Defaults to logr.Discard().
func WithLogger(l logr.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithClock replaces the time source, typically with a fake clock in tests.
func WithClock(c clock.WithTicker) Option {
	return func(s *settings) {
		s.clock = c
	}
}

// WithObserver installs an Observer. A nil observer is ignored.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithPublisher installs a Publisher notified after every matched transition.
func WithPublisher(p Publisher) Option {
	return func(s *settings) {
		s.publisher = p
	}
}

// WithPersister installs a Persister receiving a Snapshot after every matched transition.
func WithPersister(p Persister) Option {
	return func(s *settings) {
		s.persister = p
	}
}

// WithConfig applies a validated MachineConfig: name, capacity and, when set,
// the period of a periodic machine.
func WithConfig(cfg primitives.MachineConfig) Option {
	return func(s *settings) {
		if cfg.ID != "" {
			s.name = cfg.ID
		}
		s.capacity = cfg.Capacity
		if cfg.Period > 0 {
			s.period = cfg.Period
		}
	}
}
