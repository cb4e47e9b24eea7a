// Package testutil provides helpers for testing machines built on tickfsm.
package testutil

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comalice/tickfsm"
)

// DefaultTimeout bounds every wait in this package.
var DefaultTimeout = time.Second

// WaitFor fails the test unless cond holds within DefaultTimeout.
func WaitFor(t testing.TB, cond func() bool, msgAndArgs ...any) {
	t.Helper()
	require.Eventually(t, cond, DefaultTimeout, time.Millisecond, msgAndArgs...)
}

// Machine is the part of a state machine a Driver needs.
type Machine[S comparable] interface {
	PushEvent(e tickfsm.Event) error
	State() S
}

// Driver pushes events into a machine and waits for the resulting states.
type Driver[S comparable] struct {
	t testing.TB
	m Machine[S]
}

// NewDriver wraps m.
func NewDriver[S comparable](t testing.TB, m Machine[S]) *Driver[S] {
	return &Driver[S]{t: t, m: m}
}

// Send pushes payload-free events, failing the test on a push error.
func (d *Driver[S]) Send(ids ...tickfsm.EventID) *Driver[S] {
	d.t.Helper()
	for _, id := range ids {
		require.NoError(d.t, d.m.PushEvent(tickfsm.NewEvent(id)))
	}
	return d
}

// SendEvent pushes e, failing the test on a push error.
func (d *Driver[S]) SendEvent(e tickfsm.Event) *Driver[S] {
	d.t.Helper()
	require.NoError(d.t, d.m.PushEvent(e))
	return d
}

// WaitState waits until the machine is in want.
func (d *Driver[S]) WaitState(want S) *Driver[S] {
	d.t.Helper()
	WaitFor(d.t, func() bool { return d.m.State() == want }, "state never became %v (last %v)", want, d.m.State())
	return d
}

// Recorder is a tickfsm.Handler and tickfsm.Observer that records what it sees.
type Recorder struct {
	mu       sync.Mutex
	events   []tickfsm.EventID
	outcomes map[tickfsm.Outcome]int
	ticks    int
}

// ProcessEvent implements tickfsm.Handler.
func (r *Recorder) ProcessEvent(e tickfsm.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.ID())
}

// Events returns the processed event IDs in order.
func (r *Recorder) Events() []tickfsm.EventID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tickfsm.EventID(nil), r.events...)
}

// Len returns the number of processed events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *Recorder) ObserveEvent(_ string, _ tickfsm.EventID, outcome tickfsm.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[tickfsm.Outcome]int)
	}
	r.outcomes[outcome]++
}

func (r *Recorder) ObserveProcessing(string, time.Duration) {}

func (r *Recorder) ObserveTick(string, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
}

// Outcomes returns how often outcome was observed.
func (r *Recorder) Outcomes(outcome tickfsm.Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[outcome]
}

// Ticks returns the number of observed state function runs.
func (r *Recorder) Ticks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks
}

// Counter counts calls. Its Func is usable as a state function.
type Counter struct {
	n atomic.Int64
}

// Inc adds one.
func (c *Counter) Inc() { c.n.Add(1) }

// Load returns the count.
func (c *Counter) Load() int64 { return c.n.Load() }

// Func returns a state function incrementing c.
func (c *Counter) Func() tickfsm.StateFunc { return c.Inc }
