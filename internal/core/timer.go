package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

// Timer is a cancellable single-shot or periodic timer running its callback on
// a dedicated goroutine.
//
// In periodic mode the wait before each firing is shortened by the duration of
// the previous callback, so the start-to-start interval stays at the period as
// long as the callback is faster than the period.
//
// Configuration setters are ignored while the timer is started. Start and Stop
// must not be called from inside the callback.
type Timer struct {
	clk clock.Clock
	log logr.Logger

	mu         sync.Mutex
	fn         func()
	singleShot bool
	period     time.Duration

	started atomic.Bool

	runMu  sync.Mutex
	cancel chan struct{}
	done   chan struct{}
}

// NewTimer returns an idle single-shot timer with a zero period and no callback.
func NewTimer(opts ...Option) *Timer {
	s := newSettings(opts)
	return newTimer(s)
}

func newTimer(s settings) *Timer {
	return &Timer{
		clk:        s.clock,
		log:        s.logger.WithName("timer").WithValues("machine", s.name),
		singleShot: true,
	}
}

// CallOnTimeout sets the callback.
func (t *Timer) CallOnTimeout(fn func()) {
	if t.IsStarted() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fn = fn
}

// SetSingleShot selects single-shot (true) or periodic (false) mode.
func (t *Timer) SetSingleShot(singleShot bool) {
	if t.IsStarted() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.singleShot = singleShot
}

// SetPeriod sets the period, or the delay in single-shot mode.
func (t *Timer) SetPeriod(d time.Duration) {
	if t.IsStarted() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.period = d
}

// Period returns the configured period.
func (t *Timer) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

// SingleShot reports the configured mode.
func (t *Timer) SingleShot() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.singleShot
}

// IsStarted reports whether the timer is counting down.
func (t *Timer) IsStarted() bool {
	return t.started.Load()
}

// Start stops any running countdown and starts a fresh one.
func (t *Timer) Start() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	t.stopLocked()

	t.mu.Lock()
	fn, singleShot, period := t.fn, t.singleShot, t.period
	t.mu.Unlock()

	cancel, done := make(chan struct{}), make(chan struct{})
	t.cancel, t.done = cancel, done
	t.started.Store(true)
	t.log.V(1).Info("timer started", "period", period, "singleShot", singleShot)
	go t.run(fn, singleShot, period, cancel, done)
}

// Stop cancels the countdown and waits for the timer goroutine to exit.
// It is a no-op on an idle timer.
func (t *Timer) Stop() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	t.started.Store(false)
	if t.done == nil {
		return
	}
	close(t.cancel)
	<-t.done
	t.cancel, t.done = nil, nil
	t.log.V(1).Info("timer stopped")
}

func (t *Timer) run(fn func(), singleShot bool, period time.Duration, cancel <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	var spent time.Duration
	for {
		if wait := period - spent; wait > 0 {
			tm := t.clk.NewTimer(wait)
			select {
			case <-cancel:
				tm.Stop()
				return
			case <-tm.C():
			}
		}
		select {
		case <-cancel:
			return
		default:
		}

		begin := t.clk.Now()
		if fn != nil {
			fn()
		}
		spent = t.clk.Since(begin)
		if spent > period {
			t.log.V(2).Info("callback overran period", "spent", spent, "period", period)
		}

		if singleShot {
			t.started.Store(false)
			return
		}
		if !t.started.Load() {
			return
		}
	}
}

// StartSingleShot blocks the caller for d, then calls fn on the caller's goroutine.
func StartSingleShot(d time.Duration, fn func()) {
	StartSingleShotWithClock(clock.RealClock{}, d, fn)
}

// StartSingleShotWithClock is StartSingleShot on an explicit clock.
func StartSingleShotWithClock(clk clock.Clock, d time.Duration, fn func()) {
	clk.Sleep(d)
	if fn != nil {
		fn()
	}
}
