package core

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/comalice/tickfsm/internal/primitives"
)

// Handler processes one event on the consumer goroutine.
type Handler interface {
	ProcessEvent(e primitives.Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(e primitives.Event)

// ProcessEvent implements Handler.
func (f HandlerFunc) ProcessEvent(e primitives.Event) { f(e) }

// Processor owns an event queue and a single consumer goroutine that hands
// events to its Handler in push order.
//
// Events pushed while the processor is not running are dropped. Start and Stop
// are idempotent. Stop must not be called from inside the Handler.
type Processor struct {
	handler  Handler
	queue    *primitives.Queue[primitives.Event]
	name     string
	log      logr.Logger
	observer Observer
	clk      clock.PassiveClock

	running atomic.Bool

	mu   sync.Mutex
	done chan struct{}
}

// NewProcessor creates a stopped processor.
// It panics on a nil handler or an invalid capacity.
func NewProcessor(handler Handler, opts ...Option) *Processor {
	return newProcessor(handler, newSettings(opts))
}

func newProcessor(handler Handler, s settings) *Processor {
	if handler == nil {
		panic("core: nil handler")
	}
	return &Processor{
		handler:  handler,
		queue:    primitives.NewQueue[primitives.Event](s.capacity),
		name:     s.name,
		log:      s.logger.WithName("processor").WithValues("machine", s.name),
		observer: s.observer,
		clk:      s.clock,
	}
}

// Name returns the name used in logs and metrics.
func (p *Processor) Name() string { return p.name }

// Running reports whether events are being accepted.
func (p *Processor) Running() bool { return p.running.Load() }

// Pending returns the number of queued, not yet processed events.
func (p *Processor) Pending() int { return p.queue.Len() }

// PushEvent enqueues e. A stopped processor drops e and returns nil.
// A full queue returns an error wrapping primitives.ErrQueueFull.
func (p *Processor) PushEvent(e primitives.Event) error {
	if !p.running.Load() {
		p.log.V(2).Info("event dropped, processor not running", "event", e.ID())
		p.observer.ObserveEvent(p.name, e.ID(), OutcomeDropped)
		return nil
	}
	if err := p.queue.Push(e); err != nil {
		p.observer.ObserveEvent(p.name, e.ID(), OutcomeRejected)
		return fmt.Errorf("push event %s to %s: %w", e.ID(), p.name, err)
	}
	p.observer.ObserveEvent(p.name, e.ID(), OutcomeQueued)
	return nil
}

// Start launches the consumer goroutine. Events left over from a previous run
// are discarded. No-op when already running.
func (p *Processor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return
	}
	p.queue.Clear()
	p.queue.EnableWait()
	done := make(chan struct{})
	p.done = done
	p.running.Store(true)
	p.log.V(1).Info("processor started", "capacity", p.queue.Capacity())
	go p.loop(done)
}

// Stop discards queued events, releases the consumer goroutine and waits for it
// to exit. No-op when not running.
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return
	}
	p.running.Store(false)
	p.queue.Clear()
	p.queue.DisableWait()
	<-p.done
	p.done = nil
	p.log.V(1).Info("processor stopped")
}

func (p *Processor) loop(done chan<- struct{}) {
	defer close(done)
	for p.running.Load() {
		e, ok := p.queue.Pop()
		if !ok {
			continue
		}
		if !p.running.Load() {
			return
		}
		begin := p.clk.Now()
		p.handler.ProcessEvent(e)
		p.observer.ObserveProcessing(p.name, p.clk.Since(begin))
	}
}
