package production

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/comalice/tickfsm/internal/core"
)

// ChannelPublisher forwards transition records to a channel.
// Publish never blocks: records are dropped while the channel is full.
type ChannelPublisher struct {
	ch      chan<- core.TransitionRecord
	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewChannelPublisher creates a ChannelPublisher. It takes ownership of ch and
// closes it on Close.
func NewChannelPublisher(ch chan<- core.TransitionRecord) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, rec core.TransitionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	select {
	case p.ch <- rec:
	default:
		p.dropped++
	}
	return nil
}

// Dropped returns the number of records lost to backpressure.
func (p *ChannelPublisher) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

// MultiPublisher fans a record out to several publishers.
type MultiPublisher []core.Publisher

func (m MultiPublisher) Publish(ctx context.Context, rec core.TransitionRecord) error {
	var errs error
	for _, p := range m {
		errs = multierr.Append(errs, p.Publish(ctx, rec))
	}
	return errs
}

func (m MultiPublisher) Close() error {
	var errs error
	for _, p := range m {
		errs = multierr.Append(errs, p.Close())
	}
	return errs
}
