package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"estatehub/internal/logger"
)

// FetchFunc returns the current number of records in the watched view.
type FetchFunc func(ctx context.Context) (int, error)

// DeltaFunc receives the number of records that arrived since the last fetch.
type DeltaFunc func(newCount int)

// Poller silently re-fetches a view on a fixed interval and reports newly
// arrived records. Silent polls never overlap; RefreshNow runs independently
// of them and shares the same reconcile step.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
	onDelta  DeltaFunc
	log      *logger.Logger

	polling atomic.Bool
	issued  atomic.Uint64

	mu      sync.Mutex
	last    int
	primed  bool
	applied uint64

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewPoller(interval time.Duration, fetch FetchFunc, onDelta DeltaFunc) *Poller {
	return &Poller{
		interval: interval,
		fetch:    fetch,
		onDelta:  onDelta,
		log:      logger.New("POLLER"),
	}
}

// Start launches the ticker goroutine. Calling Start on a running poller
// does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.PollOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.PollOnce(ctx)
			}
		}
	}(p.done)
}

// Stop cancels the ticker and waits for an in-flight silent poll to return.
func (p *Poller) Stop() {
	p.lifecycle.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.lifecycle.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// PollOnce runs one silent poll. It returns false without fetching when a
// previous silent poll is still unresolved. Failures are only logged.
func (p *Poller) PollOnce(ctx context.Context) bool {
	if !p.polling.CompareAndSwap(false, true) {
		return false
	}
	defer p.polling.Store(false)

	ctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	if err := p.refresh(ctx); err != nil && ctx.Err() != context.Canceled {
		p.log.Warn("background poll failed: %v", err)
	}
	return true
}

// RefreshNow fetches immediately, even while a silent poll is in flight,
// and returns the fetch error to the caller.
func (p *Poller) RefreshNow(ctx context.Context) error {
	return p.refresh(ctx)
}

func (p *Poller) refresh(ctx context.Context) error {
	seq := p.issued.Add(1)
	count, err := p.fetch(ctx)
	if err != nil {
		return err
	}
	p.reconcile(seq, count)
	return nil
}

// reconcile diffs count against the previous result. The first result only
// primes the baseline. A result from a fetch issued before the one last
// applied is stale and dropped.
func (p *Poller) reconcile(seq uint64, count int) {
	p.mu.Lock()
	if seq <= p.applied {
		p.mu.Unlock()
		return
	}
	delta := count - p.last
	primed := p.primed
	p.last, p.primed, p.applied = count, true, seq
	p.mu.Unlock()

	if primed && delta > 0 && p.onDelta != nil {
		p.onDelta(delta)
	}
}

// Last is the most recently reconciled count.
func (p *Poller) Last() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
