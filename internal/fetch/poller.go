package fetch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/galaxia/internal/observability"
)

// WithClock sets the poller's time source.
func WithClock(c clockwork.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// Poller invokes fn once on Start and then on every interval tick until stopped.
// Ticks do not wait for earlier invocations to finish.
type Poller struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// NewPoller creates a stopped poller.
func NewPoller(name string, interval time.Duration, fn func(ctx context.Context), opts ...Option) *Poller {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{
		name:     name,
		interval: interval,
		fn:       fn,
		clock:    s.clock,
		logger:   s.logger,
		metrics:  s.metrics,
	}
}

// Start fires fn immediately and schedules one ticker. Calling Start on a
// running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runningLocked() {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	wg := &sync.WaitGroup{}
	p.ctx, p.cancel, p.wg = ctx, cancel, wg

	ticker := p.clock.NewTicker(p.interval)
	wg.Add(1)
	go p.loop(ctx, ticker, wg)
	p.logger.Debug("poller started", "poller", p.name, "interval", p.interval)
}

// Stop cancels the schedule and in-flight invocations, then waits for them to
// return. It is safe to call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel == nil {
		p.mu.Unlock()
		return
	}
	p.cancel()
	wg := p.wg
	p.ctx, p.cancel, p.wg = nil, nil, nil
	p.mu.Unlock()

	wg.Wait()
	p.logger.Debug("poller stopped", "poller", p.name)
}

// Running reports whether the schedule is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runningLocked()
}

func (p *Poller) runningLocked() bool {
	return p.ctx != nil && p.ctx.Err() == nil
}

func (p *Poller) loop(ctx context.Context, ticker clockwork.Ticker, wg *sync.WaitGroup) {
	defer wg.Done()
	defer ticker.Stop()

	p.tick(ctx, wg)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.tick(ctx, wg)
		}
	}
}

func (p *Poller) tick(ctx context.Context, wg *sync.WaitGroup) {
	if ctx.Err() != nil {
		return
	}
	if p.metrics != nil {
		p.metrics.PollTicks.WithLabelValues(p.name).Inc()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.fn(ctx)
	}()
}
