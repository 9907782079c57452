// Package fetch implements typed data cells that load one upstream resource,
// normalize it and publish loading, ready and failed states to their owner.
package fetch

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/galaxia/internal/observability"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// Status is the lifecycle stage of a cell.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// State is an immutable snapshot of a cell. Exactly one of loading, data or
// error is meaningful at a time.
type State[T any] struct {
	Status      Status `json:"status"`
	Data        T      `json:"data"`
	Err         error  `json:"-"`
	Message     string `json:"message,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
	Seq         uint64 `json:"seq"`
}

// Descriptor is the per-resource configuration of a cell.
type Descriptor[T any] struct {
	// Source names the resource in logs, metrics and failure messages.
	Source string
	// Request builds the upstream request. An error here fails the cell
	// without a network call.
	Request func() (upstream.Request, error)
	// Normalize converts a raw body into the view model.
	Normalize func([]byte) (T, error)
	// Fallback, when set, replaces the failed state with placeholder data.
	Fallback func() T
	// FailureMessage overrides the default "Failed to load <source>".
	FailureMessage string
}

// Option customises a cell.
type Option func(*settings)

type settings struct {
	lastResolvedWins bool
	logger           *slog.Logger
	metrics          *observability.Metrics
	clock            clockwork.Clock
}

// WithLastResolvedWins applies every response in resolution order, so a slow
// earlier request may overwrite a newer one.
func WithLastResolvedWins() Option {
	return func(s *settings) { s.lastResolvedWins = true }
}

// WithLogger sets the logger used for upstream failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMetrics records fetch outcomes and discarded responses.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// Cell loads one resource on demand and tracks its state.
type Cell[T any] struct {
	requester upstream.Requester
	desc      Descriptor[T]
	settings

	mu       sync.Mutex
	state    State[T]
	issued   uint64
	applied  uint64
	inflight map[uint64]context.CancelFunc
	closed   bool
	onChange func(State[T])
}

// NewCell creates an idle cell for the descriptor.
func NewCell[T any](r upstream.Requester, d Descriptor[T], opts ...Option) *Cell[T] {
	c := &Cell[T]{
		requester: r,
		desc:      d,
		state:     State[T]{Status: StatusIdle},
		inflight:  make(map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(&c.settings)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// OnChange registers a callback invoked with every published state. The
// callback runs while the cell is locked and must not call back into the cell.
func (c *Cell[T]) OnChange(fn func(State[T])) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Source returns the descriptor's source name.
func (c *Cell[T]) Source() string { return c.desc.Source }

// State returns the current snapshot.
func (c *Cell[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Fetch issues one request and blocks until it resolves or ctx is done.
// It returns the cell's state after the response has been applied or discarded.
func (c *Cell[T]) Fetch(ctx context.Context) State[T] {
	c.mu.Lock()
	if c.closed {
		st := c.state
		c.mu.Unlock()
		return st
	}
	c.issued++
	seq := c.issued
	reqCtx, cancel := context.WithCancel(ctx)
	c.inflight[seq] = cancel
	c.publishLocked(State[T]{Status: StatusLoading, Seq: seq})
	c.mu.Unlock()

	result := c.resolve(reqCtx)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, seq)

	if c.closed {
		c.discard("closed")
		return c.state
	}
	if !c.lastResolvedWins && seq < c.applied {
		c.discard("stale")
		return c.state
	}
	c.applied = seq
	result.Seq = seq
	c.publishLocked(result)
	return result
}

// Close cancels in-flight requests. A closed cell never changes state again.
func (c *Cell[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for seq, cancel := range c.inflight {
		cancel()
		delete(c.inflight, seq)
	}
}

func (c *Cell[T]) resolve(ctx context.Context) State[T] {
	req, err := c.desc.Request()
	if err != nil {
		return c.failure(err)
	}
	body, err := c.requester.Do(ctx, req)
	if err != nil {
		return c.failure(err)
	}
	data, err := c.desc.Normalize(body)
	if err != nil {
		return c.failure(err)
	}
	c.count("success")
	return State[T]{Status: StatusReady, Data: data}
}

func (c *Cell[T]) failure(err error) State[T] {
	msg := c.desc.FailureMessage
	if msg == "" {
		msg = "Failed to load " + c.desc.Source
	}
	c.logger.Warn("fetch failed", "source", c.desc.Source, "error", err)

	if c.desc.Fallback != nil {
		c.count("fallback")
		return State[T]{Status: StatusReady, Data: c.desc.Fallback(), Message: msg, Placeholder: true}
	}
	c.count("error")
	return State[T]{Status: StatusFailed, Err: err, Message: msg}
}

func (c *Cell[T]) publishLocked(s State[T]) {
	c.state = s
	if c.onChange != nil {
		c.onChange(s)
	}
}

func (c *Cell[T]) count(outcome string) {
	if c.metrics != nil {
		c.metrics.FetchRequests.WithLabelValues(c.desc.Source, outcome).Inc()
	}
}

func (c *Cell[T]) discard(reason string) {
	if c.metrics != nil {
		c.metrics.FetchDiscarded.WithLabelValues(c.desc.Source, reason).Inc()
	}
}
