// Package tracker follows the International Space Station. It polls the
// position, telemetry and ground track collaborators, resolves the country
// below the station and hands every merged snapshot to its sinks.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/galaxia/internal/adapter/geocode"
	"github.com/couchcryptid/galaxia/internal/adapter/iss"
	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/observability"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// Loader receives every merged snapshot.
type Loader interface {
	Load(ctx context.Context, s domain.ISSState) error
}

// Sink is a named Loader.
type Sink struct {
	Name   string
	Loader Loader
}

// Requesters are the upstream clients the tracker polls.
type Requesters struct {
	OpenNotify  upstream.Requester
	WhereTheISS upstream.Requester
	Geocode     upstream.Requester
}

// Config holds the polling schedule.
type Config struct {
	ISSInterval     time.Duration
	GeocodeInterval time.Duration
	GeocodeAPIKey   string
}

// Tracker owns the ISS cells and pollers.
type Tracker struct {
	position  *fetch.Cell[domain.ISSPosition]
	telemetry *fetch.Cell[domain.ISSTelemetry]
	path      *fetch.Cell[[][2]float64]
	country   *fetch.Cell[string]

	issPoller *fetch.Poller
	geoPoller *fetch.Poller

	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics

	mu          sync.RWMutex
	snapshot    domain.ISSState
	hasPosition bool

	updates chan struct{}
	ready   atomic.Bool
}

// New wires the cells and pollers. opts are applied to every cell and poller.
func New(r Requesters, cfg Config, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, opts ...fetch.Option) *Tracker {
	t := &Tracker{
		sinks:    sinks,
		logger:   logger,
		metrics:  metrics,
		snapshot: domain.ISSState{Country: domain.UnknownCountry, Path: [][2]float64{}},
		updates:  make(chan struct{}, 1),
	}
	opts = append([]fetch.Option{fetch.WithLogger(logger), fetch.WithMetrics(metrics)}, opts...)

	t.position = fetch.NewCell(r.OpenNotify, iss.Position(), opts...)
	t.telemetry = fetch.NewCell(r.WhereTheISS, iss.Telemetry(), opts...)
	t.path = fetch.NewCell(r.WhereTheISS, iss.Path(), opts...)
	t.country = fetch.NewCell(r.Geocode, geocode.Country(cfg.GeocodeAPIKey, t.latestPosition), opts...)

	t.position.OnChange(func(s fetch.State[domain.ISSPosition]) {
		if s.Status == fetch.StatusReady {
			t.apply(func(st *domain.ISSState) { st.Position = s.Data }, true)
		}
	})
	t.telemetry.OnChange(func(s fetch.State[domain.ISSTelemetry]) {
		if s.Status == fetch.StatusReady {
			t.apply(func(st *domain.ISSState) { st.Telemetry = s.Data }, false)
		}
	})
	t.path.OnChange(func(s fetch.State[[][2]float64]) {
		if s.Status == fetch.StatusReady {
			t.apply(func(st *domain.ISSState) { st.Path = s.Data }, false)
		}
	})
	t.country.OnChange(func(s fetch.State[string]) {
		if s.Status == fetch.StatusReady {
			t.apply(func(st *domain.ISSState) { st.Country = s.Data }, false)
		}
	})

	t.issPoller = fetch.NewPoller("iss", cfg.ISSInterval, t.pollStation, opts...)
	t.geoPoller = fetch.NewPoller("geocode", cfg.GeocodeInterval, t.pollCountry, opts...)
	return t
}

// CheckReadiness returns nil once a snapshot has been delivered to the sinks.
func (t *Tracker) CheckReadiness(_ context.Context) error {
	if !t.ready.Load() {
		return errors.New("iss tracker has not delivered a snapshot yet")
	}
	return nil
}

// Snapshot returns the latest merged state and whether a position is known.
func (t *Tracker) Snapshot() (domain.ISSState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot, t.hasPosition
}

// Run polls until ctx is cancelled. On return no cell changes state and no
// sink is written to again.
func (t *Tracker) Run(ctx context.Context) error {
	t.logger.Info("tracker started", "sinks", len(t.sinks))
	t.metrics.TrackerRunning.Set(1)
	defer t.metrics.TrackerRunning.Set(0)
	defer t.teardown()

	t.issPoller.Start(ctx)
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker stopping", "reason", ctx.Err())
			return nil
		case <-t.updates:
			snap, ok := t.Snapshot()
			if !ok {
				continue
			}
			// Country lookups need a position, so they start with the first one.
			t.geoPoller.Start(ctx)
			t.publish(ctx, snap)
		}
	}
}

func (t *Tracker) teardown() {
	for _, c := range []interface{ Close() }{t.position, t.telemetry, t.path, t.country} {
		c.Close()
	}
	t.issPoller.Stop()
	t.geoPoller.Stop()
}

func (t *Tracker) pollStation(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { t.position.Fetch(gctx); return nil })
	g.Go(func() error { t.telemetry.Fetch(gctx); return nil })
	g.Go(func() error { t.path.Fetch(gctx); return nil })
	_ = g.Wait()
}

func (t *Tracker) pollCountry(ctx context.Context) {
	t.country.Fetch(ctx)
}

func (t *Tracker) latestPosition() (domain.ISSPosition, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot.Position, t.hasPosition
}

// apply builds the next snapshot from the current one. Published snapshots
// are never modified.
func (t *Tracker) apply(update func(*domain.ISSState), isPosition bool) {
	t.mu.Lock()
	next := t.snapshot
	update(&next)
	next.UpdatedAt = domain.Now()
	t.snapshot = next
	if isPosition {
		t.hasPosition = true
	}
	t.mu.Unlock()

	select {
	case t.updates <- struct{}{}:
	default:
	}
}

func (t *Tracker) publish(ctx context.Context, snap domain.ISSState) {
	for _, s := range t.sinks {
		if err := s.Loader.Load(ctx, snap); err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Error("load snapshot failed", "sink", s.Name, "error", err)
			continue
		}
		t.metrics.SnapshotsPublished.WithLabelValues(s.Name).Inc()
	}
	t.ready.Store(true)
}
