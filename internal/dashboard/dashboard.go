// Package dashboard composes the landing page from independent widgets.
package dashboard

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/galaxia/internal/adapter/genai"
	"github.com/couchcryptid/galaxia/internal/adapter/nasa"
	"github.com/couchcryptid/galaxia/internal/adapter/news"
	"github.com/couchcryptid/galaxia/internal/adapter/spacex"
	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/observability"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// Widget is the state of one landing page section. A failed widget carries
// a message and no data; the rest of the page is unaffected.
type Widget[T any] struct {
	Status      fetch.Status `json:"status"`
	Data        T            `json:"data"`
	Message     string       `json:"message,omitempty"`
	Placeholder bool         `json:"placeholder,omitempty"`
}

// Page is the landing page.
type Page struct {
	LatestLaunch Widget[domain.LaunchSummary] `json:"latest_launch"`
	NextLaunch   Widget[domain.LaunchSummary] `json:"next_launch"`
	APOD         Widget[domain.APOD]          `json:"apod"`
	News         Widget[[]domain.Article]     `json:"news"`
	RecentEvents Widget[[]domain.RecentEvent] `json:"recent_events"`
	Payloads     Widget[[]domain.Payload]     `json:"payloads"`
	Planets      []domain.Planet              `json:"planets"`
}

// Sources are the upstreams the page reads from.
type Sources struct {
	SpaceX     upstream.Requester
	NASA       upstream.Requester
	News       upstream.Requester
	Generator  *genai.Client
	NASAAPIKey string
}

// Builder loads pages.
type Builder struct {
	src     Sources
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBuilder creates a page builder.
func NewBuilder(src Sources, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	return &Builder{src: src, logger: logger, metrics: metrics}
}

// Build fetches every widget concurrently. It never fails as a whole.
func (b *Builder) Build(ctx context.Context) Page {
	opts := []fetch.Option{fetch.WithLogger(b.logger), fetch.WithMetrics(b.metrics)}
	p := Page{Planets: domain.Planets()}

	var g errgroup.Group
	g.Go(func() error {
		p.LatestLaunch = load(ctx, b.src.SpaceX, spacex.LatestLaunch(), opts)
		return nil
	})
	g.Go(func() error {
		p.NextLaunch = load(ctx, b.src.SpaceX, spacex.NextLaunch(), opts)
		return nil
	})
	g.Go(func() error {
		p.Payloads = load(ctx, b.src.SpaceX, spacex.Payloads(spacex.DashboardPayloads), opts)
		return nil
	})
	g.Go(func() error {
		p.APOD = load(ctx, b.src.NASA, nasa.APOD(b.src.NASAAPIKey), opts)
		return nil
	})
	g.Go(func() error {
		p.News = load(ctx, b.src.News, news.Articles(domain.DefaultArticleLimit), opts)
		return nil
	})
	g.Go(func() error {
		p.RecentEvents = load(ctx, b.src.Generator, b.src.Generator.RecentEvents(), opts)
		return nil
	})
	_ = g.Wait()
	return p
}

func load[T any](ctx context.Context, r upstream.Requester, d fetch.Descriptor[T], opts []fetch.Option) Widget[T] {
	cell := fetch.NewCell(r, d, opts...)
	defer cell.Close()
	return FromState(cell.Fetch(ctx))
}

// FromState converts a cell state into a widget.
func FromState[T any](s fetch.State[T]) Widget[T] {
	return Widget[T]{
		Status:      s.Status,
		Data:        s.Data,
		Message:     s.Message,
		Placeholder: s.Placeholder,
	}
}
