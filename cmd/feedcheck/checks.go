package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/galaxia/internal/adapter/genai"
	"github.com/couchcryptid/galaxia/internal/adapter/geocode"
	"github.com/couchcryptid/galaxia/internal/adapter/impact"
	"github.com/couchcryptid/galaxia/internal/adapter/iss"
	"github.com/couchcryptid/galaxia/internal/adapter/nasa"
	"github.com/couchcryptid/galaxia/internal/adapter/news"
	"github.com/couchcryptid/galaxia/internal/adapter/spacex"
	"github.com/couchcryptid/galaxia/internal/config"
	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/observability"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// phase tracks pass/fail for one resource.
type phase struct {
	group  string
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type checker struct {
	cfg     *config.Config
	opts    []fetch.Option
	clients map[string]*upstream.Client
	logger  *slog.Logger
	metrics *observability.Metrics
}

func (c *checker) client(name, baseURL string) *upstream.Client {
	if cl, ok := c.clients[name]; ok {
		return cl
	}
	cl := upstream.NewClient(upstream.Options{
		Name:      name,
		BaseURL:   baseURL,
		Timeout:   c.cfg.UpstreamTimeout,
		RateLimit: c.cfg.UpstreamRateLimit,
		Burst:     c.cfg.UpstreamRateBurst,
	}, c.metrics, c.logger)
	c.clients[name] = cl
	return cl
}

// fetchOnce runs d through a fresh cell and records a failure on p.
func fetchOnce[T any](ctx context.Context, c *checker, p *phase, r upstream.Requester, d fetch.Descriptor[T]) (T, bool) {
	cell := fetch.NewCell(r, d, c.opts...)
	defer cell.Close()
	st := cell.Fetch(ctx)
	switch {
	case st.Status != fetch.StatusReady:
		p.errorf("%s: %v", st.Message, st.Err)
		return st.Data, false
	case st.Placeholder:
		p.errorf("%s: served placeholder data", d.Source)
		return st.Data, false
	}
	return st.Data, true
}

func run(ctx context.Context, cfg *config.Config, only map[string]bool, out io.Writer, logger *slog.Logger, metrics *observability.Metrics) int {
	c := &checker{
		cfg:     cfg,
		opts:    []fetch.Option{fetch.WithLogger(logger), fetch.WithMetrics(metrics)},
		clients: make(map[string]*upstream.Client),
		logger:  logger,
		metrics: metrics,
	}

	fmt.Fprintln(out, "=== Upstream Feed Check ===")
	fmt.Fprintln(out)

	var phases []*phase
	for _, chk := range c.checks() {
		if only != nil && !only[chk.group] {
			continue
		}
		p := &phase{group: chk.group, name: chk.name}
		chk.run(ctx, p)
		phases = append(phases, p)
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-8s %-34s %s\n", p.group, p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	switch {
	case len(phases) == 0:
		fmt.Fprintln(out, "\nNo checks selected.")
		return 2
	case allPassed:
		fmt.Fprintln(out, "\nAll checks passed.")
		return 0
	default:
		fmt.Fprintln(out, "\nFeed check FAILED.")
		return 1
	}
}

type check struct {
	group string
	name  string
	run   func(ctx context.Context, p *phase)
}

func (c *checker) checks() []check {
	sx := func() *upstream.Client { return c.client("spacex", c.cfg.SpaceXBaseURL) }
	ns := func() *upstream.Client { return c.client("nasa", c.cfg.NASABaseURL) }
	gen := func() *genai.Client {
		return genai.NewClient(c.client("gemini", c.cfg.GeminiBaseURL), c.cfg.GeminiModel, c.cfg.GeminiAPIKey)
	}

	return []check{
		{"spacex", "latest launch", func(ctx context.Context, p *phase) {
			if l, ok := fetchOnce(ctx, c, p, sx(), spacex.LatestLaunch()); ok && l.ID == "" {
				p.errorf("latest launch has no id")
			}
		}},
		{"spacex", "next launch", func(ctx context.Context, p *phase) {
			if l, ok := fetchOnce(ctx, c, p, sx(), spacex.NextLaunch()); ok && l.Outcome != domain.OutcomeUpcoming {
				p.errorf("next launch outcome is %q", l.Outcome)
			}
		}},
		{"spacex", "payloads", func(ctx context.Context, p *phase) {
			if ps, ok := fetchOnce(ctx, c, p, sx(), spacex.Payloads(spacex.DashboardPayloads)); ok && len(ps) == 0 {
				p.errorf("no payloads returned")
			}
		}},
		{"spacex", "launchpads", func(ctx context.Context, p *phase) {
			pads, ok := fetchOnce(ctx, c, p, sx(), spacex.Launchpads())
			if !ok || len(pads) == 0 {
				if ok {
					p.errorf("no launchpads returned")
				}
				return
			}
			fetchOnce(ctx, c, p, sx(), spacex.Launchpad(pads[0].ID))
		}},
		{"nasa", "astronomy picture of the day", func(ctx context.Context, p *phase) {
			if a, ok := fetchOnce(ctx, c, p, ns(), nasa.APOD(c.cfg.NASAAPIKey)); ok && a.URL == "" {
				p.errorf("apod has no url")
			}
		}},
		{"nasa", "near earth objects", func(ctx context.Context, p *phase) {
			feed, ok := fetchOnce(ctx, c, p, ns(), nasa.NEOFeed(c.cfg.NASAAPIKey, domain.RangeQuery{}))
			if !ok {
				return
			}
			seen := make(map[string]bool, len(feed.Objects))
			for _, o := range feed.Objects {
				if seen[o.ID] {
					p.errorf("object %s listed twice", o.ID)
				}
				seen[o.ID] = true
			}
		}},
		{"nasa", "coronal mass ejections", func(ctx context.Context, p *phase) {
			fetchOnce(ctx, c, p, ns(), nasa.CME(c.cfg.NASAAPIKey, domain.RangeQuery{}))
		}},
		{"iss", "position", func(ctx context.Context, p *phase) {
			pos, ok := fetchOnce(ctx, c, p, c.client("open-notify", c.cfg.OpenNotifyBaseURL), iss.Position())
			if !ok {
				return
			}
			if pos.Lat < -90 || pos.Lat > 90 || pos.Lon < -180 || pos.Lon > 180 {
				p.errorf("position out of range: %v,%v", pos.Lat, pos.Lon)
				return
			}
			fetchOnce(ctx, c, p, c.client("geocode", c.cfg.GeocodeBaseURL), geocode.Reverse(c.cfg.GeocodeAPIKey, pos.Lat, pos.Lon))
		}},
		{"iss", "astronauts", func(ctx context.Context, p *phase) {
			fetchOnce(ctx, c, p, c.client("open-notify", c.cfg.OpenNotifyBaseURL), iss.Astronauts())
		}},
		{"iss", "telemetry", func(ctx context.Context, p *phase) {
			fetchOnce(ctx, c, p, c.client("wheretheiss", c.cfg.WhereTheISSBaseURL), iss.Telemetry())
		}},
		{"iss", "ground track", func(ctx context.Context, p *phase) {
			if path, ok := fetchOnce(ctx, c, p, c.client("wheretheiss", c.cfg.WhereTheISSBaseURL), iss.Path()); ok && len(path) == 0 {
				p.errorf("empty ground track")
			}
		}},
		{"news", "articles", func(ctx context.Context, p *phase) {
			arts, ok := fetchOnce(ctx, c, p, c.client("news", c.cfg.NewsBaseURL), news.Articles(domain.DefaultArticleLimit))
			if ok && len(arts) > domain.DefaultArticleLimit {
				p.errorf("got %d articles, asked for %d", len(arts), domain.DefaultArticleLimit)
			}
		}},
		{"gemini", "recent events", func(ctx context.Context, p *phase) {
			g := gen()
			fetchOnce(ctx, c, p, g, g.RecentEvents())
		}},
		{"gemini", "text generation", func(ctx context.Context, p *phase) {
			g := gen()
			if text, ok := fetchOnce(ctx, c, p, g, g.Text("gemini text", "Name one planet of the solar system.")); ok && text == "" {
				p.errorf("empty reply")
			}
		}},
		{"impact", "impact prediction", func(ctx context.Context, p *phase) {
			d := impact.Predict(domain.DefaultOrbitalParameters())
			fetchOnce(ctx, c, p, c.client("impact", c.cfg.ImpactModelURL), d)
		}},
	}
}
