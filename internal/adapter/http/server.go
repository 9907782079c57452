// Package http exposes the service over HTTP: the JSON API under /api/v1,
// the live ISS stream, and the health and metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/galaxia/internal/adapter/genai"
	"github.com/couchcryptid/galaxia/internal/chat"
	"github.com/couchcryptid/galaxia/internal/dashboard"
	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/observability"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// Snapshotter returns the latest ISS state.
type Snapshotter interface {
	Snapshot() (domain.ISSState, bool)
}

// Deps are the collaborators the handlers read from.
type Deps struct {
	SpaceX     upstream.Requester
	NASA       upstream.Requester
	OpenNotify upstream.Requester
	News       upstream.Requester
	Impact     upstream.Requester
	Generator  *genai.Client
	NASAAPIKey string

	Dashboard *dashboard.Builder
	Tracker   Snapshotter
	Sessions  *chat.Sessions
	Live      http.Handler
	Ready     sharedobs.ReadinessChecker
}

// Options configure the HTTP surface.
type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	ChatRateLimit      int // requests per minute per client IP
}

// Server serves the API.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with every route mounted.
func NewServer(opts Options, deps Deps, logger *slog.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		deps:    deps,
		logger:  logger,
		metrics: metrics,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(deps.Ready))
	r.Handle("/metrics", promhttp.Handler())
	if deps.Live != nil {
		r.Get("/ws/iss", deps.Live.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)

		r.Get("/launches/latest", s.handleLatestLaunch)
		r.Get("/launches/next", s.handleNextLaunch)
		r.Get("/launches/{id}", s.handleLaunch)
		r.Get("/payloads", s.handlePayloads)
		r.Get("/payloads/{id}", s.handlePayload)
		r.Get("/launchpads", s.handleLaunchpads)
		r.Get("/launchpads/{id}", s.handleLaunchpad)

		r.Get("/apod", s.handleAPOD)
		r.Get("/neo", s.handleNEO)
		r.Get("/cme", s.handleCME)

		r.Get("/iss", s.handleISS)
		r.Get("/iss/astronauts", s.handleAstronauts)
		r.Get("/iss/facts", s.handleISSFacts)
		r.Get("/iss/modules", s.handleISSModules)

		r.Get("/news", s.handleNews)
		r.Get("/events/recent", s.handleRecentEvents)
		r.Get("/planets", s.handlePlanets)

		r.Post("/impact/predict", s.handlePredict)

		r.Route("/chat/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.With(httprate.LimitByIP(opts.ChatRateLimit, time.Minute)).
				Post("/{id}/messages", s.handleChatMessage)
		})
	})

	s.httpServer = &http.Server{
		Addr:        opts.Addr,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// Generated answers can take longer than a plain upstream read.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) cellOptions() []fetch.Option {
	return []fetch.Option{fetch.WithLogger(s.logger), fetch.WithMetrics(s.metrics)}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
