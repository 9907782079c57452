package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/galaxia/internal/adapter/genai"
	"github.com/couchcryptid/galaxia/internal/adapter/geocode"
	httpadapter "github.com/couchcryptid/galaxia/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/galaxia/internal/adapter/kafka"
	"github.com/couchcryptid/galaxia/internal/adapter/websocket"
	"github.com/couchcryptid/galaxia/internal/chat"
	"github.com/couchcryptid/galaxia/internal/config"
	"github.com/couchcryptid/galaxia/internal/dashboard"
	"github.com/couchcryptid/galaxia/internal/observability"
	"github.com/couchcryptid/galaxia/internal/tracker"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := func(name, baseURL string) *upstream.Client {
		return upstream.NewClient(upstream.Options{
			Name:      name,
			BaseURL:   baseURL,
			Timeout:   cfg.UpstreamTimeout,
			RateLimit: cfg.UpstreamRateLimit,
			Burst:     cfg.UpstreamRateBurst,
		}, metrics, logger)
	}
	spacexClient := client("spacex", cfg.SpaceXBaseURL)
	nasaClient := client("nasa", cfg.NASABaseURL)
	openNotify := client("open-notify", cfg.OpenNotifyBaseURL)
	newsClient := client("news", cfg.NewsBaseURL)
	impactClient := client("impact", cfg.ImpactModelURL)
	geocoder := geocode.NewCachedRequester(client("geocode", cfg.GeocodeBaseURL), cfg.GeocodeCacheSize, metrics)
	gemini := genai.NewClient(client("gemini", cfg.GeminiBaseURL), cfg.GeminiModel, cfg.GeminiAPIKey)
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, generated content will use fallbacks")
	}

	relevance, err := chat.LoadRelevanceFilter(cfg.ChatVocabularyPath)
	if err != nil {
		logger.Error("failed to load chat vocabulary", "error", err)
		os.Exit(1)
	}
	sessions := chat.NewSessions(cfg.ChatMaxSessions, func() *chat.Assistant {
		return chat.NewAssistant(gemini, relevance, chat.WithMetrics(metrics), chat.WithLogger(logger))
	})

	hub := websocket.NewHub(cfg.CORSAllowedOrigins, logger, metrics)
	sinks := []tracker.Sink{{Name: "websocket", Loader: hub}}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, tracker.Sink{Name: "kafka", Loader: writer})
		logger.Info("kafka telemetry enabled", "topic", cfg.KafkaTelemetryTopic)
	}

	t := tracker.New(tracker.Requesters{
		OpenNotify:  openNotify,
		WhereTheISS: client("wheretheiss", cfg.WhereTheISSBaseURL),
		Geocode:     geocoder,
	}, tracker.Config{
		ISSInterval:     cfg.ISSPollInterval,
		GeocodeInterval: cfg.GeocodePollInterval,
		GeocodeAPIKey:   cfg.GeocodeAPIKey,
	}, sinks, logger, metrics)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:               cfg.HTTPAddr,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatRateLimit:      cfg.ChatRateLimit,
	}, httpadapter.Deps{
		SpaceX:     spacexClient,
		NASA:       nasaClient,
		OpenNotify: openNotify,
		News:       newsClient,
		Impact:     impactClient,
		Generator:  gemini,
		NASAAPIKey: cfg.NASAAPIKey,
		Dashboard: dashboard.NewBuilder(dashboard.Sources{
			SpaceX:     spacexClient,
			NASA:       nasaClient,
			News:       newsClient,
			Generator:  gemini,
			NASAAPIKey: cfg.NASAAPIKey,
		}, logger, metrics),
		Tracker:  t,
		Sessions: sessions,
		Live:     hub,
		Ready:    t,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start ISS tracker.
	trackerDone := make(chan struct{})
	go func() {
		defer close(trackerDone)
		if err := t.Run(ctx); err != nil {
			logger.Error("tracker error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	select {
	case <-trackerDone:
	case <-shutdownCtx.Done():
		logger.Warn("tracker did not stop before shutdown deadline")
	}
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
