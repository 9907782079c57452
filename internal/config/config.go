package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Outbound HTTP behaviour shared by every upstream client.
	UpstreamTimeout   time.Duration
	UpstreamRateLimit float64
	UpstreamRateBurst int

	// Upstream collaborators.
	SpaceXBaseURL      string
	NASABaseURL        string
	NASAAPIKey         string
	OpenNotifyBaseURL  string
	WhereTheISSBaseURL string
	GeocodeBaseURL     string
	GeocodeAPIKey      string
	GeocodeCacheSize   int
	NewsBaseURL        string
	GeminiBaseURL      string
	GeminiAPIKey       string
	GeminiModel        string
	ImpactModelURL     string

	// ISS tracker polling.
	ISSPollInterval     time.Duration
	GeocodePollInterval time.Duration

	// Chat assistant.
	ChatVocabularyPath string
	ChatMaxSessions    int
	ChatRateLimit      int

	CORSAllowedOrigins []string

	// Kafka telemetry sink.
	KafkaEnabled        bool
	KafkaBrokers        []string
	KafkaTelemetryTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	issInterval, err := parseDuration("ISS_POLL_INTERVAL", "4s")
	if err != nil {
		return nil, err
	}
	geocodeInterval, err := parseDuration("GEOCODE_POLL_INTERVAL", "17s")
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("UPSTREAM_RATE_LIMIT", "5"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid UPSTREAM_RATE_LIMIT")
	}
	rateBurst, err := parsePositiveInt("UPSTREAM_RATE_BURST", 10)
	if err != nil {
		return nil, err
	}
	chatRateLimit, err := parsePositiveInt("CHAT_RATE_LIMIT", 20)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	maxSessions, err := parsePositiveInt("CHAT_MAX_SESSIONS", 500)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"
	var kafkaBrokers []string
	if s := os.Getenv("KAFKA_BROKERS"); s != "" {
		kafkaBrokers = sharedcfg.ParseBrokers(s)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		UpstreamTimeout:   upstreamTimeout,
		UpstreamRateLimit: rateLimit,
		UpstreamRateBurst: rateBurst,

		SpaceXBaseURL:      sharedcfg.EnvOrDefault("SPACEX_BASE_URL", "https://api.spacexdata.com/v4"),
		NASABaseURL:        sharedcfg.EnvOrDefault("NASA_BASE_URL", "https://api.nasa.gov"),
		NASAAPIKey:         sharedcfg.EnvOrDefault("NASA_API_KEY", "DEMO_KEY"),
		OpenNotifyBaseURL:  sharedcfg.EnvOrDefault("OPEN_NOTIFY_BASE_URL", "http://api.open-notify.org"),
		WhereTheISSBaseURL: sharedcfg.EnvOrDefault("WHERE_THE_ISS_BASE_URL", "https://api.wheretheiss.at/v1"),
		GeocodeBaseURL:     sharedcfg.EnvOrDefault("GEOCODE_BASE_URL", "https://geocode.maps.co"),
		GeocodeAPIKey:      os.Getenv("GEOCODE_API_KEY"),
		GeocodeCacheSize:   cacheSize,
		NewsBaseURL:        sharedcfg.EnvOrDefault("NEWS_BASE_URL", "https://api.spaceflightnewsapi.net/v4"),
		GeminiBaseURL:      sharedcfg.EnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		ImpactModelURL:     sharedcfg.EnvOrDefault("IMPACT_MODEL_URL", "https://galaxia-2430.onrender.com"),

		ISSPollInterval:     issInterval,
		GeocodePollInterval: geocodeInterval,

		ChatVocabularyPath: os.Getenv("CHAT_VOCABULARY_PATH"),
		ChatMaxSessions:    maxSessions,
		ChatRateLimit:      chatRateLimit,

		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		KafkaEnabled:        kafkaEnabled,
		KafkaBrokers:        kafkaBrokers,
		KafkaTelemetryTopic: sharedcfg.EnvOrDefault("KAFKA_TELEMETRY_TOPIC", "iss-telemetry"),
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTelemetryTopic == "" {
		return nil, errors.New("KAFKA_TELEMETRY_TOPIC is required")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
