package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all settings for both the batch run and the service mode,
// populated from environment variables.
type Config struct {
	InputDir       string
	OutputDir      string
	LocationHint   string // appended to geocoding queries, e.g. "Bristol PA"
	ClassTolerance int    // max |light+heavy-total| per cell before a run aborts

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Google geocoding configuration.
	GeocodeAPIKey    string
	GeocodeEnabled   bool
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// Kafka detail-row sink configuration.
	KafkaBrokers     []string
	KafkaDetailTopic string
	KafkaEnabled     bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is merged in first so
// local runs need no exported shell state.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	tolerance, err := parseClassTolerance()
	if err != nil {
		return nil, err
	}

	geocodeKey := os.Getenv("GEOCODE_API_KEY")
	geocodeEnabled := geocodeKey != ""
	if v := os.Getenv("GEOCODE_ENABLED"); v != "" {
		geocodeEnabled = v == "true"
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"

	cfg := &Config{
		InputDir:       envOrDefault("INPUT_DIR", "./data"),
		OutputDir:      envOrDefault("OUTPUT_DIR", "./output"),
		LocationHint:   os.Getenv("LOCATION_HINT"),
		ClassTolerance: tolerance,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeocodeAPIKey:    geocodeKey,
		GeocodeEnabled:   geocodeEnabled,
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: parseGeocodeCacheSize(),

		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaDetailTopic: envOrDefault("KAFKA_DETAIL_TOPIC", "tmc-detail-rows"),
		KafkaEnabled:     kafkaEnabled,
	}

	if cfg.GeocodeEnabled && cfg.GeocodeAPIKey == "" {
		return nil, errors.New("GEOCODE_ENABLED is true but GEOCODE_API_KEY is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaDetailTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_DETAIL_TOPIC is empty")
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseClassTolerance() (int, error) {
	s := os.Getenv("CLASS_TOLERANCE")
	if s == "" {
		return 10, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid CLASS_TOLERANCE")
	}
	return n, nil
}

func parseGeocodeCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
