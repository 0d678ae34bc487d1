// Command serve runs the aggregation pipeline as a long-lived service:
// batches are triggered over HTTP (POST /runs) and the process exposes
// health, readiness, and Prometheus metrics endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/tmc-data-etl/internal/adapter/geocode"
	"github.com/couchcryptid/tmc-data-etl/internal/adapter/geojson"
	"github.com/couchcryptid/tmc-data-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/tmc-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/tmc-data-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/tmc-data-etl/internal/config"
	"github.com/couchcryptid/tmc-data-etl/internal/domain"
	"github.com/couchcryptid/tmc-data-etl/internal/observability"
	"github.com/couchcryptid/tmc-data-etl/internal/pipeline"
)

// inputDirReadiness reports ready once the input folder exists; the
// service can start before the survey drop completes.
type inputDirReadiness struct {
	dir string
}

func (r inputDirReadiness) CheckReadiness(_ context.Context) error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return fmt.Errorf("input folder %s not available: %w", r.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path %s is not a folder", r.dir)
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Geocoding is feature-flagged via GEOCODE_ENABLED / GEOCODE_API_KEY.
	var geocoder domain.Geocoder
	if cfg.GeocodeEnabled {
		client := geocode.NewClient(cfg.GeocodeAPIKey, cfg.GeocodeTimeout, metrics, logger)
		geocoder = geocode.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("geocoding enabled", "cache_size", cfg.GeocodeCacheSize, "timeout", cfg.GeocodeTimeout)
	} else {
		logger.Info("geocoding disabled")
	}

	var sink pipeline.DetailSink
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, metrics, logger)
		sink = kafkaWriter
		logger.Info("kafka detail sink enabled", "topic", cfg.KafkaDetailTopic)
	}

	p := pipeline.New(cfg, xlsx.Reader{}, xlsx.Writer{}, geojson.WriteFile, geocoder, sink, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, inputDirReadiness{dir: cfg.InputDir}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
