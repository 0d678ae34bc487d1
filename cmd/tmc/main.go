// Command tmc runs one traffic-count aggregation batch: it reads every
// survey workbook in the input folder, reconciles the network peak hours,
// and writes the summary workbook, GeoJSON, and zip bundle to the output
// folder.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/tmc-data-etl/internal/adapter/geocode"
	"github.com/couchcryptid/tmc-data-etl/internal/adapter/geojson"
	kafkaadapter "github.com/couchcryptid/tmc-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/tmc-data-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/tmc-data-etl/internal/config"
	"github.com/couchcryptid/tmc-data-etl/internal/domain"
	"github.com/couchcryptid/tmc-data-etl/internal/observability"
	"github.com/couchcryptid/tmc-data-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
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
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, metrics, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sink = writer
		logger.Info("kafka detail sink enabled", "topic", cfg.KafkaDetailTopic)
	}

	p := pipeline.New(cfg, xlsx.Reader{}, xlsx.Writer{}, geojson.WriteFile, geocoder, sink, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("batch artifacts written",
		"report", result.ReportPath,
		"geojson", result.GeoJSONPath,
		"archive", result.ArchivePath,
	)
	return nil
}
