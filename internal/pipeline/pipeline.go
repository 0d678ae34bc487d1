// Package pipeline orchestrates a batch run: discover survey workbooks,
// aggregate each site concurrently, reconcile the network peaks, and emit
// the report artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/tmc-data-etl/internal/archive"
	"github.com/couchcryptid/tmc-data-etl/internal/config"
	"github.com/couchcryptid/tmc-data-etl/internal/domain"
	"github.com/couchcryptid/tmc-data-etl/internal/observability"
)

// siteWorkers caps the number of workbooks read and aggregated at once.
const siteWorkers = 4

// WorkbookReader loads one survey workbook off disk.
type WorkbookReader interface {
	ReadWorkbook(path string) (*domain.Survey, error)
}

// ReportWriter renders the consolidated report workbook.
type ReportWriter interface {
	WriteReport(path string, r *domain.Report) error
}

// DetailSink receives the report's detail rows, e.g. a Kafka topic.
type DetailSink interface {
	PublishDetail(ctx context.Context, rows []domain.DetailRow) error
}

// Result holds the artifact paths of a completed run.
type Result struct {
	Report      *domain.Report
	ReportPath  string
	GeoJSONPath string // empty when no site was geocoded
	ArchivePath string
}

// GeoJSONWriter renders geocoded site locations.
type GeoJSONWriter func(path string, r *domain.Report) error

// Pipeline wires the batch stages together. Geocoder and sink are
// optional; nil disables the corresponding stage.
type Pipeline struct {
	cfg      *config.Config
	reader   WorkbookReader
	writer   ReportWriter
	geojson  GeoJSONWriter
	geocoder domain.Geocoder
	sink     DetailSink
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(cfg *config.Config, reader WorkbookReader, writer ReportWriter, geojson GeoJSONWriter,
	geocoder domain.Geocoder, sink DetailSink, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		reader:   reader,
		writer:   writer,
		geojson:  geojson,
		geocoder: geocoder,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run executes one complete batch. Per-site recoverable conditions are
// carried in the report; a fatal error on any site aborts the whole run,
// since a partial network reconciliation would be misleading.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)

	files, err := DiscoverFiles(p.cfg.InputDir, p.logger)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no survey workbooks found in %s", p.cfg.InputDir)
	}
	p.logger.Info("batch started", "workbooks", len(files))

	sites, err := p.aggregateSites(ctx, files)
	if err != nil {
		return nil, err
	}

	if p.geocoder != nil {
		for _, site := range sites {
			domain.EnrichWithGeocoding(ctx, site, p.cfg.LocationHint, p.geocoder, p.logger)
		}
	}

	report, err := domain.BuildReport(sites[0].Meta.Date, sites)
	if err != nil {
		return nil, err
	}
	for _, site := range sites {
		for _, w := range site.Warnings {
			p.metrics.SiteWarnings.WithLabelValues(string(w.Kind)).Inc()
		}
	}

	result, err := p.writeArtifacts(report)
	if err != nil {
		return nil, err
	}

	if p.sink != nil {
		if err := p.sink.PublishDetail(ctx, report.Detail); err != nil {
			return nil, err
		}
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("batch complete",
		"sites", len(sites),
		"report", result.ReportPath,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return result, nil
}

// aggregateSites reads and aggregates every workbook with a bounded worker
// pool, then orders the surviving sites by location ID so downstream output
// is deterministic regardless of which worker finished first.
func (p *Pipeline) aggregateSites(ctx context.Context, files []string) ([]*domain.Site, error) {
	var mu sync.Mutex
	sites := make([]*domain.Site, 0, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(siteWorkers)

	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			site, err := p.aggregateSite(file)
			if err != nil {
				p.metrics.WorkbooksFailed.Inc()
				return err
			}

			mu.Lock()
			sites = append(sites, site)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(sites, func(i, j int) bool {
		return sites[i].Meta.LocationID < sites[j].Meta.LocationID
	})
	return sites, nil
}

func (p *Pipeline) aggregateSite(file string) (*domain.Site, error) {
	start := time.Now()
	p.logger.Info("reading workbook", "file", filepath.Base(file))

	survey, err := p.reader.ReadWorkbook(file)
	if err != nil {
		return nil, err
	}

	site, err := domain.NewSite(survey.Meta, survey.Light, survey.Heavy, survey.Total, p.cfg.ClassTolerance)
	if err != nil {
		return nil, err
	}

	p.metrics.WorkbooksProcessed.Inc()
	p.metrics.SiteDuration.Observe(time.Since(start).Seconds())
	return site, nil
}

// writeArtifacts emits the report workbook, the optional GeoJSON, and the
// zip bundling whatever was produced. File names carry the generation
// timestamp so successive runs never clobber each other.
func (p *Pipeline) writeArtifacts(report *domain.Report) (*Result, error) {
	stamp := report.GeneratedAt

	result := &Result{
		Report:     report,
		ReportPath: filepath.Join(p.cfg.OutputDir, "TMC Summary "+stamp.Format("2006-01-02 15-04-05")+".xlsx"),
	}
	if err := p.writer.WriteReport(result.ReportPath, report); err != nil {
		return nil, err
	}

	bundle := []string{result.ReportPath}

	if anyGeocoded(report) {
		result.GeoJSONPath = filepath.Join(p.cfg.OutputDir, "tmc_locations_"+stamp.Format("2006_01_02_15_04_05")+".geojson")
		if err := p.geojson(result.GeoJSONPath, report); err != nil {
			return nil, err
		}
		bundle = append(bundle, result.GeoJSONPath)
	}

	result.ArchivePath = filepath.Join(p.cfg.OutputDir, "tmc_summary_"+stamp.Format("2006_01_02_15_04_05")+".zip")
	if err := archive.ZipFiles(result.ArchivePath, bundle); err != nil {
		return nil, err
	}

	return result, nil
}

func anyGeocoded(report *domain.Report) bool {
	for _, site := range report.Sites {
		if site.Geo != nil {
			return true
		}
	}
	return false
}
