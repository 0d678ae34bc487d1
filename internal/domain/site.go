package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SiteMeta holds the Information-tab fields plus the identity parsed from
// the workbook file name.
type SiteMeta struct {
	LocationID string
	Name       string
	City       string
	Legs       map[Direction]string // leg street name per approach
	Date       time.Time            // survey date, midnight local
	StartTime  string               // declared, as written in the tab
	EndTime    string
	SourceFile string
}

// TabData is one data tab as read from the workbook: the two meaningful
// header rows and the raw data rows beneath them.
type TabData struct {
	Level1 []string
	Level2 []string
	Rows   []RawRow
}

// Survey is one workbook as read off disk, not yet aggregated.
type Survey struct {
	Meta  SiteMeta
	Light TabData
	Heavy TabData
	Total TabData
}

// ParseLocationID extracts the numeric location ID prefix from a survey
// file name like "150314_US13BristolPikeCommerceDr.xls". ok is false when
// the name does not follow the convention, which excludes the file from
// the batch.
func ParseLocationID(name string) (string, bool) {
	base := filepath.Base(name)
	idx := strings.Index(base, "_")
	if idx <= 0 {
		return "", false
	}
	id := base[:idx]
	if _, err := strconv.Atoi(id); err != nil {
		return "", false
	}
	return id, true
}

// Site is one intersection's fully-aggregated survey: the three class
// series with rolling totals, the per-site peak windows, and every
// recoverable condition observed on the way.
type Site struct {
	Meta  SiteMeta
	Light SiteSeries
	Heavy SiteSeries
	Total SiteSeries

	// Peaks holds the site's own peak window per day part; a missing key
	// means that day part had no data (already recorded in Warnings).
	Peaks map[DayPart]PeakWindow

	Geo      *Geo // set by geocoding enrichment, nil when disabled or failed
	Warnings []Warning

	ProcessedAt time.Time
}

// NewSite assembles a Site from its tabs: headers are normalized, series
// built and augmented with rolling-hour totals, the light+heavy=total
// invariant checked, and per-site peaks located. Recoverable conditions
// accumulate on the site; only a class mismatch beyond tolerance returns
// an error.
func NewSite(meta SiteMeta, light, heavy, total TabData, tolerance int) (*Site, error) {
	s := &Site{
		Meta:  meta,
		Peaks: make(map[DayPart]PeakWindow, len(DayParts)),
	}

	var err error
	if s.Light, err = s.buildTab(ClassLight, light, meta.Date); err != nil {
		return nil, err
	}
	if s.Heavy, err = s.buildTab(ClassHeavy, heavy, meta.Date); err != nil {
		return nil, err
	}
	if s.Total, err = s.buildTab(ClassTotal, total, meta.Date); err != nil {
		return nil, err
	}

	mismatches, err := CheckClassTotals(s.Light, s.Heavy, s.Total, tolerance)
	s.Warnings = append(s.Warnings, mismatches...)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", meta.LocationID, err)
	}

	for _, part := range DayParts {
		pw, ok := FindPeakWindow(s.Total, part)
		if !ok {
			s.Warnings = append(s.Warnings, Warning{
				Kind:   WarnEmptyDayPart,
				Detail: fmt.Sprintf("no %s intervals; peak skipped", part),
			})
			continue
		}
		if pw.Volume == 0 {
			s.Warnings = append(s.Warnings, Warning{
				Kind:   WarnZeroVolumeWindow,
				Detail: fmt.Sprintf("%s peak window has zero volume", part),
			})
		}
		s.Peaks[part] = pw
	}

	s.ProcessedAt = clock.Now()
	return s, nil
}

func (s *Site) buildTab(class VehicleClass, tab TabData, date time.Time) (SiteSeries, error) {
	cols, headerWarnings := NormalizeHeaders(tab.Level1, tab.Level2)
	s.Warnings = append(s.Warnings, headerWarnings...)

	series, seriesWarnings := BuildSeries(class, cols, tab.Rows, date)
	s.Warnings = append(s.Warnings, seriesWarnings...)

	if len(series.Rows) == 0 {
		return SiteSeries{}, fmt.Errorf("site %s: %s tab has no data rows", s.Meta.LocationID, class)
	}

	return WithRollingHourTotals(series), nil
}

// PeakText renders the site's own peak window for the summary sheet, or a
// dash when the day part never ran.
func (s *Site) PeakText(part DayPart) string {
	pw, ok := s.Peaks[part]
	if !ok {
		return "-"
	}
	return pw.Window.Text()
}

// EnrichWithGeocoding resolves the site's location to coordinates. The
// helper text (e.g. "Bristol PA") is appended to the intersection name for
// precision. A nil geocoder disables enrichment; a failure degrades to a
// flagged site, never an error.
func EnrichWithGeocoding(ctx context.Context, site *Site, helper string, geocoder Geocoder, logger *slog.Logger) {
	if geocoder == nil {
		return
	}

	query := site.Meta.Name
	if helper != "" {
		query += ", " + helper
	}

	result, err := geocoder.Geocode(ctx, query)
	if err != nil {
		logger.Warn("geocoding failed",
			"location_id", site.Meta.LocationID,
			"query", query,
			"error", err,
		)
		site.Warnings = append(site.Warnings, Warning{
			Kind:   WarnGeocodeFailed,
			Detail: fmt.Sprintf("%q: %v", query, err),
		})
		return
	}

	geo := result.Geo
	site.Geo = &geo
}
