package domain

import (
	"fmt"
	"time"
)

// DetailRowKind distinguishes the two metric rows written per site and
// day part.
type DetailRowKind string

const (
	DetailTotals       DetailRowKind = "totals"
	DetailPercentHeavy DetailRowKind = "pct heavy"
)

// SummaryRow is one site's line on the report summary sheet.
type SummaryRow struct {
	LocationID string  `json:"location_id"`
	Name       string  `json:"name"`
	AMPeak     string  `json:"am_peak"`
	PMPeak     string  `json:"pm_peak"`
	AMFactor   float64 `json:"am_phf"`
	PMFactor   float64 `json:"pm_phf"`
	Geo        *Geo    `json:"geo,omitempty"`
	Warnings   string  `json:"warnings,omitempty"`
}

// DetailRow is one site's metrics over a network peak window: either the
// summed counts or the percent-heavy shares, one value per canonical
// column.
type DetailRow struct {
	LocationID string             `json:"location_id"`
	Name       string             `json:"name"`
	DayPart    DayPart            `json:"day_part"`
	Kind       DetailRowKind      `json:"kind"`
	Window     string             `json:"window"`
	Values     map[string]float64 `json:"values"`
	Volume     int                `json:"volume"`
	PHF        float64            `json:"phf"`
}

// Report is the assembled output of one batch: the reconciled network
// windows, per-site summary lines, and the detail metric rows computed
// against the shared windows.
type Report struct {
	Date         time.Time
	NetworkPeaks map[DayPart]NetworkPeak
	Sites        []*Site
	Summary      []SummaryRow
	Detail       []DetailRow
	GeneratedAt  time.Time
}

// BuildReport reconciles the network peaks across all sites and derives
// the summary and detail rows. Detail metrics are re-aggregated over the
// shared network window, not each site's own peak, so rows compare like
// for like across the batch. The shared window is a time of day: each
// site is sliced on its own survey date, so batches spanning several
// collection days still produce real counts. A day part in which no site
// found a peak fails the batch.
func BuildReport(date time.Time, sites []*Site) (*Report, error) {
	if len(sites) == 0 {
		return nil, fmt.Errorf("no sites to report")
	}

	r := &Report{
		Date:         date,
		NetworkPeaks: make(map[DayPart]NetworkPeak, len(DayParts)),
		Sites:        sites,
	}

	for _, part := range DayParts {
		var starts []time.Time
		for _, site := range sites {
			if pw, ok := site.Peaks[part]; ok {
				starts = append(starts, pw.Window.Start)
			}
		}
		np, err := ReconcileNetworkPeak(part, date, starts)
		if err != nil {
			return nil, err
		}
		r.NetworkPeaks[part] = np
	}

	for _, site := range sites {
		r.Summary = append(r.Summary, summaryRow(site))
		for _, part := range DayParts {
			w := r.NetworkPeaks[part].Window.OnDate(site.Meta.Date)
			r.Detail = append(r.Detail, detailRows(site, part, w)...)
		}
	}

	r.GeneratedAt = clock.Now()
	return r, nil
}

func summaryRow(site *Site) SummaryRow {
	row := SummaryRow{
		LocationID: site.Meta.LocationID,
		Name:       site.Meta.Name,
		AMPeak:     site.PeakText(AM),
		PMPeak:     site.PeakText(PM),
		Geo:        site.Geo,
		Warnings:   JoinWarnings(site.Warnings),
	}
	if pw, ok := site.Peaks[AM]; ok {
		row.AMFactor = pw.PeakHourFactor
	}
	if pw, ok := site.Peaks[PM]; ok {
		row.PMFactor = pw.PeakHourFactor
	}
	return row
}

func detailRows(site *Site, part DayPart, w Window) []DetailRow {
	totals := SliceTotals(site.Total, site.Light, site.Heavy, w)
	heavy := SliceHeavyPercent(site.Total, site.Light, w)

	return []DetailRow{
		{
			LocationID: site.Meta.LocationID,
			Name:       site.Meta.Name,
			DayPart:    part,
			Kind:       DetailTotals,
			Window:     w.Text(),
			Values:     totals.Values,
			Volume:     totals.Volume,
			PHF:        totals.PeakHourFactor,
		},
		{
			LocationID: site.Meta.LocationID,
			Name:       site.Meta.Name,
			DayPart:    part,
			Kind:       DetailPercentHeavy,
			Window:     w.Text(),
			Values:     heavy.Values,
			PHF:        heavy.PeakHourFactor,
		},
	}
}
