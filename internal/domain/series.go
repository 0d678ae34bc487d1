package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// VehicleClass identifies which data tab a series came from.
type VehicleClass string

const (
	ClassLight VehicleClass = "light"
	ClassHeavy VehicleClass = "heavy"
	ClassTotal VehicleClass = "total"
)

// RawTime is the unresolved time cell of a raw row: either a native
// spreadsheet time (a day-fraction serial) or free text like "7:15".
// Exactly one variant is meaningful, selected by IsSerial.
type RawTime struct {
	Serial   float64 // day fraction, e.g. 0.3125 = 07:30
	Text     string
	IsSerial bool
}

// textTimeLayouts are the accepted free-text forms, tried in order.
var textTimeLayouts = []string{"15:04:05", "15:04", "3:04 PM", "3:04:05 PM"}

// Resolve combines the time-of-day value with the survey date. The serial
// variant takes precedence; text is parsed against the accepted layouts.
func (rt RawTime) Resolve(date time.Time) (time.Time, error) {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	if rt.IsSerial {
		if rt.Serial < 0 || rt.Serial >= 1 {
			return time.Time{}, fmt.Errorf("time serial %v outside [0,1)", rt.Serial)
		}
		secs := math.Round(rt.Serial * 24 * 3600)
		return midnight.Add(time.Duration(secs) * time.Second), nil
	}

	text := strings.TrimSpace(rt.Text)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty time cell")
	}
	for _, layout := range textTimeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return midnight.Add(
				time.Duration(t.Hour())*time.Hour +
					time.Duration(t.Minute())*time.Minute +
					time.Duration(t.Second())*time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", text)
}

// RawRow is one unprocessed spreadsheet row: the time cell plus the raw
// cell text of every data column, parallel to the normalized columns.
type RawRow struct {
	Time  RawTime
	Cells []string
}

// IntervalRow is one 15-minute observation. Counts parallels the series'
// Columns. IntervalTotal and RollingHourTotal are derived during
// aggregation; everything else is immutable after load.
type IntervalRow struct {
	Timestamp        time.Time
	Counts           []int
	IntervalTotal    int
	RollingHourTotal int
}

// SiteSeries is the ordered, time-indexed count table for one intersection
// and one vehicle class.
type SiteSeries struct {
	Class   VehicleClass
	Columns []Column
	Rows    []IntervalRow
}

// ColumnIndex returns the position of the named column in Counts, or -1.
func (s SiteSeries) ColumnIndex(name string) int {
	for i, c := range s.dataColumns() {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// dataColumns returns the columns excluding the time column, matching the
// layout of IntervalRow.Counts.
func (s SiteSeries) dataColumns() []Column {
	cols := make([]Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		if !c.IsTime {
			cols = append(cols, c)
		}
	}
	return cols
}

// BuildSeries produces a clean time-indexed series from raw rows: times are
// resolved against the survey date, noise rows (blank, footer, summary) are
// dropped, rows are sorted by timestamp, and duplicates are dropped with a
// warning (first occurrence wins). Each surviving row gets its interval
// total, summed over every movement column regardless of order.
func BuildSeries(class VehicleClass, cols []Column, raws []RawRow, date time.Time) (SiteSeries, []Warning) {
	data := make([]Column, 0, len(cols))
	for _, c := range cols {
		if !c.IsTime {
			data = append(data, c)
		}
	}

	series := SiteSeries{Class: class, Columns: cols}
	var warnings []Warning

	for _, raw := range raws {
		if blankRow(raw) {
			continue
		}

		ts, err := raw.Time.Resolve(date)
		if err != nil {
			warnings = append(warnings, Warning{
				Kind:   WarnBadTime,
				Detail: fmt.Sprintf("%s tab: dropped row: %v", class, err),
			})
			continue
		}

		counts, ok := parseCounts(raw.Cells, len(data))
		if !ok {
			// Non-numeric cells mark footer/summary rows, not data.
			continue
		}

		total := 0
		for _, v := range counts {
			total += v
		}

		series.Rows = append(series.Rows, IntervalRow{
			Timestamp:     ts,
			Counts:        counts,
			IntervalTotal: total,
		})
	}

	sort.SliceStable(series.Rows, func(i, j int) bool {
		return series.Rows[i].Timestamp.Before(series.Rows[j].Timestamp)
	})

	deduped := series.Rows[:0]
	for i, row := range series.Rows {
		if i > 0 && row.Timestamp.Equal(series.Rows[i-1].Timestamp) {
			warnings = append(warnings, Warning{
				Kind:   WarnDuplicateTimestamp,
				Detail: fmt.Sprintf("%s tab: duplicate interval %s dropped", class, row.Timestamp.Format("15:04")),
			})
			continue
		}
		deduped = append(deduped, row)
	}
	series.Rows = deduped

	return series, warnings
}

func blankRow(raw RawRow) bool {
	if raw.Time.IsSerial || strings.TrimSpace(raw.Time.Text) != "" {
		return false
	}
	for _, c := range raw.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseCounts converts raw cell text into non-negative counts. Any cell
// that is blank, non-numeric, or negative disqualifies the whole row.
func parseCounts(cells []string, width int) ([]int, bool) {
	counts := make([]int, width)
	for i := 0; i < width; i++ {
		var text string
		if i < len(cells) {
			text = strings.TrimSpace(cells[i])
		}
		if text == "" {
			return nil, false
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || v < 0 {
			return nil, false
		}
		counts[i] = int(math.Round(v))
	}
	return counts, true
}

// CheckClassTotals verifies the light + heavy = total invariant per vehicle
// movement per timestamp. Source tabs are collected independently, so small
// mismatches happen and are surfaced as warnings — never silently
// corrected. A mismatch beyond tolerance means the tabs describe different
// surveys and aborts the batch.
func CheckClassTotals(light, heavy, total SiteSeries, tolerance int) ([]Warning, error) {
	var warnings []Warning

	heavyByTS := rowsByTimestamp(heavy)
	totalByTS := rowsByTimestamp(total)

	for _, lr := range light.Rows {
		hr, ok := heavyByTS[lr.Timestamp]
		if !ok {
			continue
		}
		tr, ok := totalByTS[lr.Timestamp]
		if !ok {
			continue
		}

		for _, col := range total.dataColumns() {
			if !col.Mapped || col.Movement.Crossing() {
				continue
			}
			li := light.ColumnIndex(col.Name)
			hi := heavy.ColumnIndex(col.Name)
			ti := total.ColumnIndex(col.Name)
			if li < 0 || hi < 0 || ti < 0 {
				continue
			}

			diff := lr.Counts[li] + hr.Counts[hi] - tr.Counts[ti]
			if diff == 0 {
				continue
			}
			if abs(diff) > tolerance {
				return warnings, fmt.Errorf(
					"light+heavy diverges from total by %d at %s %s (tolerance %d)",
					diff, lr.Timestamp.Format("15:04"), col.Name, tolerance)
			}
			warnings = append(warnings, Warning{
				Kind:   WarnClassMismatch,
				Detail: fmt.Sprintf("%s at %s: light+heavy differs from total by %d", col.Name, lr.Timestamp.Format("15:04"), diff),
			})
		}
	}

	return warnings, nil
}

func rowsByTimestamp(s SiteSeries) map[time.Time]IntervalRow {
	m := make(map[time.Time]IntervalRow, len(s.Rows))
	for _, r := range s.Rows {
		m[r.Timestamp] = r
	}
	return m
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
