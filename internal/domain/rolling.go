package domain

import "time"

// rollingSpan is the trailing window width; intervalSpan the bin width.
const (
	rollingSpan  = time.Hour
	intervalSpan = 15 * time.Minute
)

// WithRollingHourTotals returns a copy of the series where every row
// carries the trailing 60-minute sum of interval totals: the window
// [t+15m−1h, t+15m), i.e. the row's own quarter hour plus the three before
// it. Rows inside the first 45 minutes sum only the intervals actually
// present — no zero padding. The input series is not mutated.
func WithRollingHourTotals(s SiteSeries) SiteSeries {
	out := s
	out.Rows = make([]IntervalRow, len(s.Rows))
	copy(out.Rows, s.Rows)

	for i := range out.Rows {
		end := out.Rows[i].Timestamp.Add(intervalSpan)
		start := end.Add(-rollingSpan)

		sum := 0
		// Rows are time-ordered, so only look back from i.
		for j := i; j >= 0; j-- {
			ts := out.Rows[j].Timestamp
			if ts.Before(start) {
				break
			}
			if ts.Before(end) {
				sum += out.Rows[j].IntervalTotal
			}
		}
		out.Rows[i].RollingHourTotal = sum
	}

	return out
}

// Window is a half-open time span [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Text renders the window the way the report prints it, e.g.
// "07:00 to 08:00". Reconciled network windows can start on a half-minute
// boundary; seconds are shown only when present so per-site windows stay
// compact.
func (w Window) Text() string {
	layout := "15:04"
	if w.Start.Second() != 0 || w.End.Second() != 0 {
		layout = "15:04:05"
	}
	return w.Start.Format(layout) + " to " + w.End.Format(layout)
}

// Contains reports whether the timestamp falls inside the window.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// OnDate anchors the window's time of day to another calendar date,
// keeping its width. Sites in one batch can be surveyed on different
// days; a shared window is a time of day, not an absolute span.
func (w Window) OnDate(date time.Time) Window {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, w.Start.Location())
	start := midnight.Add(
		time.Duration(w.Start.Hour())*time.Hour +
			time.Duration(w.Start.Minute())*time.Minute +
			time.Duration(w.Start.Second())*time.Second)
	return Window{Start: start, End: start.Add(w.End.Sub(w.Start))}
}

// PeakHourFactor measures demand uniformity inside the window:
//
//	PHF = window volume / (4 × busiest quarter hour in the window)
//
// An all-zero window yields 0 — a defined sentinel, never a division error.
func PeakHourFactor(s SiteSeries, w Window) float64 {
	volume := 0
	maxQuarter := 0
	for _, row := range s.Rows {
		if !w.Contains(row.Timestamp) {
			continue
		}
		volume += row.IntervalTotal
		if row.IntervalTotal > maxQuarter {
			maxQuarter = row.IntervalTotal
		}
	}
	if maxQuarter == 0 {
		return 0
	}
	return float64(volume) / float64(4*maxQuarter)
}

// SumWindow sums every movement column over the window. The returned slice
// parallels the series' data columns; the int is the summed interval total.
func SumWindow(s SiteSeries, w Window) ([]int, int) {
	sums := make([]int, len(s.dataColumns()))
	total := 0
	for _, row := range s.Rows {
		if !w.Contains(row.Timestamp) {
			continue
		}
		for i, v := range row.Counts {
			sums[i] += v
		}
		total += row.IntervalTotal
	}
	return sums, total
}
