package domain

import "time"

// DayPart splits a survey day at noon.
type DayPart string

const (
	AM DayPart = "AM" // strictly before 12:00
	PM DayPart = "PM" // 12:00 or later
)

// DayParts in report order.
var DayParts = []DayPart{AM, PM}

// Contains reports whether the timestamp falls in the day part, relative
// to noon on the timestamp's own date.
func (p DayPart) Contains(ts time.Time) bool {
	noon := time.Date(ts.Year(), ts.Month(), ts.Day(), 12, 0, 0, 0, ts.Location())
	if p == AM {
		return ts.Before(noon)
	}
	return !ts.Before(noon)
}

// PeakWindow is the highest-volume rolling hour within a day part.
type PeakWindow struct {
	DayPart        DayPart
	Window         Window
	Volume         int
	PeakHourFactor float64
}

// FindPeakWindow locates the rolling-hour window with the maximum volume
// inside the day part. The series must already carry rolling-hour totals.
// Ties go to the earliest window (stable-first), so repeated runs over the
// same series always return the identical window. ok is false when the day
// part has no rows at all — a reported condition, not an error.
func FindPeakWindow(s SiteSeries, part DayPart) (pw PeakWindow, ok bool) {
	var best *IntervalRow
	for i := range s.Rows {
		row := &s.Rows[i]
		if !part.Contains(row.Timestamp) {
			continue
		}
		if best == nil || row.RollingHourTotal > best.RollingHourTotal {
			best = row
		}
	}
	if best == nil {
		return PeakWindow{}, false
	}

	end := best.Timestamp.Add(intervalSpan)
	w := Window{Start: end.Add(-rollingSpan), End: end}

	return PeakWindow{
		DayPart:        part,
		Window:         w,
		Volume:         best.RollingHourTotal,
		PeakHourFactor: PeakHourFactor(s, w),
	}, true
}
