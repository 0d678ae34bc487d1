package domain

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// NetworkPeak is the single shared peak window for one day part across the
// whole batch, derived from each site's independently-found peak start.
type NetworkPeak struct {
	DayPart DayPart
	Window  Window
}

// ReconcileNetworkPeak derives the shared window: the median of the
// per-site start times taken as elapsed seconds since midnight, converted
// back to a time of day on the reference date, end = start + 1h.
//
// An even site count averages the two middle values, which can land on a
// half-minute boundary: starts of 07:00, 07:15, 07:30 and 07:45 reconcile
// to 07:22:30. The value is kept at seconds precision, not rounded.
//
// Zero valid per-site peaks is a batch-level failure, not a warning.
func ReconcileNetworkPeak(part DayPart, date time.Time, starts []time.Time) (NetworkPeak, error) {
	if len(starts) == 0 {
		return NetworkPeak{}, fmt.Errorf("no %s peak windows to reconcile", part)
	}

	secs := make([]float64, len(starts))
	for i, ts := range starts {
		secs[i] = float64(ts.Hour()*3600 + ts.Minute()*60 + ts.Second())
	}
	sort.Float64s(secs)

	var median float64
	mid := len(secs) / 2
	if len(secs)%2 == 1 {
		median = secs[mid]
	} else {
		median = stat.Mean(secs[mid-1:mid+1], nil)
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start := midnight.Add(time.Duration(median) * time.Second)

	return NetworkPeak{
		DayPart: part,
		Window:  Window{Start: start, End: start.Add(rollingSpan)},
	}, nil
}
