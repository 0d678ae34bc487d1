package domain

// PercentHeavy computes the per-movement heavy-vehicle share over a summed
// window: (1 − light/total) × 100. A movement with zero total traffic
// reports 0 — no traffic, no heavy fraction — never NaN.
func PercentHeavy(light, total int) float64 {
	if total == 0 {
		return 0
	}
	return (1 - float64(light)/float64(total)) * 100
}

// WindowSlice is one site's counts re-aggregated over a fixed window,
// keyed by canonical column name. Total rows carry merged crossing counts;
// percent-heavy rows zero them out.
type WindowSlice struct {
	Window         Window
	Values         map[string]float64
	Volume         int
	PeakHourFactor float64
}

// SliceTotals sums the total-vehicles series over the window and merges
// the cross-tab crossing counts in: pedestrian crossings live on the light
// tab and bicycle crossings on the heavy tab, so the unified row pulls each
// from its source series.
func SliceTotals(total, light, heavy SiteSeries, w Window) WindowSlice {
	values := make(map[string]float64)

	totalSums, volume := SumWindow(total, w)
	for i, col := range total.dataColumns() {
		values[col.Name] = float64(totalSums[i])
	}

	mergeCrossings(values, light, MovePedsXwalk, w)
	mergeCrossings(values, heavy, MoveBikesXwalk, w)

	return WindowSlice{
		Window:         w,
		Values:         values,
		Volume:         volume,
		PeakHourFactor: PeakHourFactor(total, w),
	}
}

// SliceHeavyPercent computes the per-movement percent-heavy row over the
// window. Crossing columns are zeroed: a heavy-percentage of pedestrians
// is meaningless.
func SliceHeavyPercent(total, light SiteSeries, w Window) WindowSlice {
	values := make(map[string]float64)

	totalSums, _ := SumWindow(total, w)
	lightSums, _ := SumWindow(light, w)

	for i, col := range total.dataColumns() {
		if col.Mapped && col.Movement.Crossing() {
			values[col.Name] = 0
			continue
		}
		lightSum := 0
		if li := light.ColumnIndex(col.Name); li >= 0 {
			lightSum = lightSums[li]
		}
		values[col.Name] = PercentHeavy(lightSum, totalSums[i])
	}

	return WindowSlice{
		Window:         w,
		Values:         values,
		PeakHourFactor: PeakHourFactor(total, w),
	}
}

func mergeCrossings(values map[string]float64, src SiteSeries, kind MovementKind, w Window) {
	sums, _ := SumWindow(src, w)
	for i, col := range src.dataColumns() {
		if !col.Mapped || col.Movement.Kind != kind {
			continue
		}
		values[col.Name] = float64(sums[i])
	}
}
