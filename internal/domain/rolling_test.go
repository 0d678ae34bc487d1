package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quarterHourSeries builds a single-column total series with one row per
// value, 15 minutes apart starting at the given hour/minute.
func quarterHourSeries(t *testing.T, hour, minute int, values []int) SiteSeries {
	t.Helper()
	cols, _ := NormalizeHeaders([]string{"", "Southbound"}, []string{"Time", "Straight Through"})

	raws := make([]RawRow, len(values))
	start := at(hour, minute)
	for i, v := range values {
		ts := start.Add(time.Duration(i) * 15 * time.Minute)
		raws[i] = RawRow{
			Time:  RawTime{Text: ts.Format("15:04")},
			Cells: []string{fmt.Sprintf("%d", v)},
		}
	}
	series, warnings := BuildSeries(ClassTotal, cols, raws, testDate)
	require.Empty(t, warnings)
	return series
}

func TestWithRollingHourTotals(t *testing.T) {
	t.Run("exact trailing four-interval sums", func(t *testing.T) {
		s := WithRollingHourTotals(quarterHourSeries(t, 7, 0, []int{10, 20, 15, 25, 30, 5}))

		// Each row sums itself plus up to three preceding intervals.
		expected := []int{10, 30, 45, 70, 90, 75}
		for i, row := range s.Rows {
			assert.Equal(t, expected[i], row.RollingHourTotal, "row %d", i)
		}
	})

	t.Run("first 45 minutes sum only rows present", func(t *testing.T) {
		s := WithRollingHourTotals(quarterHourSeries(t, 7, 0, []int{10, 20, 15}))
		assert.Equal(t, 10, s.Rows[0].RollingHourTotal)
		assert.Equal(t, 30, s.Rows[1].RollingHourTotal)
		assert.Equal(t, 45, s.Rows[2].RollingHourTotal)
	})

	t.Run("gap in the series narrows the window", func(t *testing.T) {
		cols, _ := NormalizeHeaders([]string{"", "Southbound"}, []string{"Time", "Straight Through"})
		raws := []RawRow{
			{Time: RawTime{Text: "7:00"}, Cells: []string{"10"}},
			{Time: RawTime{Text: "7:15"}, Cells: []string{"20"}},
			// 7:30 and 7:45 missing
			{Time: RawTime{Text: "8:00"}, Cells: []string{"40"}},
		}
		series, _ := BuildSeries(ClassTotal, cols, raws, testDate)
		s := WithRollingHourTotals(series)

		// Window for 8:00 is [7:15, 8:15): only 7:15 and 8:00 contribute.
		assert.Equal(t, 60, s.Rows[2].RollingHourTotal)
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		orig := quarterHourSeries(t, 7, 0, []int{10, 20, 15, 25})
		_ = WithRollingHourTotals(orig)
		for _, row := range orig.Rows {
			assert.Zero(t, row.RollingHourTotal)
		}
	})
}

func TestPeakHourFactor(t *testing.T) {
	s := quarterHourSeries(t, 7, 0, []int{10, 20, 15, 25})
	w := Window{Start: at(7, 0), End: at(8, 0)}

	t.Run("standard definition", func(t *testing.T) {
		// 70 vehicles over the hour, busiest quarter 25: 70/(4*25) = 0.70.
		assert.InDelta(t, 0.70, PeakHourFactor(s, w), 1e-9)
	})

	t.Run("all-zero window yields sentinel zero", func(t *testing.T) {
		zero := quarterHourSeries(t, 7, 0, []int{0, 0, 0, 0})
		assert.Zero(t, PeakHourFactor(zero, w))
	})

	t.Run("window excludes its end", func(t *testing.T) {
		longer := quarterHourSeries(t, 7, 0, []int{10, 20, 15, 25, 999})
		assert.InDelta(t, 0.70, PeakHourFactor(longer, w), 1e-9)
	})
}

func TestSumWindow(t *testing.T) {
	cols, _ := NormalizeHeaders(
		[]string{"", "Southbound", ""},
		[]string{"Time", "Left Turns", "Straight Through"},
	)
	raws := []RawRow{
		{Time: RawTime{Text: "7:00"}, Cells: []string{"1", "10"}},
		{Time: RawTime{Text: "7:15"}, Cells: []string{"2", "20"}},
		{Time: RawTime{Text: "8:00"}, Cells: []string{"4", "40"}},
	}
	series, _ := BuildSeries(ClassTotal, cols, raws, testDate)

	sums, total := SumWindow(series, Window{Start: at(7, 0), End: at(8, 0)})
	assert.Equal(t, []int{3, 30}, sums)
	assert.Equal(t, 33, total)
}

func TestWindowText(t *testing.T) {
	assert.Equal(t, "07:00 to 08:00", Window{Start: at(7, 0), End: at(8, 0)}.Text())

	half := Window{
		Start: at(7, 22).Add(30 * time.Second),
		End:   at(8, 22).Add(30 * time.Second),
	}
	assert.Equal(t, "07:22:30 to 08:22:30", half.Text())
}

func TestWindowOnDate(t *testing.T) {
	w := Window{
		Start: at(7, 22).Add(30 * time.Second),
		End:   at(8, 22).Add(30 * time.Second),
	}

	nextDay := testDate.AddDate(0, 0, 1)
	moved := w.OnDate(nextDay)

	assert.Equal(t, nextDay.Day(), moved.Start.Day())
	assert.Equal(t, "07:22:30 to 08:22:30", moved.Text())
	assert.Equal(t, time.Hour, moved.End.Sub(moved.Start))
}
