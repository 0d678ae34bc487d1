package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPeakWindow(t *testing.T) {
	t.Run("morning scenario", func(t *testing.T) {
		// Four AM quarter hours of 10, 20, 15, 25 vehicles: the rolling
		// total at 07:45 is 70, so the peak hour is 07:00-08:00 with
		// PHF 70/(4*25) = 0.70.
		s := WithRollingHourTotals(quarterHourSeries(t, 7, 0, []int{10, 20, 15, 25}))

		pw, ok := FindPeakWindow(s, AM)
		require.True(t, ok)

		assert.Equal(t, AM, pw.DayPart)
		assert.Equal(t, at(7, 0), pw.Window.Start)
		assert.Equal(t, at(8, 0), pw.Window.End)
		assert.Equal(t, 70, pw.Volume)
		assert.InDelta(t, 0.70, pw.PeakHourFactor, 1e-9)
	})

	t.Run("day part boundary at noon", func(t *testing.T) {
		// 11:00-13:00 straddling noon; the AM subset must stop before 12:00.
		s := WithRollingHourTotals(quarterHourSeries(t, 11, 0, []int{10, 10, 10, 10, 99, 99, 99, 99}))

		am, ok := FindPeakWindow(s, AM)
		require.True(t, ok)
		assert.True(t, am.Window.End.Hour() <= 12, "AM window may not extend its selection past noon rows")
		assert.Equal(t, 40, am.Volume)

		pm, ok := FindPeakWindow(s, PM)
		require.True(t, ok)
		assert.Equal(t, at(12, 0), pm.Window.Start)
		assert.Equal(t, 4*99, pm.Volume)
	})

	t.Run("tie breaks to earliest window", func(t *testing.T) {
		// Uniform volumes: every full window ties, first full one wins...
		// but the partial leading windows are smaller, so the earliest
		// maximal row is 07:45.
		s := WithRollingHourTotals(quarterHourSeries(t, 7, 0, []int{10, 10, 10, 10, 10, 10}))

		pw, ok := FindPeakWindow(s, AM)
		require.True(t, ok)
		assert.Equal(t, at(7, 0), pw.Window.Start)
		assert.Equal(t, at(8, 0), pw.Window.End)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		s := WithRollingHourTotals(quarterHourSeries(t, 7, 0, []int{10, 20, 20, 10, 20, 20}))

		first, ok := FindPeakWindow(s, AM)
		require.True(t, ok)
		second, ok := FindPeakWindow(s, AM)
		require.True(t, ok)

		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("peak selection not idempotent (-first +second):\n%s", diff)
		}
	})

	t.Run("empty day part reports, not crashes", func(t *testing.T) {
		s := WithRollingHourTotals(quarterHourSeries(t, 7, 0, []int{10, 20}))
		_, ok := FindPeakWindow(s, PM)
		assert.False(t, ok)
	})
}

func TestDayPartContains(t *testing.T) {
	assert.True(t, AM.Contains(at(11, 45)))
	assert.False(t, AM.Contains(at(12, 0)))
	assert.True(t, PM.Contains(at(12, 0)))
	assert.False(t, PM.Contains(at(11, 45)))
}
