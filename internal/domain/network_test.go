package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileNetworkPeak(t *testing.T) {
	t.Run("odd site count takes the middle value", func(t *testing.T) {
		starts := []time.Time{at(7, 0), at(7, 15), at(7, 45)}

		np, err := ReconcileNetworkPeak(AM, testDate, starts)
		require.NoError(t, err)

		assert.Equal(t, at(7, 15), np.Window.Start)
		assert.Equal(t, at(8, 15), np.Window.End)
	})

	t.Run("even site count averages the two middle values", func(t *testing.T) {
		starts := []time.Time{at(7, 0), at(7, 15), at(7, 30), at(7, 45)}

		np, err := ReconcileNetworkPeak(AM, testDate, starts)
		require.NoError(t, err)

		// (07:15 + 07:30) / 2 = 07:22:30, kept at seconds precision.
		expected := at(7, 22).Add(30 * time.Second)
		assert.Equal(t, expected, np.Window.Start)
		assert.Equal(t, expected.Add(time.Hour), np.Window.End)
		assert.Equal(t, "07:22:30 to 08:22:30", np.Window.Text())
	})

	t.Run("order of inputs does not matter", func(t *testing.T) {
		a, err := ReconcileNetworkPeak(PM, testDate, []time.Time{at(17, 0), at(16, 30), at(16, 45)})
		require.NoError(t, err)
		b, err := ReconcileNetworkPeak(PM, testDate, []time.Time{at(16, 45), at(17, 0), at(16, 30)})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("single site is its own network", func(t *testing.T) {
		np, err := ReconcileNetworkPeak(PM, testDate, []time.Time{at(16, 30)})
		require.NoError(t, err)
		assert.Equal(t, at(16, 30), np.Window.Start)
	})

	t.Run("zero valid peaks is fatal", func(t *testing.T) {
		_, err := ReconcileNetworkPeak(AM, testDate, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no AM peak windows")
	})
}
