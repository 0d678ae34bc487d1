package xlsx

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/tmc-data-etl/internal/domain"
)

// fixtureReport aggregates the reader fixture twice under different IDs so
// the report has two sites to reconcile.
func fixtureReport(t *testing.T) *domain.Report {
	t.Helper()

	wb, err := Reader{}.ReadWorkbook(writeFixture(t))
	require.NoError(t, err)

	siteA, err := domain.NewSite(wb.Meta, wb.Light, wb.Heavy, wb.Total, 100)
	require.NoError(t, err)

	metaB := wb.Meta
	metaB.LocationID = "150315"
	siteB, err := domain.NewSite(metaB, wb.Light, wb.Heavy, wb.Total, 100)
	require.NoError(t, err)

	// The fixture is morning-only; give both sites a synthetic PM peak so
	// reconciliation has something to work with.
	for _, s := range []*domain.Site{siteA, siteB} {
		start := time.Date(2019, time.August, 27, 16, 30, 0, 0, time.UTC)
		s.Peaks[domain.PM] = domain.PeakWindow{
			DayPart: domain.PM,
			Window:  domain.Window{Start: start, End: start.Add(time.Hour)},
			Volume:  100,
		}
	}

	r, err := domain.BuildReport(wb.Meta.Date, []*domain.Site{siteA, siteB})
	require.NoError(t, err)
	return r
}

func TestWriteReport(t *testing.T) {
	r := fixtureReport(t)
	path := filepath.Join(t.TempDir(), "TMC Summary test.xlsx")

	require.NoError(t, Writer{}.WriteReport(path, r))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	t.Run("sheet layout", func(t *testing.T) {
		sheets := f.GetSheetList()
		assert.Contains(t, sheets, summarySheet)
		assert.Contains(t, sheets, detailSheet)
		assert.Contains(t, sheets, "150314")
		assert.Contains(t, sheets, "150315")
		assert.NotContains(t, sheets, "Sheet1")
	})

	t.Run("summary rows", func(t *testing.T) {
		rows, err := f.GetRows(summarySheet)
		require.NoError(t, err)
		require.Len(t, rows, 3, "header plus one row per site")

		assert.Equal(t, "location_id", rows[0][0])
		assert.Equal(t, "150314", rows[1][0])
		assert.Equal(t, "Main St and Oak Ave", rows[1][1])
		assert.Equal(t, "2019-08-27", rows[1][2])

		// Both sites share the reconciled network windows.
		assert.Equal(t, rows[1][4], rows[2][4])
		assert.Equal(t, rows[1][5], rows[2][5])
	})

	t.Run("detail rows", func(t *testing.T) {
		rows, err := f.GetRows(detailSheet)
		require.NoError(t, err)
		// Header plus 4 rows per site.
		require.Len(t, rows, 9)

		assert.Equal(t, "dtype", rows[0][2])
		assert.Equal(t, "totals", rows[1][2])
		assert.Equal(t, "AM", rows[1][3])
		assert.Equal(t, "pct heavy", rows[2][2])
	})

	t.Run("per-site tables", func(t *testing.T) {
		v, err := f.GetCellValue("150314", "A1")
		require.NoError(t, err)
		assert.Equal(t, "TOTAL Vehicles", v)

		heavyTitle, err := f.GetCellValue("150314", cellName(t, 1+siteTableSpan, 1))
		require.NoError(t, err)
		assert.Equal(t, "HEAVY Vehicles", heavyTitle)

		pctTitle, err := f.GetCellValue("150314", cellName(t, 1+2*siteTableSpan, 1))
		require.NoError(t, err)
		assert.Equal(t, "PERCENT HEAVY Vehicles", pctTitle)

		// First data table: header on row 2, first interval on row 3.
		header, err := f.GetCellValue("150314", "A2")
		require.NoError(t, err)
		assert.Equal(t, "datetime", header)

		ts, err := f.GetCellValue("150314", "A3")
		require.NoError(t, err)
		assert.Equal(t, "2019-08-27 07:00", ts)
	})
}

func TestWriteReport_PercentHeavyValues(t *testing.T) {
	r := fixtureReport(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Writer{}.WriteReport(path, r))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// Light and total tabs are identical in the fixture, so every share in
	// the percent-heavy block is zero.
	cell := cellName(t, 2+2*siteTableSpan, 3)
	v, err := f.GetCellValue("150314", cell)
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}
