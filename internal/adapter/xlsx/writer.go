package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/tmc-data-etl/internal/domain"
)

const (
	summarySheet = "Summary"
	detailSheet  = "Detail"

	// Each per-site table occupies a block this wide: the timestamp, up to
	// 21 data columns, and the two derived totals.
	siteTableSpan = 24

	timestampLayout = "2006-01-02 15:04"
)

// Writer renders consolidated reports. It implements pipeline.ReportWriter.
type Writer struct{}

// WriteReport writes the consolidated report workbook: a Summary sheet
// with one line per site, a Detail sheet with the four metric rows per
// site, and one raw-data sheet per site holding its total, heavy, and
// percent-heavy tables side by side.
func (Writer) WriteReport(path string, r *domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 18}})
	if err != nil {
		return fmt.Errorf("create title style: %w", err)
	}

	if err := writeSummarySheet(f, r); err != nil {
		return err
	}
	if err := writeDetailSheet(f, r); err != nil {
		return err
	}
	for _, site := range r.Sites {
		if err := writeSiteSheet(f, titleStyle, site); err != nil {
			return err
		}
	}

	// The implicit first sheet gets replaced by Summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, r *domain.Report) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	header := []interface{}{
		"location_id", "location_name", "date", "time",
		"am_network_peak", "pm_network_peak", "am_peak", "pm_peak",
		"am_peak_hour_factor", "pm_peak_hour_factor",
		"leg_nb", "leg_sb", "leg_eb", "leg_wb",
		"lat", "lon", "flags",
	}
	if err := setRow(f, summarySheet, 1, 1, header); err != nil {
		return err
	}

	amNet := r.NetworkPeaks[domain.AM].Window.Text()
	pmNet := r.NetworkPeaks[domain.PM].Window.Text()

	for i, row := range r.Summary {
		site := r.Sites[i]
		cells := []interface{}{
			row.LocationID,
			row.Name,
			site.Meta.Date.Format("2006-01-02"),
			fmt.Sprintf("%s to %s", site.Meta.StartTime, site.Meta.EndTime),
			amNet,
			pmNet,
			row.AMPeak,
			row.PMPeak,
			row.AMFactor,
			row.PMFactor,
			site.Meta.Legs[domain.NB],
			site.Meta.Legs[domain.SB],
			site.Meta.Legs[domain.EB],
			site.Meta.Legs[domain.WB],
		}
		if row.Geo != nil {
			cells = append(cells, row.Geo.Lat, row.Geo.Lon)
		} else {
			cells = append(cells, "", "")
		}
		cells = append(cells, row.Warnings)

		if err := setRow(f, summarySheet, 1, i+2, cells); err != nil {
			return err
		}
	}

	return f.SetColWidth(summarySheet, "A", "Q", 18)
}

func writeDetailSheet(f *excelize.File, r *domain.Report) error {
	if _, err := f.NewSheet(detailSheet); err != nil {
		return err
	}

	canonical := domain.CanonicalColumns()
	header := []interface{}{
		"location_name", "location_id", "dtype", "period", "time", "peak_hour_factor",
	}
	for _, name := range canonical {
		header = append(header, name)
	}
	header = append(header, "volume")
	if err := setRow(f, detailSheet, 1, 1, header); err != nil {
		return err
	}

	for i, row := range r.Detail {
		cells := []interface{}{
			row.Name, row.LocationID, string(row.Kind), string(row.DayPart), row.Window, row.PHF,
		}
		for _, name := range canonical {
			if v, ok := row.Values[name]; ok {
				cells = append(cells, v)
			} else {
				cells = append(cells, "")
			}
		}
		if row.Kind == domain.DetailTotals {
			cells = append(cells, row.Volume)
		} else {
			cells = append(cells, "")
		}

		if err := setRow(f, detailSheet, 1, i+2, cells); err != nil {
			return err
		}
	}

	return f.SetColWidth(detailSheet, "A", "AE", 20)
}

// writeSiteSheet lays out one site's raw tables side by side, each headed
// by a bold title on the first row.
func writeSiteSheet(f *excelize.File, titleStyle int, site *domain.Site) error {
	sheet := site.Meta.LocationID
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	blocks := []struct {
		title string
		write func(col int) error
	}{
		{"TOTAL Vehicles", func(col int) error { return writeSeriesTable(f, sheet, col, site.Total) }},
		{"HEAVY Vehicles", func(col int) error { return writeSeriesTable(f, sheet, col, site.Heavy) }},
		{"PERCENT HEAVY Vehicles", func(col int) error { return writePercentHeavyTable(f, sheet, col, site) }},
	}

	for i, b := range blocks {
		col := 1 + i*siteTableSpan

		cell, err := excelize.CoordinatesToCellName(col, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, b.title); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, titleStyle); err != nil {
			return err
		}

		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, 21); err != nil {
			return err
		}

		if err := b.write(col); err != nil {
			return err
		}
	}

	return nil
}

func writeSeriesTable(f *excelize.File, sheet string, col int, s domain.SiteSeries) error {
	header := []interface{}{"datetime"}
	for _, c := range s.Columns {
		if !c.IsTime {
			header = append(header, c.Name)
		}
	}
	header = append(header, "total_15_min", "total_hourly")
	if err := setRow(f, sheet, col, 2, header); err != nil {
		return err
	}

	for i, row := range s.Rows {
		cells := []interface{}{row.Timestamp.Format(timestampLayout)}
		for _, v := range row.Counts {
			cells = append(cells, v)
		}
		cells = append(cells, row.IntervalTotal, row.RollingHourTotal)
		if err := setRow(f, sheet, col, i+3, cells); err != nil {
			return err
		}
	}
	return nil
}

// writePercentHeavyTable derives the per-interval heavy share for every
// column the light tab shares with the total tab.
func writePercentHeavyTable(f *excelize.File, sheet string, col int, site *domain.Site) error {
	header := []interface{}{"datetime"}
	for _, c := range site.Total.Columns {
		if !c.IsTime {
			header = append(header, c.Name)
		}
	}
	header = append(header, "total_15_min")
	if err := setRow(f, sheet, col, 2, header); err != nil {
		return err
	}

	lightByTS := make(map[int64]domain.IntervalRow, len(site.Light.Rows))
	for _, row := range site.Light.Rows {
		lightByTS[row.Timestamp.Unix()] = row
	}

	names := make([]string, 0, len(site.Total.Columns))
	for _, c := range site.Total.Columns {
		if !c.IsTime {
			names = append(names, c.Name)
		}
	}

	for i, row := range site.Total.Rows {
		cells := []interface{}{row.Timestamp.Format(timestampLayout)}
		light, ok := lightByTS[row.Timestamp.Unix()]

		for j, name := range names {
			li := site.Light.ColumnIndex(name)
			if !ok || li < 0 {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, domain.PercentHeavy(light.Counts[li], row.Counts[j]))
		}
		if ok {
			cells = append(cells, domain.PercentHeavy(light.IntervalTotal, row.IntervalTotal))
		} else {
			cells = append(cells, "")
		}

		if err := setRow(f, sheet, col, i+3, cells); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, col, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
