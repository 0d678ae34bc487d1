// Package xlsx reads survey workbooks and writes the consolidated report.
// It is a thin shell around excelize: everything with algorithmic content
// lives in the domain package and consumes plain tables of raw rows.
package xlsx

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/tmc-data-etl/internal/domain"
)

// Workbook tab names in the standardized collection format.
const (
	infoSheet  = "Information"
	lightSheet = "Light Vehicles"
	heavySheet = "Heavy Vehicles"
	totalSheet = "Total Vehicles"
)

// Reader loads survey workbooks. It implements pipeline.WorkbookReader.
type Reader struct{}

// ReadWorkbook loads a survey workbook: metadata from the Information tab
// and the three vehicle-class data tabs.
func (Reader) ReadWorkbook(path string) (*domain.Survey, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	meta, err := readMeta(f, path)
	if err != nil {
		return nil, err
	}

	wb := &domain.Survey{Meta: meta}
	for _, tab := range []struct {
		sheet string
		dst   *domain.TabData
	}{
		{lightSheet, &wb.Light},
		{heavySheet, &wb.Heavy},
		{totalSheet, &wb.Total},
	} {
		*tab.dst, err = readDataTab(f, tab.sheet)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}

	return wb, nil
}

// readMeta parses the Information tab. Columns A:B hold place names (the
// intersection name plus one street name per approach leg) and columns D:E
// hold the survey date and declared start/end times.
func readMeta(f *excelize.File, path string) (domain.SiteMeta, error) {
	id, ok := domain.ParseLocationID(path)
	if !ok {
		return domain.SiteMeta{}, fmt.Errorf("file name %q has no numeric location ID prefix", filepath.Base(path))
	}

	rows, err := f.GetRows(infoSheet)
	if err != nil {
		return domain.SiteMeta{}, fmt.Errorf("read %s tab: %w", infoSheet, err)
	}

	meta := domain.SiteMeta{
		LocationID: id,
		Legs:       make(map[domain.Direction]string),
		SourceFile: filepath.Base(path),
	}

	for _, row := range rows {
		key, value := cellAt(row, 0), cellAt(row, 1)
		switch {
		case key == "" || value == "":
		case key == "Intersection Name":
			meta.Name = value
		default:
			if dir, ok := legDirection(key); ok {
				meta.Legs[dir] = value
			}
		}

		key, value = cellAt(row, 3), cellAt(row, 4)
		switch key {
		case "Date":
			date, err := parseInfoDate(value)
			if err != nil {
				return domain.SiteMeta{}, fmt.Errorf("%s tab: %w", infoSheet, err)
			}
			meta.Date = date
		case "Start Time":
			meta.StartTime = value
		case "End Time":
			meta.EndTime = value
		}
	}

	if meta.Name == "" {
		return domain.SiteMeta{}, fmt.Errorf("%s tab has no Intersection Name", infoSheet)
	}
	if meta.Date.IsZero() {
		return domain.SiteMeta{}, fmt.Errorf("%s tab has no Date", infoSheet)
	}

	return meta, nil
}

// legDirection maps an Information-tab leg label like "Northbound Street"
// onto its approach.
func legDirection(label string) (domain.Direction, bool) {
	switch {
	case strings.HasPrefix(strings.ToUpper(label), "NORTH"):
		return domain.NB, true
	case strings.HasPrefix(strings.ToUpper(label), "SOUTH"):
		return domain.SB, true
	case strings.HasPrefix(strings.ToUpper(label), "EAST"):
		return domain.EB, true
	case strings.HasPrefix(strings.ToUpper(label), "WEST"):
		return domain.WB, true
	}
	return "", false
}

var infoDateLayouts = []string{
	"2006-01-02", "01-02-06", "1/2/2006", "1/2/06", "Jan 2, 2006", "January 2, 2006",
}

func parseInfoDate(s string) (time.Time, error) {
	for _, layout := range infoDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable Date value %q", s)
}

// readDataTab reads one vehicle-class tab: the level-1/level-2 header rows
// plus every data row beneath them. Each cell is captured both formatted
// and raw so time cells stored as Excel serial fractions survive intact.
func readDataTab(f *excelize.File, sheet string) (domain.TabData, error) {
	formatted, err := f.GetRows(sheet)
	if err != nil {
		return domain.TabData{}, fmt.Errorf("read %s tab: %w", sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.TabData{}, fmt.Errorf("read %s tab: %w", sheet, err)
	}

	// Row 1 is blank, row 2 is the direction header, row 3 the movement
	// header. Data starts on row 4.
	if len(formatted) < 4 {
		return domain.TabData{}, fmt.Errorf("%s tab has no data rows", sheet)
	}

	tab := domain.TabData{
		Level1: formatted[1],
		Level2: formatted[2],
	}
	width := len(tab.Level2)
	if width < 2 {
		return domain.TabData{}, fmt.Errorf("%s tab has no movement header row", sheet)
	}

	for i := 3; i < len(formatted); i++ {
		tab.Rows = append(tab.Rows, dataRow(formatted[i], rowAt(raw, i), width))
	}

	return tab, nil
}

// dataRow converts one sheet row. The first column is the interval time:
// when its raw value parses as a day fraction it is kept as a serial,
// otherwise the formatted text is carried for the domain layer to parse.
func dataRow(formatted, raw []string, width int) domain.RawRow {
	row := domain.RawRow{Cells: make([]string, width-1)}

	rawTime := cellAt(raw, 0)
	if serial, err := strconv.ParseFloat(rawTime, 64); err == nil {
		row.Time = domain.RawTime{Serial: serial, IsSerial: true}
	} else {
		row.Time = domain.RawTime{Text: cellAt(formatted, 0)}
	}

	for c := 1; c < width; c++ {
		row.Cells[c-1] = cellAt(formatted, c)
	}
	return row
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func rowAt(rows [][]string, i int) []string {
	if i >= len(rows) {
		return nil
	}
	return rows[i]
}
