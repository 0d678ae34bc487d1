// Command genfixture writes synthetic survey workbooks in the collection
// format the pipeline ingests. Each workbook carries an Information tab
// plus light, heavy, and total vehicle tabs with 15-minute interval rows,
// shaped so the batch has a distinct morning and afternoon busy hour.
//
// Usage:
//
//	go run ./cmd/genfixture -out data -sites 3 -date 2019-08-27
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	infoSheet  = "Information"
	lightSheet = "Light Vehicles"
	heavySheet = "Heavy Vehicles"
	totalSheet = "Total Vehicles"
)

var directions = []string{"Northbound", "Southbound", "Eastbound", "Westbound"}

var turnMovements = []string{"U Turns", "Left Turns", "Straight Through", "Right Turns"}

var crossStreets = []string{"Oak Ave", "Mill St", "Radcliffe St", "Pond St", "Beaver St"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for generated workbooks")
	sites := flag.Int("sites", 3, "number of site workbooks to generate")
	dateStr := flag.String("date", "2019-08-27", "survey date (YYYY-MM-DD)")
	seed := flag.Int64("seed", 1, "random seed for interval volumes")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	date, err := time.Parse("2006-01-02", *dateStr)
	if err != nil {
		return fmt.Errorf("parse -date: %w", err)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *sites; i++ {
		id := 150314 + i
		cross := crossStreets[i%len(crossStreets)]
		name := fmt.Sprintf("%d_MainSt%s.xlsx", id, compact(cross))
		path := filepath.Join(*out, name)
		if err := writeWorkbook(path, "Main St and "+cross, cross, date, rng); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

func compact(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			b = append(b, s[i])
		}
	}
	return string(b)
}

func writeWorkbook(path, intersection, crossStreet string, date time.Time, rng *rand.Rand) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeInfoSheet(f, intersection, crossStreet, date); err != nil {
		return err
	}

	light := intervalMatrix(rng, len(directions)*len(turnMovements), 3, 30)
	heavy := intervalMatrix(rng, len(directions)*len(turnMovements), 0, 5)
	total := make([][]int, len(light))
	for r := range light {
		total[r] = make([]int, len(light[r]))
		for c := range light[r] {
			total[r][c] = light[r][c] + heavy[r][c]
		}
	}

	// Crossings live on one class tab each: pedestrians are counted with
	// light vehicles and bicycles with heavy vehicles, never on the total
	// tab. The report's totals row merges them back together.
	peds := intervalMatrix(rng, len(directions), 0, 4)
	bikes := intervalMatrix(rng, len(directions), 0, 2)

	tabs := []struct {
		sheet    string
		turns    [][]int
		crossing string
		counts   [][]int
	}{
		{lightSheet, light, "Peds in Crosswalk", peds},
		{heavySheet, heavy, "Bikes in Crosswalk", bikes},
		{totalSheet, total, "", nil},
	}
	for _, tab := range tabs {
		if err := writeDataSheet(f, tab.sheet, tab.turns, tab.crossing, tab.counts); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func writeInfoSheet(f *excelize.File, intersection, crossStreet string, date time.Time) error {
	if _, err := f.NewSheet(infoSheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Intersection Name", intersection, "", "Date", date.Format("2006-01-02")},
		{"Northbound Street", "Main St", "", "Start Time", "07:00"},
		{"Southbound Street", "Main St", "", "End Time", "18:00"},
		{"Eastbound Street", crossStreet},
		{"Westbound Street", crossStreet},
	}
	return setRows(f, infoSheet, rows)
}

// intervalMatrix produces one row of width volumes per 15-minute interval
// from 07:00 through 17:45, scaled up around 07:30 and 16:30 so the
// peak-hour search has something to find.
func intervalMatrix(rng *rand.Rand, width, min, max int) [][]int {
	var rows [][]int
	for minute := 7 * 60; minute < 18*60; minute += 15 {
		scale := 1
		if (minute >= 7*60+30 && minute < 8*60+30) || (minute >= 16*60+30 && minute < 17*60+30) {
			scale = 3
		}
		row := make([]int, width)
		for c := range row {
			row[c] = scale * (min + rng.Intn(max-min+1))
		}
		rows = append(rows, row)
	}
	return rows
}

// writeDataSheet lays out one class tab: per direction the four turning
// movements (from turns, one group per direction) plus an optional
// crossing column (one count per direction).
func writeDataSheet(f *excelize.File, sheet string, turns [][]int, crossing string, counts [][]int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	moves := turnMovements
	if crossing != "" {
		moves = append(append([]string{}, turnMovements...), crossing)
	}

	dirRow := []interface{}{""}
	moveRow := []interface{}{"Time"}
	for _, dir := range directions {
		for m, move := range moves {
			label := ""
			if m == 0 {
				label = dir
			}
			dirRow = append(dirRow, label)
			moveRow = append(moveRow, move)
		}
	}

	rows := [][]interface{}{{}, dirRow, moveRow}
	for r := range turns {
		minute := 7*60 + r*15
		row := []interface{}{fmt.Sprintf("%d:%02d", minute/60, minute%60)}
		for d := range directions {
			for m := range turnMovements {
				row = append(row, turns[r][d*len(turnMovements)+m])
			}
			if crossing != "" {
				row = append(row, counts[r][d])
			}
		}
		rows = append(rows, row)
	}
	return setRows(f, sheet, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
