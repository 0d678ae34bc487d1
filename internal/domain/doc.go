// Package domain models turning-movement-count (TMC) survey data.
//
// # Data Source
//
// Counts arrive as one spreadsheet workbook per intersection, produced by the
// field-count vendor. File names follow "<location id>_<description>.xlsx",
// where the location id is an integer. Each workbook has four tabs:
//
//	Information    — intersection name, leg street names, survey date,
//	                 declared start/end times
//	Light Vehicles — passenger cars, one row per 15-minute interval
//	Heavy Vehicles — trucks and buses, same layout
//	Total Vehicles — light + heavy, same layout
//
// # Data Tab Conventions
//
// Each data tab carries three header rows: row 0 is blank, row 1 holds the
// approach direction ("Southbound", "Westbound", ...) merged across the
// movement columns it covers, and row 2 holds the movement label ("Left
// Turns", "Peds in Crosswalk", ...). Historical files contain documented
// typos ("Peds in Croswalk") which are normalized; anything else passes
// through raw with a warning rather than failing the file.
//
// The canonical flat column name is "<direction abbreviation> <movement>",
// e.g. "SB Left", "EB Peds Xwalk". Pedestrian crossings are only recorded on
// the Light Vehicles tab and bicycle crossings only on the Heavy Vehicles
// tab — a quirk of the collection software that the derived-metrics step
// undoes when assembling unified report rows.
//
// Time values in the first column are either native spreadsheet times
// (day-fraction serials) or free text like "7:15". Both resolve to the same
// time of day, combined with the survey date from the Information tab.
// Rows whose time cannot be resolved are trailing noise (footers, summary
// lines) and are dropped.
//
// # Aggregation
//
// Every row gets an interval total (sum of all movement counts) and a
// trailing rolling-hour total: the sum of interval totals over the window
// [t+15m−1h, t+15m), i.e. this quarter hour plus the three before it. The
// peak window for a day part (AM before noon, PM at or after) is the rolling
// hour with the highest total, earliest window winning ties.
//
// Peak-hour factor (PHF) is the standard transportation-engineering measure
// of demand uniformity within an hour:
//
//	PHF = hourly volume / (4 × busiest 15-minute interval in that hour)
//
// A PHF of 1.0 means perfectly uniform demand; typical urban peaks run
// 0.85–0.95. An all-zero window reports PHF 0 rather than dividing by zero.
//
// # Network Reconciliation
//
// Comparing intersections requires a single shared clock window. After each
// site's own peaks are found, the network peak start is the median of the
// per-site start times (as elapsed seconds since midnight; an even site
// count averages the two middle values, so 07:00/07:15/07:30/07:45 yields
// 07:22:30). Every site is then re-sliced against that shared window, and
// the re-sliced numbers are what the report carries.
package domain
