package domain

import (
	"fmt"
	"strings"
)

// Direction is a compass approach into the intersection.
type Direction string

const (
	NB Direction = "NB"
	SB Direction = "SB"
	EB Direction = "EB"
	WB Direction = "WB"
)

// Directions lists the approaches in the order the collection software
// writes them: south, west, north, east.
var Directions = []Direction{SB, WB, NB, EB}

// MovementKind is one flow through the intersection from a given approach.
type MovementKind string

const (
	MoveUTurn      MovementKind = "U"
	MoveLeft       MovementKind = "Left"
	MoveThru       MovementKind = "Thru"
	MoveRight      MovementKind = "Right"
	MovePedsXwalk  MovementKind = "Peds Xwalk"
	MoveBikesXwalk MovementKind = "Bikes Xwalk"
)

// MovementKinds lists every movement in canonical column order.
var MovementKinds = []MovementKind{
	MoveUTurn, MoveLeft, MoveThru, MoveRight, MovePedsXwalk, MoveBikesXwalk,
}

// Movement identifies one traffic flow: an approach direction plus a
// movement kind.
type Movement struct {
	Approach Direction
	Kind     MovementKind
}

// Name returns the canonical flat column name, e.g. "SB Left".
func (m Movement) Name() string {
	return string(m.Approach) + " " + string(m.Kind)
}

// Crossing reports whether the movement is a pedestrian or bicycle
// crosswalk count rather than a vehicle movement.
func (m Movement) Crossing() bool {
	return m.Kind == MovePedsXwalk || m.Kind == MoveBikesXwalk
}

// CanonicalColumns returns the full fixed schema: every direction crossed
// with every movement kind, in collection order. Report rows use this set
// so sites with differing raw columns still align.
func CanonicalColumns() []string {
	names := make([]string, 0, len(Directions)*len(MovementKinds))
	for _, d := range Directions {
		for _, k := range MovementKinds {
			names = append(names, Movement{Approach: d, Kind: k}.Name())
		}
	}
	return names
}

// directionLookup maps the level-1 header labels onto abbreviations.
var directionLookup = map[string]Direction{
	"Southbound": SB,
	"Westbound":  WB,
	"Northbound": NB,
	"Eastbound":  EB,
}

// movementLookup maps lowercased level-2 header labels onto canonical
// movement kinds, including the typos that appear in historical files.
var movementLookup = map[string]MovementKind{
	"u turns":            MoveUTurn,
	"left turns":         MoveLeft,
	"straight through":   MoveThru,
	"right turns":        MoveRight,
	"peds in crosswalk":  MovePedsXwalk,
	"bikes in crosswalk": MoveBikesXwalk,

	// handle the expected typos
	"peds in croswalk":  MovePedsXwalk,
	"bikes in croswalk": MoveBikesXwalk,
}

// timeHeader is the level-2 label of the interval time column.
const timeHeader = "time"

// Column describes one data column after header normalization.
type Column struct {
	Name     string   // canonical name, or raw passthrough when unmapped
	Movement Movement // zero value unless Mapped
	Mapped   bool     // both direction and movement resolved
	IsTime   bool     // the interval time column
}

// NormalizeHeaders flattens the two meaningful header rows of a data tab
// into one Column per data column. Level-1 direction labels are merged
// across the columns they cover, so a blank level-1 cell carries the
// previous direction forward.
//
// Unrecognized labels never fail the tab: an unknown movement label passes
// through raw with a warning, and an unknown direction label is reused as a
// raw prefix with a separate, louder warning kind — a direction mismatch
// means the file's structure has drifted, not just its spelling.
func NormalizeHeaders(level1, level2 []string) ([]Column, []Warning) {
	cols := make([]Column, 0, len(level2))
	var warnings []Warning

	var dir Direction
	var dirMapped bool
	prefix := ""

	for i, raw2 := range level2 {
		var raw1 string
		if i < len(level1) {
			raw1 = strings.TrimSpace(level1[i])
		}

		// Update the carried direction any time a level-1 value is found.
		if raw1 != "" {
			if d, ok := directionLookup[raw1]; ok {
				dir, dirMapped = d, true
				prefix = string(d) + " "
			} else {
				dir, dirMapped = "", false
				prefix = raw1 + " "
				warnings = append(warnings, Warning{
					Kind:   WarnUnknownDirection,
					Detail: fmt.Sprintf("direction label %q is not in the lookup; structural header drift", raw1),
				})
			}
		}

		raw2 = strings.TrimSpace(raw2)
		if strings.EqualFold(raw2, timeHeader) {
			cols = append(cols, Column{Name: timeHeader, IsTime: true})
			continue
		}

		kind, ok := movementLookup[strings.ToLower(raw2)]
		if !ok {
			warnings = append(warnings, Warning{
				Kind:   WarnUnknownMovement,
				Detail: fmt.Sprintf("movement label %q is not in the lookup; kept raw", raw2),
			})
			cols = append(cols, Column{Name: prefix + raw2})
			continue
		}

		col := Column{Name: prefix + string(kind)}
		if dirMapped {
			col.Movement = Movement{Approach: dir, Kind: kind}
			col.Mapped = true
		}
		cols = append(cols, col)
	}

	return cols, warnings
}
