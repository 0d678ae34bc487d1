package domain

import "strings"

// WarningKind classifies a recoverable condition. Recoverables degrade one
// site's output and must stay visible in the final report; they never abort
// the batch.
type WarningKind string

const (
	WarnUnknownDirection   WarningKind = "unknown_direction"
	WarnUnknownMovement    WarningKind = "unknown_movement"
	WarnBadTime            WarningKind = "bad_time"
	WarnDuplicateTimestamp WarningKind = "duplicate_timestamp"
	WarnClassMismatch      WarningKind = "class_mismatch"
	WarnEmptyDayPart       WarningKind = "empty_day_part"
	WarnZeroVolumeWindow   WarningKind = "zero_volume_window"
	WarnGeocodeFailed      WarningKind = "geocode_failed"
)

// Warning is one recoverable condition observed while processing a site.
type Warning struct {
	Kind   WarningKind
	Detail string
}

func (w Warning) String() string {
	if w.Detail == "" {
		return string(w.Kind)
	}
	return string(w.Kind) + ": " + w.Detail
}

// JoinWarnings renders warnings for the report's flags column.
func JoinWarnings(ws []Warning) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
