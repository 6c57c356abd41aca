package model

import (
	"fmt"
	"strconv"
)

// PossessionGroup collects the events of one possession.
// Key is duplicated from the map key that built the group so the final
// record is self-describing.
type PossessionGroup struct {
	Key     float64
	Details string // header captured from the first event of the possession
	Events  []EventDetail
}

// UnitKey names the group in logs and errors.
func (g PossessionGroup) UnitKey() string {
	return "possession " + FormatKey(g.Key)
}

// Possession is the final, narrated record written to the output artifact.
type Possession struct {
	Key         float64 `json:"timestamp_start_of_possession_seconds"`
	Details     string  `json:"possession_details"`
	Description string  `json:"description"`
}

// Header renders the human-readable possession header for e.
func Header(e *RawEvent) string {
	return fmt.Sprintf("%v, %v, minute %v, %v in possession, possession number %v",
		e.Period, e.Score, e.Minute, e.TeamInPossession, e.PossessionNumber)
}

// FormatKey renders a possession key without trailing zeros.
func FormatKey(key float64) string {
	return strconv.FormatFloat(key, 'f', -1, 64)
}
