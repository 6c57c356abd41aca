// Package model contains domain models passed between layers.
package model

// Required event keys, in the order they are checked.
const (
	KeyPossessionStart  = "timestamp_start_of_possession_seconds"
	KeyPeriod           = "period"
	KeyScore            = "score"
	KeyMinute           = "minute"
	KeyTeamInPossession = "team_in_possession"
	KeyPossessionNumber = "possession_number"
	KeyPlayerName       = "player_name"
	KeyPlayerTeamName   = "player_team_name"
	KeyAction           = "action"
)

// RawEvent is one soccer action as it appears in the match data feed.
// Descriptive values are carried verbatim; only their presence is checked.
type RawEvent struct {
	PossessionStartSeconds *float64 `json:"timestamp_start_of_possession_seconds"` // group key

	Period           any `json:"period"`
	Score            any `json:"score"`
	Minute           any `json:"minute"`
	TeamInPossession any `json:"team_in_possession"`
	PossessionNumber any `json:"possession_number"`

	PlayerName     any `json:"player_name"`
	PlayerTeamName any `json:"player_team_name"`
	Action         any `json:"action"`

	// Optional, allow-listed.
	ActionLengthYards    any `json:"action_length_yards,omitempty"`
	ActionStartPitchArea any `json:"action_start_pitch_area,omitempty"`
	ActionEndPitchArea   any `json:"action_end_pitch_area,omitempty"`
	PassRecipientName    any `json:"pass_recipient_name,omitempty"`
}

// MissingField returns the key of the first required field absent from e,
// or "" when the event is complete. JSON null counts as absent.
func (e *RawEvent) MissingField() string {
	if e.PossessionStartSeconds == nil {
		return KeyPossessionStart
	}
	required := []struct {
		key string
		val any
	}{
		{KeyPeriod, e.Period},
		{KeyScore, e.Score},
		{KeyMinute, e.Minute},
		{KeyTeamInPossession, e.TeamInPossession},
		{KeyPossessionNumber, e.PossessionNumber},
		{KeyPlayerName, e.PlayerName},
		{KeyPlayerTeamName, e.PlayerTeamName},
		{KeyAction, e.Action},
	}
	for _, f := range required {
		if f.val == nil {
			return f.key
		}
	}
	return ""
}

// Detail projects the event onto the allow-listed detail fields.
func (e *RawEvent) Detail() EventDetail {
	return EventDetail{
		PlayerName:           e.PlayerName,
		PlayerTeamName:       e.PlayerTeamName,
		Action:               e.Action,
		ActionLengthYards:    e.ActionLengthYards,
		ActionStartPitchArea: e.ActionStartPitchArea,
		ActionEndPitchArea:   e.ActionEndPitchArea,
		PassRecipientName:    e.PassRecipientName,
	}
}

// EventDetail is the projection of a RawEvent handed to the narrator.
// Optional fields are omitted from JSON when the source event lacked them.
type EventDetail struct {
	PlayerName     any `json:"player_name"`
	PlayerTeamName any `json:"player_team_name"`
	Action         any `json:"action"`

	ActionLengthYards    any `json:"action_length_yards,omitempty"`
	ActionStartPitchArea any `json:"action_start_pitch_area,omitempty"`
	ActionEndPitchArea   any `json:"action_end_pitch_area,omitempty"`
	PassRecipientName    any `json:"pass_recipient_name,omitempty"`
}
