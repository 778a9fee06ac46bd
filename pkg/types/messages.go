// Package types holds the wire shapes shared between the server and the
// browser clients. Every frame is a single JSON object whose "type" field
// carries the event name.
package types

import "encoding/json"

// Client -> Server event names.
const (
	EvtJoinGame       = "join_game"
	EvtAdminJoin      = "admin_join"
	EvtAdminStartGame = "admin_start_game"
	EvtAdminNextRound = "admin_next_round"
	EvtAdminShowGraph = "admin_show_graphs"
	EvtAdminRestart   = "admin_restart"
	EvtSubmitScore    = "submit_score"
)

// Server -> Client event names.
const (
	EvtServerAwake     = "server_awake"
	EvtJoinedSuccess   = "joined_success"
	EvtGameError       = "game_error"
	EvtGameStateChange = "game_state_change"
	EvtRoundChange     = "round_change"
	EvtResetGame       = "reset_game"
	EvtUpdateAdmin     = "update_admin"
	EvtAdminAuthFailed = "admin_auth_failed"
)

type ClientMessage struct {
	Type   string  `json:"type"`
	Name   string  `json:"name,omitempty"`
	Secret string  `json:"secret,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// PlayerView is one roster row of the admin view.
type PlayerView struct {
	Name    string  `json:"name"`
	ScoreR1 float64 `json:"scoreR1"`
	ScoreR2 float64 `json:"scoreR2"`
}

type ServerMessage struct {
	Type    string       `json:"type"`
	Status  string       `json:"status,omitempty"`
	Round   int          `json:"round,omitempty"`
	Message string       `json:"message,omitempty"`
	Players []PlayerView `json:"players,omitempty"`
}

// MarshalJSON distinguishes "no roster in this frame" (nil, key omitted)
// from "empty roster" (non-nil, encoded as []). update_admin always carries
// a players array, even before anyone has joined.
func (m ServerMessage) MarshalJSON() ([]byte, error) {
	aux := struct {
		Type    string        `json:"type"`
		Status  string        `json:"status,omitempty"`
		Round   int           `json:"round,omitempty"`
		Message string        `json:"message,omitempty"`
		Players *[]PlayerView `json:"players,omitempty"`
	}{
		Type:    m.Type,
		Status:  m.Status,
		Round:   m.Round,
		Message: m.Message,
	}
	if m.Players != nil {
		aux.Players = &m.Players
	}
	return json.Marshal(aux)
}
