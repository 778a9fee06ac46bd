package engine

import (
	"errors"
	"math"
	"strings"
)

var ErrGameInProgress = errors.New("game already started")
var ErrGameFinished = errors.New("game finished")
var ErrGameFull = errors.New("game is full")
var ErrNameRequired = errors.New("name required")
var ErrNameTaken = errors.New("name taken")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusCountdown  Status = "COUNTDOWN"
	StatusPlaying    Status = "PLAYING"
	StatusRoundOver  Status = "ROUND_OVER"
	StatusShowGraphs Status = "SHOW_GRAPHS"
)

// FinalRound is the last scoring round; the game supports exactly two.
const FinalRound = 2

type Player struct {
	Name    string
	ScoreR1 float64
	ScoreR2 float64
	ConnID  string
}

type Rules struct {
	Capacity         int
	CountdownSec     int
	RoundDurationSec int
}

// State is the whole session record. Apply treats it as a value: maps and
// slices are cloned before mutation so callers can keep old snapshots.
type State struct {
	Status  Status
	Round   int
	Players map[string]Player // keyed by connection id
	Order   []string          // connection ids in join order
	Rules   Rules
}

type CommandType string

const (
	CmdJoin          CommandType = "Join"
	CmdStartRound    CommandType = "StartRound"
	CmdCountdownDone CommandType = "CountdownDone"
	CmdRoundTimeUp   CommandType = "RoundTimeUp"
	CmdSubmitScore   CommandType = "SubmitScore"
	CmdNextRound     CommandType = "NextRound"
	CmdShowGraphs    CommandType = "ShowGraphs"
	CmdRestart       CommandType = "Restart"
	CmdLeave         CommandType = "Leave"
)

type Command struct {
	Type   CommandType
	ConnID string
	Name   string
	Score  float64
}

type EventType string

const (
	EvtPlayerJoined   EventType = "PlayerJoined"   // to the joining connection only
	EvtStatusChanged  EventType = "StatusChanged"  // to everyone
	EvtRoundChanged   EventType = "RoundChanged"   // to everyone
	EvtGameReset      EventType = "GameReset"      // to everyone
	EvtAdminChanged   EventType = "AdminChanged"   // admin view refresh
	EvtRoundCompleted EventType = "RoundCompleted" // persistence hook
)

type Event struct {
	Type   EventType
	ConnID string
	Status Status
	Round  int
}

// Apply runs one command against the session. It returns the events the
// caller should fan out, the resulting state, and an error for admission
// failures. Commands that miss their precondition (stale timers, scores
// while waiting, phase controls out of order) return no events and no error:
// they are dropped without a trace on the wire.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdJoin:
		return applyJoin(s, cmd)

	case CmdStartRound:
		if s.Status != StatusWaiting && s.Status != StatusRoundOver {
			return nil, s, nil
		}
		newState := s
		newState.Status = StatusCountdown
		return transitionEvents(newState), newState, nil

	case CmdCountdownDone:
		// Guarded at fire time: a restart may have happened since scheduling.
		if s.Status != StatusCountdown {
			return nil, s, nil
		}
		newState := s
		newState.Status = StatusPlaying
		return transitionEvents(newState), newState, nil

	case CmdRoundTimeUp:
		if s.Status != StatusPlaying {
			return nil, s, nil
		}
		newState := s
		newState.Status = StatusRoundOver
		events := transitionEvents(newState)
		events = append(events, Event{Type: EvtRoundCompleted, Round: newState.Round})
		return events, newState, nil

	case CmdSubmitScore:
		return applySubmitScore(s, cmd)

	case CmdNextRound:
		if s.Round != 1 || s.Status != StatusRoundOver {
			return nil, s, nil
		}
		newState := s
		newState.Status = StatusWaiting
		newState.Round = 2
		events := []Event{
			{Type: EvtRoundChanged, Round: newState.Round},
			{Type: EvtStatusChanged, Status: newState.Status},
			{Type: EvtAdminChanged},
		}
		return events, newState, nil

	case CmdShowGraphs:
		if s.Round != FinalRound || s.Status != StatusRoundOver {
			return nil, s, nil
		}
		newState := s
		newState.Status = StatusShowGraphs
		return transitionEvents(newState), newState, nil

	case CmdRestart:
		newState := NewState(s.Rules)
		events := []Event{{Type: EvtGameReset}}
		if s.Status != newState.Status {
			events = append(events, Event{Type: EvtStatusChanged, Status: newState.Status})
		}
		if s.Round != newState.Round {
			events = append(events, Event{Type: EvtRoundChanged, Round: newState.Round})
		}
		events = append(events, Event{Type: EvtAdminChanged})
		return events, newState, nil

	case CmdLeave:
		if _, ok := s.Players[cmd.ConnID]; !ok {
			return nil, s, nil
		}
		newState := s
		newState.Players = clonePlayers(s.Players)
		delete(newState.Players, cmd.ConnID)
		newState.Order = removeID(s.Order, cmd.ConnID)
		return []Event{{Type: EvtAdminChanged}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyJoin(s State, cmd Command) ([]Event, State, error) {
	if s.Status != StatusWaiting {
		return nil, s, ErrGameInProgress
	}
	// Unreachable in normal flow, round is capped at 2. Checked anyway.
	if s.Round > FinalRound {
		return nil, s, ErrGameFinished
	}
	if len(s.Players) >= s.Rules.Capacity {
		return nil, s, ErrGameFull
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, s, ErrNameRequired
	}
	if hasName(s, name) {
		return nil, s, ErrNameTaken
	}

	newState := s
	newState.Players = clonePlayers(s.Players)
	newState.Players[cmd.ConnID] = Player{Name: name, ConnID: cmd.ConnID}
	newState.Order = append(append([]string{}, s.Order...), cmd.ConnID)

	events := []Event{
		{Type: EvtPlayerJoined, ConnID: cmd.ConnID, Round: newState.Round},
		{Type: EvtAdminChanged},
	}
	return events, newState, nil
}

func applySubmitScore(s State, cmd Command) ([]Event, State, error) {
	if s.Status == StatusWaiting {
		return nil, s, nil
	}
	p, ok := s.Players[cmd.ConnID]
	if !ok {
		return nil, s, nil
	}
	if math.IsNaN(cmd.Score) || math.IsInf(cmd.Score, 0) || cmd.Score < 0 {
		return nil, s, nil
	}

	if s.Round == 1 {
		p.ScoreR1 = cmd.Score
	} else {
		p.ScoreR2 = cmd.Score
	}

	newState := s
	newState.Players = clonePlayers(s.Players)
	newState.Players[cmd.ConnID] = p
	return []Event{{Type: EvtAdminChanged}}, newState, nil
}

// transitionEvents is the fan-out every plain status change produces.
func transitionEvents(s State) []Event {
	return []Event{
		{Type: EvtStatusChanged, Status: s.Status},
		{Type: EvtAdminChanged},
	}
}

func hasName(s State, name string) bool {
	for _, p := range s.Players {
		if p.Name == name {
			return true
		}
	}
	return false
}

func clonePlayers(players map[string]Player) map[string]Player {
	out := make(map[string]Player, len(players))
	for id, p := range players {
		out[id] = p
	}
	return out
}

func removeID(order []string, id string) []string {
	out := make([]string, 0, len(order))
	for _, o := range order {
		if o != id {
			out = append(out, o)
		}
	}
	return out
}
