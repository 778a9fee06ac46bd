package engine

func DefaultRules() Rules {
	return Rules{
		Capacity:         10,
		CountdownSec:     3,
		RoundDurationSec: 10,
	}
}

// NewState builds a fresh WAITING session with an empty roster. Restart
// reuses it so both paths always agree on what "fresh" means.
func NewState(rules Rules) State {
	return State{
		Status:  StatusWaiting,
		Round:   1,
		Players: map[string]Player{},
		Order:   []string{},
		Rules:   rules,
	}
}

// RosterSnapshot returns the players in join order.
func RosterSnapshot(s State) []Player {
	out := make([]Player, 0, len(s.Order))
	for _, id := range s.Order {
		if p, ok := s.Players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
