package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUpdateAdminEncodesEmptyRoster(t *testing.T) {
	payload, err := json.Marshal(ServerMessage{
		Type:    EvtUpdateAdmin,
		Status:  "WAITING",
		Round:   1,
		Players: []PlayerView{},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(string(payload), `"players":[]`) {
		t.Fatalf("update_admin must always carry a players array, got %s", payload)
	}
}

func TestNonRosterFramesOmitPlayers(t *testing.T) {
	payload, err := json.Marshal(ServerMessage{Type: EvtJoinedSuccess, Round: 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if strings.Contains(string(payload), "players") {
		t.Fatalf("joined_success must not carry a players key, got %s", payload)
	}
}
