package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The three directed-event payload shapes the protocol raises. A changed
// struct tag or dropped field here breaks peers silently, so the wire
// shapes get pinned.
func TestClientFrame_EventPayloadShapesRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame ClientFrame
	}{
		{
			"invite carries name and id",
			ClientFrame{Type: FrameRaise, Code: 1, Payload: []string{"Alice", "1"}, Targets: []int{2}},
		},
		{
			"decline carries the decliner name",
			ClientFrame{Type: FrameRaise, Code: 2, Payload: []string{"Bob"}, Targets: []int{1}},
		},
		{
			"move carries the chosen room",
			ClientFrame{Type: FrameRaise, Code: 3, Payload: []string{"Match_2"}, Targets: []int{1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.frame)
			require.NoError(t, err)

			var got ClientFrame
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.frame, got)
		})
	}
}

func TestServerFrame_EventRoundTripsWithSender(t *testing.T) {
	frame := ServerFrame{Type: FrameEvent, Code: 1, Payload: []string{"Alice", "1"}, Sender: 1}

	data, err := json.Marshal(frame)
	require.NoError(t, err)

	var got ServerFrame
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, frame, got)
}

// Field names are the contract between relayd and every client build out
// there; lock them down.
func TestFrameFieldNamesAreStable(t *testing.T) {
	data, err := json.Marshal(ServerFrame{
		Type:     FrameJoinedRoom,
		PlayerID: 7,
		Room:     "Match_1",
		Players:  []PlayerInfo{{ID: 7, Props: map[string]string{"name": "Alice"}}},
		Rooms:    []RoomInfo{{Name: "Match_1", PlayerCount: 1, MaxPlayers: 2}},
	})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"type", "player_id", "room", "players", "rooms"} {
		assert.Contains(t, raw, key)
	}

	rooms := raw["rooms"].([]any)
	room := rooms[0].(map[string]any)
	assert.Contains(t, room, "player_count")
	assert.Contains(t, room, "max_players")
}
