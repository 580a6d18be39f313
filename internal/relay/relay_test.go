package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSeq(t *testing.T) {
	k, ok := MatchSeq("Match_7")
	assert.True(t, ok)
	assert.Equal(t, 7, k)

	for _, name := range []string{LobbyRoom, "Match_", "Match_x", "Match_0", "Match_-1", "match_2"} {
		_, ok := MatchSeq(name)
		assert.False(t, ok, "name %q must not parse as a match room", name)
	}
}

func TestMatchRoomNameRoundTrips(t *testing.T) {
	k, ok := MatchSeq(MatchRoomName(12))
	assert.True(t, ok)
	assert.Equal(t, 12, k)
}

func TestRoomKindDerivedFromName(t *testing.T) {
	assert.Equal(t, RoomLobby, RoomSummary{Name: LobbyRoom}.Kind())
	assert.Equal(t, RoomMatch, RoomSummary{Name: "Match_2"}.Kind())
	assert.Equal(t, RoomLobby, RoomSummary{Name: "Match_bogus"}.Kind())
}
