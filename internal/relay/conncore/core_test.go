package conncore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchlobby/internal/relay"
	"matchlobby/pkg/wire"
)

func TestApply_WelcomeSetsLocalID(t *testing.T) {
	c := New()
	ev, ok := c.Apply(wire.ServerFrame{Type: wire.FrameWelcome, PlayerID: 42})
	require.True(t, ok)
	assert.Equal(t, relay.Connected{PlayerID: 42}, ev)
	assert.Equal(t, 42, c.LocalID())
}

func TestApply_RoomMembershipLifecycle(t *testing.T) {
	c := New()

	ev, ok := c.Apply(wire.ServerFrame{
		Type: wire.FrameJoinedRoom,
		Room: "GlobalRoom",
		Players: []wire.PlayerInfo{
			{ID: 1, Props: map[string]string{"name": "Alice"}},
		},
	})
	require.True(t, ok)
	joined, isJoined := ev.(relay.JoinedRoom)
	require.True(t, isJoined)
	assert.Equal(t, "GlobalRoom", joined.Room)

	room, inRoom := c.Room()
	assert.True(t, inRoom)
	assert.Equal(t, "GlobalRoom", room)

	_, ok = c.Apply(wire.ServerFrame{
		Type:    wire.FramePlayerEntered,
		Players: []wire.PlayerInfo{{ID: 2}},
	})
	require.True(t, ok)
	require.Len(t, c.Players(), 2)

	_, ok = c.Apply(wire.ServerFrame{Type: wire.FramePlayerLeft, PlayerID: 1})
	require.True(t, ok)
	players := c.Players()
	require.Len(t, players, 1)
	assert.Equal(t, 2, players[0].ID)

	_, ok = c.Apply(wire.ServerFrame{Type: wire.FrameLeftRoom})
	require.True(t, ok)
	_, inRoom = c.Room()
	assert.False(t, inRoom)
	assert.Empty(t, c.Players())
}

func TestApply_PropsMergeIntoExistingPlayer(t *testing.T) {
	c := New()
	c.Apply(wire.ServerFrame{
		Type:    wire.FrameJoinedRoom,
		Room:    "GlobalRoom",
		Players: []wire.PlayerInfo{{ID: 2}},
	})

	_, ok := c.Apply(wire.ServerFrame{
		Type:     wire.FramePropsUpdated,
		PlayerID: 2,
		Props:    map[string]string{"name": "Bob"},
	})
	require.True(t, ok)
	assert.Equal(t, "Bob", c.Players()[0].Props["name"])
}

func TestApply_EnteredEventIsolatedFromLaterMerges(t *testing.T) {
	c := New()
	c.Apply(wire.ServerFrame{
		Type:    wire.FrameJoinedRoom,
		Room:    "GlobalRoom",
		Players: []wire.PlayerInfo{{ID: 1}},
	})

	ev, ok := c.Apply(wire.ServerFrame{
		Type:    wire.FramePlayerEntered,
		Players: []wire.PlayerInfo{{ID: 2}},
	})
	require.True(t, ok)
	entered := ev.(relay.PlayerEntered)
	assert.Equal(t, 2, entered.Player.ID)

	// A later property merge updates the cache, not the event copy.
	c.Apply(wire.ServerFrame{
		Type:     wire.FramePropsUpdated,
		PlayerID: 2,
		Props:    map[string]string{"name": "Bob"},
	})
	assert.Empty(t, entered.Player.Props["name"])
	assert.Equal(t, "Bob", c.Players()[1].Props["name"])
}

func TestApply_RoomListReplacesCache(t *testing.T) {
	c := New()
	c.Apply(wire.ServerFrame{Type: wire.FrameRoomList, Rooms: []wire.RoomInfo{
		{Name: "Match_1", PlayerCount: 2, MaxPlayers: 2},
		{Name: "GlobalRoom", PlayerCount: 5, MaxPlayers: 20},
	}})
	require.Len(t, c.RoomListing(), 2)

	c.Apply(wire.ServerFrame{Type: wire.FrameRoomList, Rooms: nil})
	assert.Empty(t, c.RoomListing())
}

func TestApply_UnknownFrameIsIgnored(t *testing.T) {
	c := New()
	_, ok := c.Apply(wire.ServerFrame{Type: "Nonsense"})
	assert.False(t, ok)
}

func TestApply_EventFrameCarriesSender(t *testing.T) {
	c := New()
	ev, ok := c.Apply(wire.ServerFrame{
		Type:    wire.FrameEvent,
		Code:    1,
		Payload: []string{"Alice", "1"},
		Sender:  1,
	})
	require.True(t, ok)
	assert.Equal(t, relay.CustomEvent{Code: 1, Payload: []string{"Alice", "1"}, Sender: 1}, ev)
}
