// Package relay defines the narrow contract the lobby layer consumes from
// the room/messaging service: join-or-create rooms, player rosters, custom
// properties, and reliable directed events. Implementations live in wsconn
// (real transport) and relaytest (in-process).
package relay

import (
	"fmt"
	"strconv"
	"strings"
)

// Event codes carried by directed events. Payloads are at most three
// string fields.
const (
	EvInvite     byte = 1 // [inviter_name, inviter_id]
	EvDecline    byte = 2 // [decliner_name]
	EvMoveToRoom byte = 3 // [room_name]
)

const (
	// LobbyRoom is the shared room every idle client sits in.
	LobbyRoom     = "GlobalRoom"
	LobbyCapacity = 20

	// Match rooms are created on demand, two players each.
	MatchCapacity = 2
	matchPrefix   = "Match_"

	// PropName is the custom-property key carrying the display name.
	PropName = "name"
)

type Player struct {
	ID    int
	Props map[string]string
}

type RoomSummary struct {
	Name        string
	PlayerCount int
	MaxPlayers  int
}

// RoomKind is derived from the room name, never stored.
type RoomKind int

const (
	RoomLobby RoomKind = iota
	RoomMatch
)

func (r RoomSummary) Kind() RoomKind {
	if _, ok := MatchSeq(r.Name); ok {
		return RoomMatch
	}
	return RoomLobby
}

// MatchRoomName returns the name for the k-th match room.
func MatchRoomName(k int) string {
	return fmt.Sprintf("%s%d", matchPrefix, k)
}

// MatchSeq parses the sequence number out of a match-room name.
func MatchSeq(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, matchPrefix)
	if !ok {
		return 0, false
	}
	k, err := strconv.Atoi(rest)
	if err != nil || k < 1 {
		return 0, false
	}
	return k, true
}

// Conn is one client's connection to the relay service. Accessor methods
// reflect the relay's current view as of the last delivered event; the
// room listing is an eventually-consistent cache and may be stale.
//
// All calls are fire-and-forget from the protocol's point of view: a
// directed event whose targets have disconnected is silently dropped, and
// none of the operations are cancellable mid-flight.
type Conn interface {
	JoinOrCreateRoom(name string, maxPlayers int) error
	LeaveRoom() error
	SetLocalProperties(props map[string]string) error
	RaiseEvent(code byte, payload []string, targets []int) error

	LocalID() int
	Room() (name string, ok bool)
	Players() []Player
	RoomListing() []RoomSummary

	// Events delivers callbacks serially, in per-sender order. The channel
	// is closed when the connection dies.
	Events() <-chan Event

	Close() error
}
