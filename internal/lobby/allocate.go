package lobby

import (
	"go.uber.org/zap"

	"matchlobby/internal/relay"
)

// allocateAndMove runs the accepting side of the pairing: pick a match
// room, tell the inviter to move there, then move ourselves.
func (s *Session) allocateAndMove(inviterID int) {
	room := pickMatchRoom(s.conn.RoomListing())
	s.log.Info("allocating match room", zap.String("room", room), zap.Int("inviter", inviterID))

	s.relayCall("send move", s.conn.RaiseEvent(relay.EvMoveToRoom, []string{room}, []int{inviterID}))
	s.switching = true
	s.switchTarget = room
	s.relayCall("leave for match", s.conn.LeaveRoom())
}

// pickMatchRoom returns the lowest-numbered Match_<k> absent from the
// cached listing, k starting at 1. The listing is eventually consistent;
// if two pairings race to the same k, join-or-create converges everyone
// who picked it into one room and the capacity check sorts out the rest.
func pickMatchRoom(listing []relay.RoomSummary) string {
	used := make(map[int]bool)
	for _, r := range listing {
		if k, ok := relay.MatchSeq(r.Name); ok {
			used[k] = true
		}
	}
	for k := 1; ; k++ {
		if !used[k] {
			return relay.MatchRoomName(k)
		}
	}
}
