package lobby

import (
	"strconv"

	"go.uber.org/zap"

	"matchlobby/internal/relay"
)

// Invite/decline/move protocol. Three directed event codes, payloads of at
// most three string fields, reliable channel, no acknowledgements. A
// target that disconnected between roster refresh and send just never
// receives anything; the sender is not told.

func (s *Session) sendInvite(targetID int) {
	if targetID == s.conn.LocalID() {
		s.log.Debug("ignoring self-invite")
		return
	}
	if !s.rosterHas(targetID) {
		s.log.Debug("invite target not in room", zap.Int("target", targetID))
		return
	}
	s.outboundTarget = targetID
	payload := []string{s.name, strconv.Itoa(s.conn.LocalID())}
	s.relayCall("send invite", s.conn.RaiseEvent(relay.EvInvite, payload, []int{targetID}))
	s.log.Info("invite sent", zap.Int("target", targetID))
}

func (s *Session) acceptInvite() {
	if s.inbound == nil {
		return
	}
	inviterID := s.inbound.id
	s.inbound = nil
	s.allocateAndMove(inviterID)
}

func (s *Session) declineInvite() {
	if s.inbound == nil {
		return
	}
	inviterID := s.inbound.id
	s.inbound = nil
	s.relayCall("send decline", s.conn.RaiseEvent(relay.EvDecline, []string{s.name}, []int{inviterID}))
	s.log.Info("invite declined", zap.Int("inviter", inviterID))
}

func (s *Session) handleCustom(e relay.CustomEvent) {
	switch e.Code {
	case relay.EvInvite:
		if len(e.Payload) < 2 {
			s.log.Warn("malformed invite payload")
			return
		}
		inviterID, err := strconv.Atoi(e.Payload[1])
		if err != nil {
			s.log.Warn("malformed inviter id", zap.String("raw", e.Payload[1]))
			return
		}
		// A newer invite overwrites a pending one; there is exactly one
		// armed invite per client, never a merge.
		s.inbound = &pendingInvite{id: inviterID, name: e.Payload[0]}
		s.notify(InviteReceived{Name: e.Payload[0], ID: inviterID})

	case relay.EvDecline:
		if len(e.Payload) < 1 {
			s.log.Warn("malformed decline payload")
			return
		}
		s.outboundTarget = 0
		s.notify(DeclineReceived{Name: e.Payload[0]})

	case relay.EvMoveToRoom:
		if len(e.Payload) < 1 {
			s.log.Warn("malformed move payload")
			return
		}
		// Our invite was accepted: follow the acceptor into the room it
		// chose.
		s.outboundTarget = 0
		s.switching = true
		s.switchTarget = e.Payload[0]
		s.relayCall("leave for match", s.conn.LeaveRoom())

	default:
		s.log.Debug("unknown event code", zap.Uint8("code", e.Code))
	}
}
