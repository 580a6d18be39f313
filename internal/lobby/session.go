// Package lobby implements the two-party matchmaking layer on top of the
// relay contract: the shared-lobby roster, the invite/decline protocol, the
// match-room allocation handshake, and the room-transition state machine.
//
// Everything runs on one goroutine per client. Relay callbacks and UI
// intents land in the same inbox and are handled serially, so there is no
// locking anywhere in the protocol state.
package lobby

import (
	"context"

	"go.uber.org/zap"

	"matchlobby/internal/relay"
)

type Msg interface{ isSessionMsg() }

// UI intents.

type SetName struct{ Name string }

type Invite struct{ TargetID int }

type Accept struct{}

type Decline struct{}

// LeaveMatch abandons the current room; the transition controller routes
// the client back to the shared lobby. This is also the manual escape
// hatch for a negotiation that stalled (peer gone mid-transition).
type LeaveMatch struct{}

type Shutdown struct{}

// GetState reflects internal state for tests without data races.
type GetState struct{ Reply chan View }

func (SetName) isSessionMsg()    {}
func (Invite) isSessionMsg()     {}
func (Accept) isSessionMsg()     {}
func (Decline) isSessionMsg()    {}
func (LeaveMatch) isSessionMsg() {}
func (Shutdown) isSessionMsg()   {}
func (GetState) isSessionMsg()   {}

// Notices are what the UI renders. The outbox never carries protocol
// state, only outcomes.
type Notice interface{ isNotice() }

type RosterChanged struct{ Players []PlayerIdentity }

type InviteReceived struct {
	Name string
	ID   int
}

type DeclineReceived struct{ Name string }

// MatchReady fires exactly once per match room entry, when occupancy
// reaches two.
type MatchReady struct {
	Room    string
	Players []PlayerIdentity
}

type ReturnedToLobby struct{ Room string }

func (RosterChanged) isNotice()   {}
func (InviteReceived) isNotice()  {}
func (DeclineReceived) isNotice() {}
func (MatchReady) isNotice()      {}
func (ReturnedToLobby) isNotice() {}

type View struct {
	Room           string
	InRoom         bool
	Roster         []PlayerIdentity
	PendingInviter int // 0 = no inbound invite armed
	OutboundTarget int // 0 = no invite sent, or it was declined
	Switching      bool
	SwitchTarget   string
	MatchStarted   bool
}

type pendingInvite struct {
	id   int
	name string
}

type Session struct {
	conn relay.Conn
	name string

	inbox  chan Msg
	outbox chan Notice

	roster         []PlayerIdentity
	inbound        *pendingInvite
	outboundTarget int

	// Room-transition intent: set before LeaveRoom, consumed on the next
	// LeftRoom callback. While switching, a leave resumes into
	// switchTarget instead of the default lobby.
	switching    bool
	switchTarget string

	matchStarted bool

	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New starts a session over an already-connected relay conn. name is the
// local display name; it is pushed as a custom property on every room
// join.
func New(parent context.Context, conn relay.Conn, name string, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		conn:   conn,
		name:   name,
		inbox:  make(chan Msg, 64),
		outbox: make(chan Notice, 64),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) Outbox() <-chan Notice { return s.outbox }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case SetName:
				s.setName(msg.Name)
			case Invite:
				s.sendInvite(msg.TargetID)
			case Accept:
				s.acceptInvite()
			case Decline:
				s.declineInvite()
			case LeaveMatch:
				if _, ok := s.conn.Room(); ok {
					s.relayCall("leave room", s.conn.LeaveRoom())
				}
			case GetState:
				msg.Reply <- s.view()
			case Shutdown:
				s.shutdown()
				return
			}

		case ev, ok := <-s.conn.Events():
			if !ok {
				// Connection died. Nothing to surface: a client that
				// stops producing callbacks just goes quiet (known gap,
				// no retry policy is defined).
				s.shutdown()
				return
			}
			s.handleRelayEvent(ev)
		}
	}
}

func (s *Session) handleRelayEvent(ev relay.Event) {
	switch e := ev.(type) {
	case relay.Connected:
		s.relayCall("join lobby", s.conn.JoinOrCreateRoom(relay.LobbyRoom, relay.LobbyCapacity))

	case relay.JoinedRoom:
		s.matchStarted = false
		s.relayCall("set name property", s.conn.SetLocalProperties(map[string]string{relay.PropName: s.name}))
		s.refreshRoster()
		if _, isMatch := relay.MatchSeq(e.Room); !isMatch {
			s.notify(ReturnedToLobby{Room: e.Room})
		}
		s.checkMatchReady()

	case relay.LeftRoom:
		// Transition controller: Switching resumes into the pending
		// target, Idle falls back to the shared lobby.
		if s.switching {
			target := s.switchTarget
			s.switching = false
			s.switchTarget = ""
			s.relayCall("join match room", s.conn.JoinOrCreateRoom(target, relay.MatchCapacity))
		} else {
			s.relayCall("rejoin lobby", s.conn.JoinOrCreateRoom(relay.LobbyRoom, relay.LobbyCapacity))
		}

	case relay.PlayerEntered:
		s.refreshRoster()
		s.checkMatchReady()

	case relay.PlayerLeft:
		s.refreshRoster()

	case relay.PropertiesUpdated:
		s.refreshRoster()

	case relay.RoomListUpdate:
		// Cached inside the conn; the allocator reads it on demand.

	case relay.CustomEvent:
		s.handleCustom(e)

	case relay.OperationFailed:
		s.log.Warn("relay rejected operation", zap.String("reason", e.Reason))
	}
}

func (s *Session) setName(name string) {
	if name == "" {
		return
	}
	s.name = name
	if _, ok := s.conn.Room(); ok {
		s.relayCall("set name property", s.conn.SetLocalProperties(map[string]string{relay.PropName: name}))
	}
}

func (s *Session) view() View {
	room, inRoom := s.conn.Room()
	v := View{
		Room:           room,
		InRoom:         inRoom,
		Roster:         append([]PlayerIdentity(nil), s.roster...),
		OutboundTarget: s.outboundTarget,
		Switching:      s.switching,
		SwitchTarget:   s.switchTarget,
		MatchStarted:   s.matchStarted,
	}
	if s.inbound != nil {
		v.PendingInviter = s.inbound.id
	}
	return v
}

func (s *Session) refreshRoster() {
	s.roster = buildRoster(s.conn.Players())
	s.notify(RosterChanged{Players: append([]PlayerIdentity(nil), s.roster...)})
}

// checkMatchReady fires the match transition when a match room reaches
// two occupants. matchStarted makes it idempotent: join-room and
// player-entered both funnel through here and only the first full view
// triggers.
func (s *Session) checkMatchReady() {
	room, ok := s.conn.Room()
	if !ok {
		return
	}
	if _, isMatch := relay.MatchSeq(room); !isMatch {
		return
	}
	players := s.conn.Players()
	if len(players) != relay.MatchCapacity || s.matchStarted {
		return
	}
	s.matchStarted = true
	s.log.Info("match ready", zap.String("room", room))
	s.notify(MatchReady{Room: room, Players: buildRoster(players)})
}

func (s *Session) notify(n Notice) {
	select {
	case s.outbox <- n:
	case <-s.ctx.Done():
	}
}

// relayCall logs a failed relay operation and otherwise drops it. Nothing
// in the protocol retries; the worst case is a stalled negotiation the
// user resolves with LeaveMatch.
func (s *Session) relayCall(op string, err error) {
	if err != nil {
		s.log.Warn("relay call failed", zap.String("op", op), zap.Error(err))
	}
}

func (s *Session) shutdown() {
	s.cancel()
	close(s.outbox)
}
