// Package conncore holds the client-side relay state machine shared by the
// websocket transport and the in-process test relay: it folds server frames
// into the cached local view (current room, roster, room listing) and
// translates each frame into the relay event the lobby layer consumes.
package conncore

import (
	"sync"

	"matchlobby/internal/relay"
	"matchlobby/pkg/wire"
)

type Core struct {
	mu      sync.Mutex
	localID int
	room    string
	inRoom  bool
	players []relay.Player
	listing []relay.RoomSummary
}

func New() *Core { return &Core{} }

// Apply folds one server frame into the cached view and returns the relay
// event it maps to. ok is false for frames with no client-visible event.
//
// Apply is called from the transport's read goroutine while accessors are
// called from the session goroutine, hence the lock.
func (c *Core) Apply(f wire.ServerFrame) (ev relay.Event, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch f.Type {
	case wire.FrameWelcome:
		c.localID = f.PlayerID
		return relay.Connected{PlayerID: f.PlayerID}, true

	case wire.FrameJoinedRoom:
		c.room = f.Room
		c.inRoom = true
		c.players = toPlayers(f.Players)
		return relay.JoinedRoom{Room: f.Room, Players: toPlayers(f.Players)}, true

	case wire.FrameLeftRoom:
		c.room = ""
		c.inRoom = false
		c.players = nil
		return relay.LeftRoom{}, true

	case wire.FramePlayerEntered:
		if len(f.Players) == 0 {
			return nil, false
		}
		p := toPlayer(f.Players[0])
		// The cache keeps its own copy so later property merges cannot
		// reach into the event already handed out.
		c.players = append(c.players, clonePlayer(p))
		return relay.PlayerEntered{Player: p}, true

	case wire.FramePlayerLeft:
		kept := c.players[:0]
		for _, p := range c.players {
			if p.ID != f.PlayerID {
				kept = append(kept, p)
			}
		}
		c.players = kept
		return relay.PlayerLeft{PlayerID: f.PlayerID}, true

	case wire.FramePropsUpdated:
		for i := range c.players {
			if c.players[i].ID != f.PlayerID {
				continue
			}
			if c.players[i].Props == nil {
				c.players[i].Props = make(map[string]string)
			}
			for k, v := range f.Props {
				c.players[i].Props[k] = v
			}
		}
		return relay.PropertiesUpdated{PlayerID: f.PlayerID, Props: f.Props}, true

	case wire.FrameRoomList:
		c.listing = toSummaries(f.Rooms)
		return relay.RoomListUpdate{Rooms: toSummaries(f.Rooms)}, true

	case wire.FrameEvent:
		return relay.CustomEvent{Code: f.Code, Payload: f.Payload, Sender: f.Sender}, true

	case wire.FrameError:
		return relay.OperationFailed{Reason: f.Error}, true
	}
	return nil, false
}

func (c *Core) LocalID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localID
}

func (c *Core) Room() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room, c.inRoom
}

// Players returns a copy of the current room roster in relay order.
func (c *Core) Players() []relay.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]relay.Player, len(c.players))
	for i, p := range c.players {
		out[i] = clonePlayer(p)
	}
	return out
}

func (c *Core) RoomListing() []relay.RoomSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]relay.RoomSummary, len(c.listing))
	copy(out, c.listing)
	return out
}

func toPlayers(infos []wire.PlayerInfo) []relay.Player {
	out := make([]relay.Player, len(infos))
	for i, pi := range infos {
		out[i] = toPlayer(pi)
	}
	return out
}

func toPlayer(pi wire.PlayerInfo) relay.Player {
	return clonePlayer(relay.Player{ID: pi.ID, Props: pi.Props})
}

func clonePlayer(p relay.Player) relay.Player {
	props := make(map[string]string, len(p.Props))
	for k, v := range p.Props {
		props[k] = v
	}
	return relay.Player{ID: p.ID, Props: props}
}

func toSummaries(rooms []wire.RoomInfo) []relay.RoomSummary {
	out := make([]relay.RoomSummary, len(rooms))
	for i, r := range rooms {
		out[i] = relay.RoomSummary{Name: r.Name, PlayerCount: r.PlayerCount, MaxPlayers: r.MaxPlayers}
	}
	return out
}
