// Package relayserver is the reference relay service: rooms with
// join-or-create semantics, per-player custom properties, directed events,
// and room-list fanout. It implements exactly the contract internal/relay
// consumes, nothing more.
package relayserver

import (
	"context"

	"go.uber.org/zap"

	"matchlobby/pkg/wire"
)

type Msg interface{ isRegistryMsg() }

// Connect registers a new player. The assigned id is sent on Reply and a
// Welcome frame plus a room-list snapshot are queued on Outbox.
type Connect struct {
	Outbox chan wire.ServerFrame
	Reply  chan int
}

type Disconnect struct{ ID int }

type JoinOrCreate struct {
	ID         int
	Room       string
	MaxPlayers int
}

type Leave struct{ ID int }

type SetProps struct {
	ID    int
	Props map[string]string
}

type Raise struct {
	ID      int
	Code    byte
	Payload []string
	Targets []int
}

type Shutdown struct{}

// GetView exposes internal state for tests without data races.
type GetView struct{ Reply chan View }

type View struct {
	NumPlayers int
	Rooms      map[string][]int // room name -> member ids in join order
}

func (Connect) isRegistryMsg()      {}
func (Disconnect) isRegistryMsg()   {}
func (JoinOrCreate) isRegistryMsg() {}
func (Leave) isRegistryMsg()        {}
func (SetProps) isRegistryMsg()     {}
func (Raise) isRegistryMsg()        {}
func (Shutdown) isRegistryMsg()     {}
func (GetView) isRegistryMsg()      {}

type player struct {
	id     int
	props  map[string]string
	outbox chan wire.ServerFrame
	room   *room
}

type room struct {
	name       string
	maxPlayers int
	members    []*player // join order; the order rosters are reported in
}

type Registry struct {
	inbox   chan Msg
	players map[int]*player
	rooms   map[string]*room
	nextID  int
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRegistry(parent context.Context, log *zap.Logger) *Registry {
	ctx, cancel := context.WithCancel(parent)
	r := &Registry{
		inbox:   make(chan Msg, 64),
		players: make(map[int]*player),
		rooms:   make(map[string]*room),
		nextID:  0,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go r.loop()
	return r
}

func (r *Registry) Inbox() chan<- Msg { return r.inbox }

func (r *Registry) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Connect:
				r.nextID++
				p := &player{id: r.nextID, props: make(map[string]string), outbox: msg.Outbox}
				r.players[p.id] = p
				msg.Reply <- p.id
				r.send(p, wire.ServerFrame{Type: wire.FrameWelcome, PlayerID: p.id})
				r.send(p, wire.ServerFrame{Type: wire.FrameRoomList, Rooms: r.roomList()})
				r.log.Info("player connected", zap.Int("player", p.id))

			case Disconnect:
				p := r.players[msg.ID]
				if p == nil {
					break
				}
				r.removeFromRoom(p, false)
				delete(r.players, p.id)
				close(p.outbox) // ends the transport's writer
				r.log.Info("player disconnected", zap.Int("player", p.id))

			case JoinOrCreate:
				r.joinOrCreate(msg)

			case Leave:
				if p := r.players[msg.ID]; p != nil {
					r.removeFromRoom(p, true)
				}

			case SetProps:
				r.setProps(msg)

			case Raise:
				r.raise(msg)

			case GetView:
				view := View{NumPlayers: len(r.players), Rooms: make(map[string][]int)}
				for name, rm := range r.rooms {
					ids := make([]int, len(rm.members))
					for i, m := range rm.members {
						ids[i] = m.id
					}
					view.Rooms[name] = ids
				}
				msg.Reply <- view

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Registry) joinOrCreate(msg JoinOrCreate) {
	p := r.players[msg.ID]
	if p == nil {
		return
	}
	if p.room != nil {
		r.send(p, wire.ServerFrame{Type: wire.FrameError, Error: "already in a room"})
		return
	}

	rm := r.rooms[msg.Room]
	if rm == nil {
		// Whichever client arrives first creates the room; a racing second
		// join lands here and takes the existing one.
		rm = &room{name: msg.Room, maxPlayers: msg.MaxPlayers}
		r.rooms[msg.Room] = rm
		r.log.Info("room created", zap.String("room", rm.name), zap.Int("max_players", rm.maxPlayers))
	}
	if len(rm.members) >= rm.maxPlayers {
		r.send(p, wire.ServerFrame{Type: wire.FrameError, Error: "room full: " + rm.name})
		return
	}

	rm.members = append(rm.members, p)
	p.room = rm

	roster := make([]wire.PlayerInfo, len(rm.members))
	for i, m := range rm.members {
		roster[i] = wire.PlayerInfo{ID: m.id, Props: cloneProps(m.props)}
	}
	r.send(p, wire.ServerFrame{Type: wire.FrameJoinedRoom, Room: rm.name, Players: roster})

	entered := wire.ServerFrame{
		Type:    wire.FramePlayerEntered,
		Players: []wire.PlayerInfo{{ID: p.id, Props: cloneProps(p.props)}},
	}
	for _, m := range rm.members {
		if m != p {
			r.send(m, entered)
		}
	}
	r.broadcastRoomList()
}

// removeFromRoom takes p out of its room, if any. notify controls whether
// the leaver gets a LeftRoom frame (not wanted on disconnect: the outbox
// is already gone).
func (r *Registry) removeFromRoom(p *player, notify bool) {
	rm := p.room
	if rm == nil {
		if notify {
			// Leave without a room is a no-op but the client still expects
			// the callback, otherwise its transition controller stalls.
			r.send(p, wire.ServerFrame{Type: wire.FrameLeftRoom})
		}
		return
	}

	kept := make([]*player, 0, len(rm.members))
	for _, m := range rm.members {
		if m != p {
			kept = append(kept, m)
		}
	}
	rm.members = kept
	p.room = nil

	if notify {
		r.send(p, wire.ServerFrame{Type: wire.FrameLeftRoom})
	}
	left := wire.ServerFrame{Type: wire.FramePlayerLeft, PlayerID: p.id}
	for _, m := range rm.members {
		r.send(m, left)
	}

	if len(rm.members) == 0 {
		delete(r.rooms, rm.name)
		r.log.Info("room removed", zap.String("room", rm.name))
	}
	r.broadcastRoomList()
}

func (r *Registry) setProps(msg SetProps) {
	p := r.players[msg.ID]
	if p == nil {
		return
	}
	for k, v := range msg.Props {
		p.props[k] = v
	}
	if p.room == nil {
		return
	}
	update := wire.ServerFrame{Type: wire.FramePropsUpdated, PlayerID: p.id, Props: cloneProps(msg.Props)}
	// The setter hears it too, same as everyone else in the room.
	for _, m := range p.room.members {
		r.send(m, update)
	}
}

func (r *Registry) raise(msg Raise) {
	sender := r.players[msg.ID]
	if sender == nil {
		return
	}
	frame := wire.ServerFrame{Type: wire.FrameEvent, Code: msg.Code, Payload: msg.Payload, Sender: sender.id}
	for _, target := range msg.Targets {
		t := r.players[target]
		if t == nil {
			// Target disconnected between roster refresh and send. The
			// event simply has zero recipients; the sender is not told.
			r.log.Debug("directed event dropped", zap.Int("target", target), zap.Uint8("code", msg.Code))
			continue
		}
		r.send(t, frame)
	}
}

func (r *Registry) roomList() []wire.RoomInfo {
	out := make([]wire.RoomInfo, 0, len(r.rooms))
	for _, rm := range r.rooms {
		out = append(out, wire.RoomInfo{Name: rm.name, PlayerCount: len(rm.members), MaxPlayers: rm.maxPlayers})
	}
	return out
}

func (r *Registry) broadcastRoomList() {
	frame := wire.ServerFrame{Type: wire.FrameRoomList, Rooms: r.roomList()}
	for _, p := range r.players {
		r.send(p, frame)
	}
}

// send never blocks the registry loop. A consumer that cannot keep up is
// dropped, same policy as any other disconnect.
func (r *Registry) send(p *player, f wire.ServerFrame) {
	if r.players[p.id] != p {
		// Already dropped mid-fanout; its outbox is closed.
		return
	}
	select {
	case p.outbox <- f:
	default:
		r.log.Warn("slow consumer dropped", zap.Int("player", p.id))
		close(p.outbox)
		r.removeFromRoom(p, false)
		delete(r.players, p.id)
	}
}

func (r *Registry) shutdown() {
	for id, p := range r.players {
		close(p.outbox)
		delete(r.players, id)
	}
	clear(r.rooms)
	r.cancel()
}

func cloneProps(props map[string]string) map[string]string {
	out := make(map[string]string, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
