// Package wsconn is the websocket implementation of the relay.Conn
// contract. Frames go out synchronously from the caller; incoming frames
// are folded into a conncore cache by a read goroutine and surfaced on the
// event channel.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"matchlobby/internal/relay"
	"matchlobby/internal/relay/conncore"
	"matchlobby/pkg/wire"
)

const writeTimeout = 3 * time.Second

var ErrConnClosed = errors.New("relay connection closed")

type Conn struct {
	ws     *websocket.Conn
	core   *conncore.Core
	events chan relay.Event
	log    *zap.Logger

	writeMu sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

var _ relay.Conn = (*Conn)(nil)

// Dial connects to a relay server and blocks until the Welcome frame has
// assigned the local player id. The Connected event is still delivered on
// Events so the consumer sees the same callback sequence either way.
func Dial(ctx context.Context, url string, log *zap.Logger) (*Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	connCtx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		ws:     ws,
		core:   conncore.New(),
		events: make(chan relay.Event, 64),
		log:    log,
		ctx:    connCtx,
		cancel: cancel,
	}

	// Read the welcome inline so LocalID is valid on return.
	_, data, err := ws.Read(ctx)
	if err != nil {
		cancel()
		ws.Close(websocket.StatusProtocolError, "no welcome")
		return nil, err
	}
	var welcome wire.ServerFrame
	if err := json.Unmarshal(data, &welcome); err != nil || welcome.Type != wire.FrameWelcome {
		cancel()
		ws.Close(websocket.StatusProtocolError, "bad welcome")
		return nil, errors.New("expected Welcome frame")
	}
	if ev, ok := c.core.Apply(welcome); ok {
		c.events <- ev
	}

	go c.readLoop()
	return c, nil
}

func (c *Conn) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.ws.Read(c.ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if c.ctx.Err() == nil {
					c.log.Warn("relay read failed", zap.Error(err))
				}
			}
			return
		}

		var frame wire.ServerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Warn("bad frame from relay", zap.Error(err))
			continue
		}
		if ev, ok := c.core.Apply(frame); ok {
			// Blocking send keeps delivery in order; the session drains
			// continuously so this only stalls if the consumer is gone.
			select {
			case c.events <- ev:
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Conn) write(frame wire.ClientFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.ctx.Err() != nil {
		return ErrConnClosed
	}
	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, payload)
}

func (c *Conn) JoinOrCreateRoom(name string, maxPlayers int) error {
	return c.write(wire.ClientFrame{Type: wire.FrameJoinOrCreate, Room: name, MaxPlayers: maxPlayers})
}

func (c *Conn) LeaveRoom() error {
	return c.write(wire.ClientFrame{Type: wire.FrameLeave})
}

func (c *Conn) SetLocalProperties(props map[string]string) error {
	return c.write(wire.ClientFrame{Type: wire.FrameSetProps, Props: props})
}

func (c *Conn) RaiseEvent(code byte, payload []string, targets []int) error {
	return c.write(wire.ClientFrame{Type: wire.FrameRaise, Code: code, Payload: payload, Targets: targets})
}

func (c *Conn) LocalID() int { return c.core.LocalID() }

func (c *Conn) Room() (string, bool) { return c.core.Room() }

func (c *Conn) Players() []relay.Player { return c.core.Players() }

func (c *Conn) RoomListing() []relay.RoomSummary { return c.core.RoomListing() }

func (c *Conn) Events() <-chan relay.Event { return c.events }

func (c *Conn) Close() error {
	c.cancel()
	return c.ws.Close(websocket.StatusNormalClosure, "bye")
}
