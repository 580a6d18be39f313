// Package relaytest wires relay.Conn implementations straight into a
// relayserver.Registry, no websockets involved. Tests get the real server
// semantics (join-or-create races, directed-event drops, property fanout)
// with deterministic in-process delivery.
package relaytest

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"matchlobby/internal/relay"
	"matchlobby/internal/relay/conncore"
	"matchlobby/internal/relayserver"
	"matchlobby/pkg/wire"
)

type Cluster struct {
	Registry *relayserver.Registry
	cancel   context.CancelFunc
}

// NewCluster starts a registry that is torn down with the test.
func NewCluster(t *testing.T) *Cluster {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cluster{
		Registry: relayserver.NewRegistry(ctx, zap.NewNop()),
		cancel:   cancel,
	}
	t.Cleanup(c.cancel)
	return c
}

// View reads registry state through its test-only message.
func (c *Cluster) View(t *testing.T) relayserver.View {
	t.Helper()
	reply := make(chan relayserver.View, 1)
	c.Registry.Inbox() <- relayserver.GetView{Reply: reply}
	return <-reply
}

type Conn struct {
	id     int
	reg    *relayserver.Registry
	core   *conncore.Core
	events chan relay.Event
	ctx    context.Context
	cancel context.CancelFunc
}

var _ relay.Conn = (*Conn)(nil)

// Connect registers a new player and starts its frame pump.
func (c *Cluster) Connect(t *testing.T) *Conn {
	t.Helper()

	outbox := make(chan wire.ServerFrame, 64)
	reply := make(chan int, 1)
	c.Registry.Inbox() <- relayserver.Connect{Outbox: outbox, Reply: reply}
	id := <-reply

	ctx, cancel := context.WithCancel(context.Background())
	conn := &Conn{
		id:     id,
		reg:    c.Registry,
		core:   conncore.New(),
		events: make(chan relay.Event, 64),
		ctx:    ctx,
		cancel: cancel,
	}
	go conn.pump(outbox)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (c *Conn) pump(outbox <-chan wire.ServerFrame) {
	defer close(c.events)
	for {
		select {
		case frame, ok := <-outbox:
			if !ok {
				return
			}
			if ev, applied := c.core.Apply(frame); applied {
				select {
				case c.events <- ev:
				case <-c.ctx.Done():
					return
				}
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Conn) JoinOrCreateRoom(name string, maxPlayers int) error {
	c.reg.Inbox() <- relayserver.JoinOrCreate{ID: c.id, Room: name, MaxPlayers: maxPlayers}
	return nil
}

func (c *Conn) LeaveRoom() error {
	c.reg.Inbox() <- relayserver.Leave{ID: c.id}
	return nil
}

func (c *Conn) SetLocalProperties(props map[string]string) error {
	c.reg.Inbox() <- relayserver.SetProps{ID: c.id, Props: props}
	return nil
}

func (c *Conn) RaiseEvent(code byte, payload []string, targets []int) error {
	c.reg.Inbox() <- relayserver.Raise{ID: c.id, Code: code, Payload: payload, Targets: targets}
	return nil
}

func (c *Conn) LocalID() int { return c.id }

func (c *Conn) Room() (string, bool) { return c.core.Room() }

func (c *Conn) Players() []relay.Player { return c.core.Players() }

func (c *Conn) RoomListing() []relay.RoomSummary { return c.core.RoomListing() }

func (c *Conn) Events() <-chan relay.Event { return c.events }

func (c *Conn) Close() error {
	c.reg.Inbox() <- relayserver.Disconnect{ID: c.id}
	c.cancel()
	return nil
}
