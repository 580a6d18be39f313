package wsconn

import (
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"matchlobby/internal/relay"
	"matchlobby/internal/relayserver"
	"matchlobby/internal/ws"
)

// These tests run the real frame loop: registry behind ws.Handler on an
// httptest server, wsconn dialing it, JSON on the wire in both directions.

func startRelay(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	reg := relayserver.NewRegistry(ctx, zap.NewNop())
	srv := httptest.NewServer(ws.Handler(reg, zap.NewNop()))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, url, zap.NewNop())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// helper: skip events until the wanted type shows up, with a timeout so
// tests never hang
func waitEvent[E relay.Event](t *testing.T, c *Conn, within time.Duration) E {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				t.Fatalf("event channel closed while waiting for %T", *new(E))
			}
			if want, isWant := ev.(E); isWant {
				return want
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %T", *new(E))
		}
	}
}

func TestDial_DeliversConnectedWithAssignedID(t *testing.T) {
	url := startRelay(t)
	c := dial(t, url)

	if c.LocalID() == 0 {
		t.Fatalf("dial returned before the relay assigned an id")
	}
	connected := waitEvent[relay.Connected](t, c, time.Second)
	if connected.PlayerID != c.LocalID() {
		t.Fatalf("Connected carries id %d, LocalID is %d", connected.PlayerID, c.LocalID())
	}
}

func TestTwoClients_FullFrameLoop(t *testing.T) {
	url := startRelay(t)
	a := dial(t, url)
	b := dial(t, url)

	// a joins and syncs its name property.
	if err := a.JoinOrCreateRoom(relay.LobbyRoom, relay.LobbyCapacity); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	joinedA := waitEvent[relay.JoinedRoom](t, a, 2*time.Second)
	if joinedA.Room != relay.LobbyRoom || len(joinedA.Players) != 1 {
		t.Fatalf("unexpected join: %+v", joinedA)
	}

	if err := a.SetLocalProperties(map[string]string{relay.PropName: "Alice"}); err != nil {
		t.Fatalf("set props failed: %v", err)
	}
	props := waitEvent[relay.PropertiesUpdated](t, a, 2*time.Second)
	if props.PlayerID != a.LocalID() || props.Props[relay.PropName] != "Alice" {
		t.Fatalf("props did not round-trip: %+v", props)
	}

	// b joins and must see a's property in the roster it was handed.
	if err := b.JoinOrCreateRoom(relay.LobbyRoom, relay.LobbyCapacity); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	joinedB := waitEvent[relay.JoinedRoom](t, b, 2*time.Second)
	if len(joinedB.Players) != 2 {
		t.Fatalf("joiner should see both players: %+v", joinedB)
	}
	foundAlice := false
	for _, p := range joinedB.Players {
		if p.ID == a.LocalID() && p.Props[relay.PropName] == "Alice" {
			foundAlice = true
		}
	}
	if !foundAlice {
		t.Fatalf("a's name missing from b's join roster: %+v", joinedB.Players)
	}

	entered := waitEvent[relay.PlayerEntered](t, a, 2*time.Second)
	if entered.Player.ID != b.LocalID() {
		t.Fatalf("a should see b enter, got %+v", entered)
	}

	// Directed events survive the wire with code, payload and sender.
	payload := []string{"Alice", strconv.Itoa(a.LocalID())}
	if err := a.RaiseEvent(relay.EvInvite, payload, []int{b.LocalID()}); err != nil {
		t.Fatalf("raise failed: %v", err)
	}
	invite := waitEvent[relay.CustomEvent](t, b, 2*time.Second)
	if invite.Code != relay.EvInvite || invite.Sender != a.LocalID() {
		t.Fatalf("invite mangled in transit: %+v", invite)
	}
	if len(invite.Payload) != 2 || invite.Payload[0] != "Alice" || invite.Payload[1] != payload[1] {
		t.Fatalf("invite payload mangled in transit: %+v", invite.Payload)
	}

	if err := b.RaiseEvent(relay.EvMoveToRoom, []string{"Match_1"}, []int{a.LocalID()}); err != nil {
		t.Fatalf("raise failed: %v", err)
	}
	move := waitEvent[relay.CustomEvent](t, a, 2*time.Second)
	if move.Code != relay.EvMoveToRoom || move.Payload[0] != "Match_1" {
		t.Fatalf("move mangled in transit: %+v", move)
	}

	// Leave closes the loop: a hears LeftRoom, b hears PlayerLeft.
	if err := a.LeaveRoom(); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	waitEvent[relay.LeftRoom](t, a, 2*time.Second)
	left := waitEvent[relay.PlayerLeft](t, b, 2*time.Second)
	if left.PlayerID != a.LocalID() {
		t.Fatalf("b should see a leave, got %+v", left)
	}
	if remaining := b.Players(); len(remaining) != 1 || remaining[0].ID != b.LocalID() {
		t.Fatalf("b's cached roster should be just b, got %+v", remaining)
	}
}
