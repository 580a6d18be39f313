package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchlobby/internal/relayserver"
	"matchlobby/pkg/wire"
)

// Handler upgrades to a websocket and bridges frames to the registry:
// one writer goroutine draining the registry outbox, reader loop in the
// request goroutine.
func Handler(reg *relayserver.Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		log := log.With(zap.String("conn", connID))

		outbox := make(chan wire.ServerFrame, 32)
		reply := make(chan int, 1)
		reg.Inbox() <- relayserver.Connect{Outbox: outbox, Reply: reply}
		playerID := <-reply
		defer func() { reg.Inbox() <- relayserver.Disconnect{ID: playerID} }()

		log.Info("connection open", zap.Int("player", playerID))

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for frame := range outbox {
				payload, _ := json.Marshal(frame)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Info("connection closed", zap.Int("player", playerID))
					return
				}
				// Otherwise, just exit (Disconnect in defer):
				log.Info("connection lost", zap.Int("player", playerID), zap.Error(err))
				return
			}

			var cf wire.ClientFrame
			if err := json.Unmarshal(data, &cf); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"Error","error":"bad json"}`))
				continue
			}

			msg, ok := toRegistryMsg(playerID, cf)
			if !ok {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"Error","error":"unknown type"}`))
				continue
			}
			reg.Inbox() <- msg
		}
	}
}

func toRegistryMsg(playerID int, cf wire.ClientFrame) (relayserver.Msg, bool) {
	switch cf.Type {
	case wire.FrameJoinOrCreate:
		return relayserver.JoinOrCreate{ID: playerID, Room: cf.Room, MaxPlayers: cf.MaxPlayers}, true
	case wire.FrameLeave:
		return relayserver.Leave{ID: playerID}, true
	case wire.FrameSetProps:
		return relayserver.SetProps{ID: playerID, Props: cf.Props}, true
	case wire.FrameRaise:
		return relayserver.Raise{ID: playerID, Code: cf.Code, Payload: cf.Payload, Targets: cf.Targets}, true
	default:
		return nil, false
	}
}
