// Package ws is the realtime endpoint: one persistent websocket per client,
// decoded frames forwarded into the session actor, session output written
// back by a dedicated writer goroutine.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/binaryblitz/binaryblitz-backend/internal/session"
	"github.com/binaryblitz/binaryblitz-backend/pkg/types"
)

const writeTimeout = 3 * time.Second

func Handler(sess *session.Session, allowedOrigins []string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := &websocket.AcceptOptions{}
		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			opts.InsecureSkipVerify = true
		} else {
			opts.OriginPatterns = allowedOrigins
		}

		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			logger.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		out := make(chan types.ServerMessage, 16)

		select {
		case sess.Inbox() <- session.Connect{ConnID: connID, Outbox: out}:
		case <-sess.Done():
			return
		}
		defer func() {
			select {
			case sess.Inbox() <- session.Disconnect{ConnID: connID}:
			case <-sess.Done():
			}
		}()

		// Writer goroutine: drains the session outbox until the session
		// closes it (shutdown or slow-client drop), then tears the socket
		// down so the reader below unblocks.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, err := json.Marshal(msg)
				if err != nil {
					logger.Error("marshal server message", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
			conn.Close(websocket.StatusGoingAway, "session closed outbox")
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Anything else also ends the connection; Disconnect in the
				// defer cleans up the roster entry.
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				reply, _ := json.Marshal(types.ServerMessage{Type: types.EvtGameError, Message: "bad json"})
				_ = conn.Write(r.Context(), websocket.MessageText, reply)
				continue
			}

			select {
			case sess.Inbox() <- session.FromClient{ConnID: connID, Msg: cm}:
			case <-sess.Done():
				return
			}
		}
	}
}
