package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"

	"github.com/MrWong99/gymvox/internal/observe"
)

// handleStream upgrades to a WebSocket and answers every text message, one
// transcript each, with one JSON [grammar.Result]. Binary messages close the
// connection with StatusUnsupportedData.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		// Accept has already written the HTTP error response.
		observe.Logger(r.Context()).Warn("server: stream upgrade failed", "err", err)
		return
	}
	conn.SetReadLimit(s.readLimit)

	ctx := r.Context()
	s.metrics.StreamConnections.Add(ctx, 1)
	defer s.metrics.StreamConnections.Add(context.WithoutCancel(ctx), -1)

	log := observe.Logger(ctx)
	log.Debug("server: stream opened", "remote", r.RemoteAddr)

	n := 0
	for {
		typ, msg, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				log.Debug("server: stream closed", "messages", n)
			default:
				if !errors.Is(err, context.Canceled) {
					log.Warn("server: stream read failed", "messages", n, "err", err)
				}
			}
			conn.CloseNow()
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "transcripts must be text messages")
			return
		}

		b, err := json.Marshal(s.analyze(ctx, "stream", string(msg)))
		if err != nil {
			conn.Close(websocket.StatusInternalError, "encode failed")
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
			log.Warn("server: stream write failed", "err", err)
			conn.CloseNow()
			return
		}
		n++
	}
}
