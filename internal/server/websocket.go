package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/livetemplate/tinkerpad/internal/session"
)

func newUpgrader(debug bool) websocket.Upgrader {
	u := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	if debug {
		// Any page may connect in development, except opaque origins such
		// as the sandboxed preview.
		u.CheckOrigin = func(r *http.Request) bool {
			return r.Header.Get("Origin") != "null"
		}
	}
	return u
}

// handleWebSocket carries action envelopes for one session. The current
// state is sent on connect, then every message gets exactly one reply.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxActionBodySize)

	debug := s.config.Server.Debug
	if debug {
		log.Printf("[WS] Client connected: %s (session %s)", conn.RemoteAddr(), sess.ID)
	}

	reply, _ := dispatch(sess, Envelope{Action: ActionState})
	if err := conn.WriteJSON(reply); err != nil {
		log.Printf("[WS] Failed to send initial state: %v", err)
		return
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close: %v", err)
			}
			break
		}

		if debug {
			log.Printf("[WS] Received: %s", message)
		}

		// Keep the session alive while the socket is in use.
		s.sessions.Get(sess.ID)

		reply = s.wsReply(sess, message)

		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("[WS] Failed to send reply: %v", err)
			break
		}
	}

	if debug {
		log.Printf("[WS] Client disconnected: %s", conn.RemoteAddr())
	}
}

// wsReply answers one WebSocket message under the session's action limit.
func (s *Server) wsReply(sess *session.Session, message []byte) Reply {
	if !s.actionLimits.Allow(sess.ID) {
		return Reply{Error: errRateLimited}
	}
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		return Reply{Error: "invalid action: " + err.Error()}
	}
	reply, _ := dispatch(sess, env)
	return reply
}
