package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // browser clients connect from arbitrary origins
	},
}

const (
	processingNotice    = "Looking into that..."
	genericErrorMessage = "Sorry, an error occurred while processing your request. Please try again."
)

// inboundFrame is the structured form of a client message. Clients may
// also send bare text, which is taken as the query verbatim.
type inboundFrame struct {
	Query string `json:"query"`
}

// outboundFrame is every message the server sends. Frames with Streaming
// set are partial updates; each turn ends with exactly one frame where
// Streaming is false.
type outboundFrame struct {
	Text      string   `json:"text"`
	Sources   []string `json:"sources"`
	Streaming bool     `json:"streaming"`
}

// handleChat owns one client connection from upgrade to disconnect. All
// reads and writes happen on this goroutine, so a turn is fully processed
// before the next message is read, and session cleanup cannot race an
// in-flight send.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[chat] upgrade failed for session %s: %v", sessionID, err)
		return
	}

	state := s.sessions.Create(sessionID)
	log.Printf("[chat] session %s connected (%d active)", sessionID, s.sessions.Count())

	defer func() {
		s.sessions.Remove(sessionID)
		conn.Close()
		log.Printf("[chat] session %s disconnected (%d active)", sessionID, s.sessions.Count())
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[chat] session %s read error: %v", sessionID, err)
			}
			return
		}

		query := parseInbound(data)
		if strings.TrimSpace(query) == "" {
			continue
		}

		if err := writeFrame(conn, processingNotice, true); err != nil {
			return
		}

		reply, err := s.agent.Respond(r.Context(), state.History, query, func(delta string) error {
			return writeFrame(conn, delta, true)
		})
		if err != nil {
			log.Printf("[chat] session %s: agent error: %v", sessionID, err)
			if writeErr := writeFrame(conn, genericErrorMessage, false); writeErr != nil {
				return
			}
			continue
		}

		if err := writeFrame(conn, reply, false); err != nil {
			return
		}
		state.Append(query, reply)
	}
}

func parseInbound(data []byte) string {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return string(data)
	}
	return frame.Query
}

func writeFrame(conn *websocket.Conn, text string, streaming bool) error {
	return conn.WriteJSON(outboundFrame{
		Text:      text,
		Sources:   []string{},
		Streaming: streaming,
	})
}
