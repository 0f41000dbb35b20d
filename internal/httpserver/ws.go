// internal/httpserver/ws.go
//
// Websocket play channel for puzzle sessions: GET /hanoi/{id}/ws.
// Messages are {type, data} envelopes. The client sends "move"; the server
// answers with "state", "error" or "solved" and closes after a solve.
// Moves go through the same applyMove path as POST /hanoi/move.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/labs/internal/hanoi"
)

type MessageType string

const (
	MessageTypeMove   MessageType = "move"
	MessageTypeState  MessageType = "state"
	MessageTypeSolved MessageType = "solved"
	MessageTypeError  MessageType = "error"
)

type (
	// Message is the envelope for both directions.
	Message struct {
		Type MessageType     `json:"type"`
		Data json.RawMessage `json:"data,omitempty"`
	}
	MoveMessageData struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	ErrorMessageData struct {
		Error   string `json:"error"`
		Message string `json:"message,omitempty"`
	}
)

const wsWriteTimeout = 5 * time.Second

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin allows same-host requests, the configured client origin,
// and clients that send no Origin at all.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.cfg.ClientOrigin {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// handleWS plays one puzzle session over a websocket.
// The client sends {type:"move",data:{from,to}}; every reply carries the board.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var view gameView
	if err := s.games.Update(r.Context(), id, func(g *hanoi.Game) error {
		view = viewOf(g)
		return nil
	}); err != nil {
		writeDomainErr(w, r, err)
		return
	}

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("websocket upgrade")
		return
	}
	defer func() { _ = conn.Close() }()

	log.Debug().Str("gameId", id).Msg("websocket connected")
	if view.State == hanoi.StateSolved {
		s.send(conn, MessageTypeSolved, view)
		return
	}
	s.send(conn, MessageTypeState, view)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("gameId", id).Msg("websocket read")
			}
			return
		}
		if msg.Type != MessageTypeMove {
			s.send(conn, MessageTypeError, ErrorMessageData{Error: "unknown_type", Message: string(msg.Type)})
			continue
		}
		var mv MoveMessageData
		if err := json.Unmarshal(msg.Data, &mv); err != nil {
			s.send(conn, MessageTypeError, ErrorMessageData{Error: "bad_json"})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
		view, err := s.applyMove(ctx, id, mv.From, mv.To)
		cancel()
		if err != nil {
			_, code := errorStatus(err)
			s.send(conn, MessageTypeError, ErrorMessageData{Error: code, Message: err.Error()})
			continue
		}
		if view.State == hanoi.StateSolved {
			s.send(conn, MessageTypeSolved, view)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "solved"),
				time.Now().Add(wsWriteTimeout))
			return
		}
		s.send(conn, MessageTypeState, view)
	}
}

func (s *Server) send(conn *websocket.Conn, t MessageType, data any) {
	b, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("encode websocket message")
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(Message{Type: t, Data: b}); err != nil {
		log.Debug().Err(err).Msg("websocket write")
	}
}
