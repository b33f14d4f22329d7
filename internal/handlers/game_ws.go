// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/fourrow/internal/game"
	"github.com/jason-s-yu/fourrow/internal/middleware"
	"github.com/jason-s-yu/fourrow/internal/models"
	"github.com/jason-s-yu/fourrow/internal/pile"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout = 5 * time.Second
	sendBuffer   = 32
)

// GameMessage is an incoming WebSocket message. Type is one of the action_*
// names or "ping"; the pile fields are only read for action_move.
type GameMessage struct {
	Type string `json:"type"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
	Card string `json:"card,omitempty"`
}

// client owns one connection's outgoing queue. A single writer goroutine
// keeps messages in the order they were queued.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (cl *client) writeLoop(logger logrus.FieldLogger) {
	for data := range cl.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := cl.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("failed to write websocket message")
		}
	}
}

// hub fans a session's events out to its connections.
type hub struct {
	gameID uuid.UUID
	logger logrus.FieldLogger

	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub(gameID uuid.UUID, logger logrus.FieldLogger) *hub {
	return &hub{
		gameID:  gameID,
		logger:  logger.WithField("session", gameID.String()),
		clients: make(map[*client]struct{}),
	}
}

func (h *hub) add(conn *websocket.Conn) *client {
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	go cl.writeLoop(h.logger)
	return cl
}

func (h *hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast runs from the session's BroadcastFn with the session lock held
// and never blocks: a connection whose queue is full misses the event.
func (h *hub) broadcast(ev game.GameEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.WithError(err).WithField("type", ev.Type).Error("failed to marshal event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		h.enqueue(cl, data)
	}
}

// sendTo queues a message for one connection.
func (h *hub) sendTo(cl *client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal message")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		h.enqueue(cl, data)
	}
}

// enqueue assumes h.mu is held.
func (h *hub) enqueue(cl *client, data []byte) {
	select {
	case cl.send <- data:
	default:
		h.logger.Warn("websocket send queue full, dropping message")
	}
}

func (h *hub) sendError(cl *client, msg string) {
	h.sendTo(cl, map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}

// GameWSHandler upgrades the connection, checks the game and token, sends the
// current board and then applies actions read from the socket.
func (gs *GameServer) GameWSHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"game"},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		gs.logger.WithError(err).Warn("websocket accept error")
		return
	}
	defer c.CloseNow()

	if c.Subprotocol() != "game" {
		c.Close(BadSubprotocolError, "client must use the 'game' subprotocol")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		c.Close(InvalidGameIDError, "invalid game id")
		return
	}
	s, ok := gs.Sessions.GetSession(id)
	if !ok {
		c.Close(InvalidGameIDError, "game not found")
		return
	}
	if err := gs.Signer.Authorize(extractToken(r), id); err != nil {
		gs.logger.WithError(err).WithField("session", id.String()).Warn("websocket auth failed")
		c.Close(InvalidAuthTokenError, "invalid token")
		return
	}

	middleware.LogWebSocketConnect(gs.logger, r.RemoteAddr, r.URL.Path)
	h, cl := gs.join(id, c)

	st := s.State()
	h.sendTo(cl, game.GameEvent{Type: game.EventSyncState, GameID: id, State: &st})

	err = gs.readGameMessages(r.Context(), c, h, cl, s)
	gs.leave(h, cl)
	middleware.LogWebSocketDisconnect(gs.logger, r.RemoteAddr, r.URL.Path, err)
	c.Close(websocket.StatusNormalClosure, "")
}

// readGameMessages applies each action read from c until the connection
// closes. A normal close returns nil.
func (gs *GameServer) readGameMessages(ctx context.Context, c *websocket.Conn, h *hub, cl *client, s *game.Session) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(cl, "invalid JSON format")
			continue
		}

		switch msg.Type {
		case "ping":
			h.sendTo(cl, map[string]string{"type": "pong"})
		case models.ActionHint:
			// a found hint is broadcast by the session
			if _, ok := s.Hint(); !ok {
				h.sendTo(cl, map[string]interface{}{"type": game.EventHint, "gameId": s.ID, "hint": nil})
			}
		default:
			res, err := s.Apply(models.GameAction{
				ActionType: msg.Type,
				From:       msg.From,
				To:         msg.To,
				Card:       msg.Card,
			})
			if err != nil {
				h.sendError(cl, err.Error())
				continue
			}
			// idle draws change nothing, so the session does not broadcast them
			if dr, ok := res.(game.DrawResult); ok && dr.Outcome == pile.DrawIdle {
				h.sendTo(cl, game.GameEvent{Type: game.EventDraw, GameID: s.ID, Draw: &dr})
			}
		}
	}
}
