// Package wsbroadcast is the real-time game-update channel of
// SPEC_FULL.md §5.8. It is adapted from the teacher's
// internal/websocket.Hub (client registry, per-room broadcast, ping/pong
// keepalive) and narrowed to a server-to-client push channel: rooms are
// keyed by gameId, and the only messages a client ever receives are the
// Lobby's own lifecycle events. There is no client-to-server game-move
// path here — moves are submitted over the HTTP API — so readPump exists
// only to keep the connection alive and observe disconnects.
package wsbroadcast

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vibechess/server/internal/chessengine"
	"github.com/vibechess/server/internal/logging"
	"github.com/vibechess/server/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MessageType classifies a pushed event.
type MessageType string

const (
	MessageTypeGameStarted MessageType = "game_started"
	MessageTypeMoveApplied MessageType = "move_applied"
	MessageTypeGameSettled MessageType = "game_settled"
)

// Message is the envelope pushed to every client subscribed to a gameId's
// room.
type Message struct {
	Type      MessageType `json:"type"`
	GameID    string      `json:"gameId"`
	Game      *models.Game `json:"game,omitempty"`
	Move      *chessengine.Move `json:"move,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type client struct {
	id     uuid.UUID
	gameID string
	conn   *websocket.Conn
	send   chan []byte
}

type room struct {
	clients map[uuid.UUID]*client
}

// Hub fans out game-lifecycle events to clients subscribed to a gameId's
// room. It implements lobby.Notifier.
type Hub struct {
	register   chan *client
	unregister chan *client
	publish    chan roomMessage
	log        *logging.Logger

	rooms map[string]*room
}

type roomMessage struct {
	gameID string
	data   []byte
}

// NewHub constructs a Hub. Call Run in its own goroutine before serving
// HandleWebSocket requests.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		publish:    make(chan roomMessage, 256),
		log:        logging.New("wsbroadcast"),
		rooms:      make(map[string]*room),
	}
}

// Run is the Hub's single-goroutine event loop, grounded on the teacher's
// Hub.Run select-loop shape.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			r, ok := h.rooms[c.gameID]
			if !ok {
				r = &room{clients: make(map[uuid.UUID]*client)}
				h.rooms[c.gameID] = r
			}
			r.clients[c.id] = c

		case c := <-h.unregister:
			if r, ok := h.rooms[c.gameID]; ok {
				if _, ok := r.clients[c.id]; ok {
					delete(r.clients, c.id)
					close(c.send)
					if len(r.clients) == 0 {
						delete(h.rooms, c.gameID)
					}
				}
			}

		case msg := <-h.publish:
			r, ok := h.rooms[msg.gameID]
			if !ok {
				continue
			}
			for id, c := range r.clients {
				select {
				case c.send <- msg.data:
				default:
					close(c.send)
					delete(r.clients, id)
				}
			}
		}
	}
}

func (h *Hub) publishMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Printf("failed to marshal %s for game %s: %v", msg.Type, msg.GameID, err)
		return
	}
	h.publish <- roomMessage{gameID: msg.GameID, data: data}
}

// GameStarted implements lobby.Notifier.
func (h *Hub) GameStarted(game *models.Game) {
	h.publishMessage(Message{Type: MessageTypeGameStarted, GameID: game.ID, Game: game, Timestamp: time.Now()})
}

// MoveApplied implements lobby.Notifier.
func (h *Hub) MoveApplied(game *models.Game, move chessengine.Move) {
	m := move
	h.publishMessage(Message{Type: MessageTypeMoveApplied, GameID: game.ID, Game: game, Move: &m, Timestamp: time.Now()})
}

// GameSettled implements lobby.Notifier.
func (h *Hub) GameSettled(game *models.Game) {
	h.publishMessage(Message{Type: MessageTypeGameSettled, GameID: game.ID, Game: game, Timestamp: time.Now()})
}

// HandleWebSocket upgrades the connection and subscribes it to the :id
// game's room. Read-only: the only thing inbound messages do is reset the
// read deadline via pong handling.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	gameID := c.Param("id")
	if gameID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing game id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Printf("websocket upgrade failed: %v", err)
		return
	}

	cl := &client{
		id:     uuid.New(),
		gameID: gameID,
		conn:   conn,
		send:   make(chan []byte, 32),
	}
	h.register <- cl

	go h.writePump(cl)
	go h.readPump(cl)
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
