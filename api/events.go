package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aouyang1/albumflow/api/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxCommandSize = 512
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsClient is one websocket connection following one session.
type wsClient struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
}

type broadcastMessage struct {
	sessionID string
	data      []byte
}

// Hub fans session events out to the websocket clients following each session. Only Run touches the
// client sets.
type Hub struct {
	clients map[string]map[*wsClient]bool

	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan broadcastMessage
	drop       chan string
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan broadcastMessage),
		drop:       make(chan string),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for id := range h.clients {
				h.dropSession(id)
			}
			return
		case client := <-h.register:
			if h.clients[client.sessionID] == nil {
				h.clients[client.sessionID] = make(map[*wsClient]bool)
			}
			h.clients[client.sessionID][client] = true
		case client := <-h.unregister:
			h.remove(client)
		case id := <-h.drop:
			h.dropSession(id)
		case msg := <-h.broadcast:
			for client := range h.clients[msg.sessionID] {
				select {
				case client.send <- msg.data:
				default:
					slog.Warn("dropping slow event client", "session", msg.sessionID)
					h.remove(client)
				}
			}
		}
	}
}

// Publish sends data to every client of the session. It returns immediately once the hub stopped.
func (h *Hub) Publish(sessionID string, msg models.EventMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("unable to encode session event", "session", sessionID, "error", err)
		return
	}
	select {
	case h.broadcast <- broadcastMessage{sessionID: sessionID, data: data}:
	case <-h.done:
	}
}

// Drop disconnects every client of a closed session.
func (h *Hub) Drop(sessionID string) {
	select {
	case h.drop <- sessionID:
	case <-h.done:
	}
}

func (h *Hub) Register(c *wsClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *wsClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *wsClient) {
	clients, ok := h.clients[c.sessionID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.sessionID)
	}
}

func (h *Hub) dropSession(id string) {
	for c := range h.clients[id] {
		close(c.send)
	}
	delete(h.clients, id)
}

// writePump owns all writes to the connection and closes it when send is closed.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes commands until the connection fails, then unregisters the client.
func (c *wsClient) readPump(h *Hub, handle func(models.CommandMessage)) {
	defer func() {
		h.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxCommandSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd models.CommandMessage
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("event client disconnected", "session", c.sessionID, "error", err)
			}
			return
		}
		handle(cmd)
	}
}
