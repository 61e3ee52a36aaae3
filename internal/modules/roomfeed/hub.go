// Package roomfeed pushes committed room status changes to connected staff
// clients over websockets.
package roomfeed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"hotel/internal/domain"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 64
)

// client owns one connection. Only writePump writes to conn; everyone else
// queues on send.
type client struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func newClient(userID int64, conn *websocket.Conn) *client {
	return &client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue never blocks. It reports false when the client is gone or its
// buffer is full.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Hub keeps one connection per user; a second connection replaces the first.
type Hub struct {
	connections map[int64]*client
	mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]*client),
	}
}

func (h *Hub) register(userID int64, conn *websocket.Conn) *client {
	c := newClient(userID, conn)

	h.mutex.Lock()
	old, exists := h.connections[userID]
	h.connections[userID] = c
	h.mutex.Unlock()

	if exists {
		old.close()
	}
	go c.writePump()
	return c
}

// unregister drops c if it is still the user's current connection.
func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	if cur, exists := h.connections[c.userID]; exists && cur == c {
		delete(h.connections, c.userID)
	}
	h.mutex.Unlock()
	c.close()
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

// RoomStatusChanged queues change for every connected client and returns
// without waiting on the network.
func (h *Hub) RoomStatusChanged(ctx context.Context, change domain.RoomStatusChange) {
	h.Broadcast(ctx, NewRoomStatusEvent(change))
}

// Broadcast queues msg for every client. A client that cannot keep up is
// disconnected so it reconnects and reloads the rooms.
func (h *Hub) Broadcast(ctx context.Context, msg *ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "encoding room feed message", "type", msg.Type, "error", err)
		return
	}

	h.mutex.RLock()
	targets := make([]*client, 0, len(h.connections))
	for _, c := range h.connections {
		targets = append(targets, c)
	}
	h.mutex.RUnlock()

	for _, c := range targets {
		if !c.enqueue(data) {
			slog.WarnContext(ctx, "dropping slow room feed client", "user_id", c.userID)
			h.unregister(c)
		}
	}
}

func (h *Hub) Close() {
	h.mutex.Lock()
	targets := h.connections
	h.connections = make(map[int64]*client)
	h.mutex.Unlock()

	for _, c := range targets {
		c.close()
	}
}
