package roomfeed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"hotel/internal/authz"
	"hotel/internal/domain"
	"hotel/internal/pkg/jwt"
	"hotel/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades staff connections and attaches them to the hub.
type WSHandler struct {
	hub        *Hub
	jwtService *jwt.Service
	upgrader   websocket.Upgrader
}

// NewWSHandler accepts connections from allowedOrigins only; an empty list
// allows any origin.
func NewWSHandler(hub *Hub, jwtService *jwt.Service, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSHandler{
		hub:        hub,
		jwtService: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

func (h *WSHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/ws/rooms", h.HandleWebSocket)
}

// HandleWebSocket serves GET /ws/rooms?token=JWT. Browsers cannot set
// headers on websocket requests, so the token travels in the query.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	actor := authz.Actor{ID: claims.UserID, Role: domain.UserRole(claims.Role), Email: claims.Email}
	if err := authz.Authorize(actor, authz.OpWatchRooms); err != nil {
		response.FromError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "user_id", actor.ID, "error", err)
		return
	}

	cl := h.hub.register(actor.ID, conn)
	slog.Info("room feed connected", "user_id", actor.ID)
	defer func() {
		h.hub.unregister(cl)
		slog.Info("room feed disconnected", "user_id", actor.ID)
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.readLoop(cl)
}

// readLoop only answers pings; the feed is one-way.
func (h *WSHandler) readLoop(cl *client) {
	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("room feed read failed", "user_id", cl.userID, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			reply(cl, NewErrorEvent("INVALID_JSON", "Failed to parse message"))
			continue
		}

		switch msg.Type {
		case "ping":
			reply(cl, NewPongEvent())
		default:
			reply(cl, NewErrorEvent("UNKNOWN_TYPE", "Unknown message type: "+msg.Type))
		}
	}
}

func reply(cl *client, msg *ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = cl.enqueue(data)
}
