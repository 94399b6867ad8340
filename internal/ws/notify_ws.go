package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"schoolconnect/internal/observability"
	"schoolconnect/internal/session"
)

// NotificationWebSocketHandler upgrades clients onto the push channel.
// Polling stays the delivery contract; the socket only tightens latency.
type NotificationWebSocketHandler struct {
	hub      *Hub
	sessions session.Store
	log      *zap.SugaredLogger
}

// NewNotificationWebSocketHandler constructs the handler.
func NewNotificationWebSocketHandler(hub *Hub, sessions session.Store, log *zap.SugaredLogger) *NotificationWebSocketHandler {
	return &NotificationWebSocketHandler{hub: hub, sessions: sessions, log: log}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle validates the session, upgrades the connection and keeps it
// registered until the peer goes away.
func (h *NotificationWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("schoolconnect/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	account, err := h.sessions.Resolve(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		Username:    account.Username,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddViewer(account.Username, conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.notifications", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload: map[string]interface{}{
			"conn_id":    info.ConnID,
			"username":   info.Username,
			"ip":         info.IP,
			"request_id": info.RequestID,
			"trace_id":   info.TraceID,
		},
	})

	// Drain reads until close; the channel is push-only.
	go func() {
		defer func() {
			h.hub.RemoveViewer(account.Username, conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.notifications", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload: map[string]interface{}{
					"conn_id":     info.ConnID,
					"username":    info.Username,
					"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				},
			})
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.log.Debugw("websocket closed", "error", err, "username", account.Username)
					observability.IncWSEvent("ws_error")
				}
				return
			}
		}
	}()
}
