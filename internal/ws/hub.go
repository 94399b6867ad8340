package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"schoolconnect/internal/models"
	"schoolconnect/internal/observability"
)

// Hub maintains active notification sockets, keyed by viewer handle.
// One viewer may hold several connections (multiple tabs).
type Hub struct {
	viewers  map[string]map[*websocket.Conn]bool
	connInfo map[string]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
	log      *zap.SugaredLogger
}

// NewHub creates an empty hub.
func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		viewers:  make(map[string]map[*websocket.Conn]bool),
		connInfo: make(map[string]map[*websocket.Conn]ConnInfo),
		log:      log,
	}
}

// AddViewer registers a connection for a viewer handle.
func (h *Hub) AddViewer(handle string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[handle]; !ok {
		h.viewers[handle] = make(map[*websocket.Conn]bool)
	}
	h.viewers[handle][conn] = true
	if _, ok := h.connInfo[handle]; !ok {
		h.connInfo[handle] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[handle][conn] = info
}

// RemoveViewer removes a connection for a viewer handle.
func (h *Hub) RemoveViewer(handle string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.viewers[handle]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.viewers, handle)
		}
	}
	if infos, ok := h.connInfo[handle]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, handle)
		}
	}
}

// ConnectedViewers lists handles with at least one open socket.
func (h *Hub) ConnectedViewers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handles := make([]string, 0, len(h.viewers))
	for handle := range h.viewers {
		handles = append(handles, handle)
	}
	return handles
}

// Notify pushes one notification to every connection of the viewer.
func (h *Hub) Notify(handle string, n models.Notification) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.viewers[handle]))
	for conn := range h.viewers[handle] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(n)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warnw("websocket write error", "error", err)
			conn.Close()
			h.RemoveViewer(handle, conn)
			h.publishWSError(handle, conn, err)
		}
	}
}

// NotifyAll pushes a notification to every connected viewer except the
// excluded handle (the sender of the underlying message).
func (h *Hub) NotifyAll(n models.Notification, except string) {
	for _, handle := range h.ConnectedViewers() {
		if handle == except {
			continue
		}
		h.Notify(handle, n)
	}
}

func (h *Hub) publishWSError(handle string, conn *websocket.Conn, err error) {
	h.mu.RLock()
	info, ok := h.connInfo[handle][conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	_ = observability.PublishEvent(context.Background(), "ws_events.notifications", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload: map[string]interface{}{
			"conn_id":     info.ConnID,
			"username":    info.Username,
			"ip":          info.IP,
			"request_id":  info.RequestID,
			"trace_id":    info.TraceID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
	})
	observability.IncWSEvent("ws_error")
}
