package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/quartierboard/board-api/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced at the HTTP layer already.
		return true
	},
}

// WebSocket upgrades the connection and registers it with the hub.
// Clients only listen; reads are drained for close detection.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id := h.Hub.Register(conn)
	defer h.Hub.Unregister(id)

	logger.Log.Debugw("websocket client connected", "connID", id.String())

	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
