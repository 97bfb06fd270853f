package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"slidedeck/internal/services"
)

var viewerUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades viewer connections and hands them to the hub
type WebSocketHandler struct {
	wsService *services.WebSocketService
	logger    *zap.Logger
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(wsService *services.WebSocketService, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		wsService: wsService,
		logger:    logger,
	}
}

// ServeWS streams slide projections and warnings to a viewer
// GET /ws
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := viewerUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.wsService.Attach(conn)
}
