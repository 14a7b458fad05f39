package handlers

import (
	"net/http"

	"healthpulse/services/realtime"
	"healthpulse/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RealtimeHandler struct {
	Registry *realtime.Registry
}

func NewRealtimeHandler(reg *realtime.Registry) *RealtimeHandler {
	return &RealtimeHandler{Registry: reg}
}

// WebSocketHandler upgrades the request and serves join/leave frames.
func (h *RealtimeHandler) WebSocketHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	conn, err := realtime.Upgrade(c.Writer, c.Request)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		getLogger(c).Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}
	conn.Serve(c.Request.Context(), h.Registry, userID, getLogger(c))
}

// StreamHandler serves the same events over Server-Sent Events.
func (h *RealtimeHandler) StreamHandler(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	conn := realtime.NewSSEConn()
	if err := conn.Stream(c, h.Registry, userID); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Cannot open stream", err.Error())
	}
}
