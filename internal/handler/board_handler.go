package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/maintenance-api/internal/realtime"
)

// BoardHandler upgrades clients onto the live maintenance board stream.
type BoardHandler struct {
	hub         *realtime.Hub
	checkOrigin func(*http.Request) bool
	logger      *zap.Logger
}

func NewBoardHandler(hub *realtime.Hub, checkOrigin func(*http.Request) bool, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{hub: hub, checkOrigin: checkOrigin, logger: logger}
}

// Stream godoc
// @Summary Websocket stream of request lifecycle events
// @Tags Realtime
// @Success 101
// @Router /ws/board [get]
func (h *BoardHandler) Stream(c *gin.Context) {
	// the upgrader has already answered the client on failure
	if err := h.hub.Serve(c.Writer, c.Request, h.checkOrigin); err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
	}
}
