package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/http/response"
	"github.com/archisdhar8/religiousAI/internal/observability"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/ctxutil"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		log: log.With("handler", "RealtimeHandler"),
		hub: hub,
	}
}

// GET /api/events
// Streams the caller's user channel until the client disconnects.
func (h *RealtimeHandler) Events(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondAPIError(c, apierr.Unauthorized("not authenticated"))
		return
	}

	client := h.hub.NewSSEClient(userID)
	h.hub.AddChannel(client, realtime.UserChannel(userID))
	h.log.Debug("SSE stream open", "user_id", userID, "sse_client_id", client.ID)

	m := observability.Current()
	m.SSEClientsInc()
	defer m.SSEClientsDec()
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
