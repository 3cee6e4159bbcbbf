package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/archisdhar8/religiousAI/internal/http/response"
	"github.com/archisdhar8/religiousAI/internal/services"
)

type GuidanceHandler struct {
	guidance services.GuidanceService
}

func NewGuidanceHandler(guidance services.GuidanceService) *GuidanceHandler {
	return &GuidanceHandler{guidance: guidance}
}

// GET /api/daily-wisdom?tradition=
func (h *GuidanceHandler) DailyWisdom(c *gin.Context) {
	dw, err := h.guidance.DailyWisdom(requestCtx(c), c.Query("tradition"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, dw)
}

// POST /api/compare
// body: { "topic": "forgiveness", "traditions": ["Christianity", "Buddhism"] }
func (h *GuidanceHandler) Compare(c *gin.Context) {
	var req struct {
		Topic      string   `json:"topic" binding:"required"`
		Traditions []string `json:"traditions"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cmp, err := h.guidance.Compare(requestCtx(c), req.Topic, req.Traditions)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, cmp)
}
