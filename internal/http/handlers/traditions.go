package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/archisdhar8/religiousAI/internal/http/response"
	"github.com/archisdhar8/religiousAI/internal/modules/traditions"
)

type TraditionHandler struct{}

func NewTraditionHandler() *TraditionHandler { return &TraditionHandler{} }

// GET /api/traditions
func (h *TraditionHandler) List(c *gin.Context) {
	response.RespondOK(c, gin.H{"traditions": traditions.All()})
}
