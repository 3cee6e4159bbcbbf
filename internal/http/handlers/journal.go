package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/archisdhar8/religiousAI/internal/http/response"
	"github.com/archisdhar8/religiousAI/internal/services"
)

type JournalHandler struct {
	journal services.JournalService
	search  services.SearchService
}

func NewJournalHandler(journal services.JournalService, search services.SearchService) *JournalHandler {
	return &JournalHandler{journal: journal, search: search}
}

// GET /api/journal
func (h *JournalHandler) List(c *gin.Context) {
	entries, err := h.journal.List(requestCtx(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}

// POST /api/journal
// body: { "entry": "..." }
func (h *JournalHandler) Create(c *gin.Context) {
	var req struct {
		Entry string `json:"entry"`
	}
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.journal.Create(requestCtx(c), req.Entry)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"entry": entry})
}

// GET /api/search?q=&limit=
func (h *JournalHandler) Search(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	results, err := h.search.Search(requestCtx(c), c.Query("q"), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": results})
}
