package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/archisdhar8/religiousAI/internal/http/response"
	"github.com/archisdhar8/religiousAI/internal/services"
)

type ChatHandler struct {
	chat     services.ChatService
	guidance services.GuidanceService
}

func NewChatHandler(chat services.ChatService, guidance services.GuidanceService) *ChatHandler {
	return &ChatHandler{chat: chat, guidance: guidance}
}

// GET /api/chat/threads
func (h *ChatHandler) ListThreads(c *gin.Context) {
	threads, err := h.chat.ListThreads(requestCtx(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"threads": threads})
}

// POST /api/chat/threads
// body: { "tradition": "buddhism", "title": "...", "mode": "standard" }
func (h *ChatHandler) CreateThread(c *gin.Context) {
	var req struct {
		Tradition string `json:"tradition"`
		Title     string `json:"title"`
		Mode      string `json:"mode"`
	}
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	th, err := h.chat.CreateThread(requestCtx(c), req.Tradition, req.Title, req.Mode)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"thread": th})
}

// GET /api/chat/threads/current?tradition=
func (h *ChatHandler) CurrentThread(c *gin.Context) {
	th, err := h.chat.GetOrCreateCurrentThread(requestCtx(c), c.Query("tradition"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thread": th})
}

// GET /api/chat/threads/:id
func (h *ChatHandler) GetThread(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	th, msgs, err := h.chat.GetThread(requestCtx(c), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thread": th, "messages": msgs})
}

// PATCH /api/chat/threads/:id
// body: { "title": "..." }
func (h *ChatHandler) RenameThread(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if !bindJSON(c, &req) {
		return
	}
	th, err := h.chat.RenameThread(requestCtx(c), id, req.Title)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thread": th})
}

// DELETE /api/chat/threads/:id
func (h *ChatHandler) DeleteThread(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.chat.DeleteThread(requestCtx(c), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/chat/threads/:id/current
func (h *ChatHandler) SetCurrentThread(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	th, err := h.chat.SetCurrentThread(requestCtx(c), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thread": th})
}

// POST /api/chat/threads/:id/messages
// body: { "content": "...", "mode": "standard" | "prayer" | "journal" | "meditation", "multi_agent": false }
func (h *ChatHandler) SendMessage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content    string `json:"content" binding:"required"`
		Mode       string `json:"mode"`
		MultiAgent bool   `json:"multi_agent"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.guidance.Ask(requestCtx(c), id, services.AskInput{
		Content:    req.Content,
		Mode:       req.Mode,
		MultiAgent: req.MultiAgent,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
