package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/http/response"
	"github.com/archisdhar8/religiousAI/internal/services"
)

type CommunityHandler struct {
	community   services.CommunityService
	connections services.ConnectionService
}

func NewCommunityHandler(community services.CommunityService, connections services.ConnectionService) *CommunityHandler {
	return &CommunityHandler{community: community, connections: connections}
}

// GET /api/community/profile
func (h *CommunityHandler) GetProfile(c *gin.Context) {
	view, err := h.community.GetProfile(requestCtx(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// PUT /api/community/profile
// body: { "display_name": "...", "bio": "...", "preferred_traditions": ["buddhism"], "opt_in": true }
func (h *CommunityHandler) PutProfile(c *gin.Context) {
	var req struct {
		DisplayName         string   `json:"display_name"`
		Bio                 string   `json:"bio"`
		PreferredTraditions []string `json:"preferred_traditions"`
		OptIn               bool     `json:"opt_in"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.community.UpsertProfile(requestCtx(c), services.ProfileInput{
		DisplayName:         req.DisplayName,
		Bio:                 req.Bio,
		PreferredTraditions: req.PreferredTraditions,
		OptIn:               req.OptIn,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// GET /api/community/matches?limit=
func (h *CommunityHandler) Matches(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	matches, err := h.community.Matches(requestCtx(c), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"matches": matches})
}

// GET /api/community/connections
func (h *CommunityHandler) ListConnections(c *gin.Context) {
	peers, err := h.connections.ListConnections(requestCtx(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"connections": peers})
}

// DELETE /api/community/connections/:userId
func (h *CommunityHandler) RemoveConnection(c *gin.Context) {
	peerID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	if err := h.connections.RemoveConnection(requestCtx(c), peerID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/community/requests
func (h *CommunityHandler) ListRequests(c *gin.Context) {
	lists, err := h.connections.ListRequests(requestCtx(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, lists)
}

// POST /api/community/requests
// body: { "to_user_id": "...", "message": "..." }
func (h *CommunityHandler) SendRequest(c *gin.Context) {
	var req struct {
		ToUserID string `json:"to_user_id" binding:"required,uuid"`
		Message  string `json:"message"`
	}
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.connections.SendRequest(requestCtx(c), uuid.MustParse(req.ToUserID), req.Message)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"request": created})
}

// POST /api/community/requests/:id/respond
// body: { "accept": true }
func (h *CommunityHandler) Respond(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Accept *bool `json:"accept" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.connections.Respond(requestCtx(c), id, *req.Accept)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"request": out})
}
