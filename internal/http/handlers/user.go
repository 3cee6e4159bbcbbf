package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/archisdhar8/religiousAI/internal/http/response"
	"github.com/archisdhar8/religiousAI/internal/services"
)

type UserHandler struct {
	userService   services.UserService
	memoryService services.MemoryService
}

func NewUserHandler(userService services.UserService, memoryService services.MemoryService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		memoryService: memoryService,
	}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(requestCtx(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PATCH /api/me/preferences
// body: { "default_tradition": "buddhism", "theme": "light" | "dark" | "system" }
func (uh *UserHandler) PatchPreferences(c *gin.Context) {
	var req struct {
		DefaultTradition *string `json:"default_tradition"`
		Theme            *string `json:"theme"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.DefaultTradition == nil && req.Theme == nil {
		response.RespondInvalid(c, "no preference changes provided")
		return
	}
	u, err := uh.userService.UpdatePreferences(requestCtx(c), req.DefaultTradition, req.Theme)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": u})
}

// GET /api/greeting
func (uh *UserHandler) Greeting(c *gin.Context) {
	text, ok, err := uh.memoryService.Greeting(requestCtx(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if !ok {
		response.RespondOK(c, gin.H{"greeting": nil})
		return
	}
	response.RespondOK(c, gin.H{"greeting": text})
}

// GET /api/me/memory
func (uh *UserHandler) GetMemory(c *gin.Context) {
	mem, err := uh.memoryService.Get(requestCtx(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"memory": mem})
}
