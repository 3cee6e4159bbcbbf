package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/http/response"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
)

func requestCtx(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

// uuidParam writes the 400 itself; callers just return when ok is false.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondInvalid(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		response.RespondInvalid(c, "invalid "+name)
		return 0, false
	}
	return n, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondInvalid(c, "invalid request body")
		return false
	}
	return true
}
