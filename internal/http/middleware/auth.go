package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/http/response"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/ctxutil"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/services"
)

const bearerPrefix = "bearer "

type AuthMiddleware struct {
	log  *logger.Logger
	auth services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, auth services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), auth: auth}
}

// RequireAuth verifies the bearer token, provisions the user row on first
// sight and binds the caller to the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.Request)
		if token == "" {
			deny(c, apierr.Unauthorized("missing or invalid token"))
			return
		}
		ctx, err := am.auth.SetContextFromToken(c.Request.Context(), token)
		if err != nil {
			am.log.Debug("Token rejected", "error", err)
			deny(c, err)
			return
		}
		userID := uuid.Nil
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			userID = rd.UserID
		}
		if userID == uuid.Nil {
			deny(c, apierr.Unauthorized("not authenticated"))
			return
		}
		if _, err := am.auth.EnsureUser(dbctx.Context{Ctx: ctx}); err != nil {
			am.log.Warn("Provisioning user failed", "user_id", userID, "error", err)
			deny(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", userID.String())
		c.Next()
	}
}

func deny(c *gin.Context, err error) {
	response.RespondAPIError(c, err)
	c.Abort()
}

// bearerToken reads the Authorization header. GET requests may pass ?token=
// instead, since EventSource cannot set headers.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > len(bearerPrefix) && strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}
	if r.Method == http.MethodGet {
		return strings.TrimSpace(r.URL.Query().Get("token"))
	}
	return ""
}
