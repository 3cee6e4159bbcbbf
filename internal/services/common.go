package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/ctxutil"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
)

// requestUser returns the authenticated caller or Unauthorized.
func requestUser(dbc dbctx.Context) (uuid.UUID, error) {
	id := ctxutil.UserID(dbc.Ctx)
	if id == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized("not authenticated")
	}
	return id, nil
}

func utcNow() time.Time { return time.Now().UTC() }
