package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
)

// RespondAPIError writes err with the status of its kind. Causes of internal and
// unavailable errors stay in the logs.
func RespondAPIError(c *gin.Context, err error) {
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		ae = apierr.Internal(err)
	}
	if ae.Kind == apierr.KindInternal || ae.Kind == apierr.KindUnavailable {
		_ = c.Error(err)
	}
	writeError(c, ae.Status(), string(ae.Kind), ae.PublicMessage())
}

// RespondInvalid is the 400 for bodies and params that fail to bind.
func RespondInvalid(c *gin.Context, msg string) {
	writeError(c, http.StatusBadRequest, string(apierr.KindInvalidArgument), msg)
}
