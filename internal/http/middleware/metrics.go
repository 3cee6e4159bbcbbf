package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/archisdhar8/religiousAI/internal/observability"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latency per route template. Event
// streams are counted but kept out of the latency histogram.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		began := time.Now()
		m.APIInflightInc()
		c.Next()
		m.APIInflightDec()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := strconv.Itoa(c.Writer.Status())
		if isEventStream(c) {
			m.CountAPIStream(c.Request.Method, route, status)
			return
		}
		m.ObserveAPI(c.Request.Method, route, status, time.Since(began))
	}
}

func isEventStream(c *gin.Context) bool {
	return strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream")
}
