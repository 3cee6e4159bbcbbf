package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/archisdhar8/religiousAI/internal/observability"
)

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.New(time.Second)
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/chat/threads/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/events", func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Status(http.StatusOK)
	})

	for _, path := range []string{"/api/chat/threads/a", "/api/chat/threads/b", "/nope", "/api/events"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`rai_api_requests_total{method="GET",route="/api/chat/threads/:id",status="200"} 2`,
		`rai_api_requests_total{method="GET",route="unmatched",status="404"} 1`,
		`rai_api_requests_total{method="GET",route="/api/events",status="200"} 1`,
		"rai_api_inflight_requests 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, `rai_api_request_duration_seconds_count{method="GET",route="/api/events"`) {
		t.Fatalf("event stream should not be in the latency histogram")
	}
}

func TestMetricsNilPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: want=%d got=%d", http.StatusNoContent, rec.Code)
	}
}
