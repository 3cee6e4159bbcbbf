package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/threads", "200", time.Millisecond)
	m.ObserveLLMRequest("ollama", "generate", "ok", time.Second)
	m.ObserveJobRun("memory_extract", "succeeded", time.Second)
	m.IncCrisis("self_harm")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestWritePrometheus(t *testing.T) {
	m := New(time.Second)
	m.ObserveAPI("POST", "/api/threads/:id/messages", "200", 20*time.Millisecond)
	m.ObserveAPI("POST", "/api/threads/:id/messages", "503", time.Second)
	m.ObserveJobRun("memory_extract", "failed", 2*time.Second)
	m.IncCrisis("")

	if got := m.apiRequests.Value("POST", "/api/threads/:id/messages", "503"); got != 1 {
		t.Fatalf("api 503 count: want=1 got=%v", got)
	}
	if got := m.apiReqError.Value(); got != 1 {
		t.Fatalf("5xx count: want=1 got=%v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# TYPE rai_api_requests_total counter",
		`rai_api_requests_total{method="POST",route="/api/threads/:id/messages",status="200"} 1`,
		`rai_job_runs_total{job_type="memory_extract",status="failed"} 1`,
		`rai_crisis_detected_total{kind="unknown"} 1`,
		`rai_api_request_duration_seconds_bucket{method="POST",route="/api/threads/:id/messages",status="200",le="0.025"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	var again bytes.Buffer
	_ = m.WritePrometheus(&again)
	if again.String() != out {
		t.Fatalf("exposition should be stable between scrapes")
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route"}, []string{"a\"b\\c"})
	if got != `{route="a\"b\\c"}` {
		t.Fatalf("labelString: got %s", got)
	}
	if withLe("", "+Inf") != `{le="+Inf"}` {
		t.Fatalf("withLe empty labels")
	}
}

type fakeQueue map[string]int64

func (q fakeQueue) CountByStatus(dbctx.Context) (map[string]int64, error) { return q, nil }

func TestCollectQueueZeroesMissingStatuses(t *testing.T) {
	m := New(time.Second)
	m.queueDepth.Set(7, "running")
	m.collectQueue(context.Background(), nil, fakeQueue{"queued": 3})
	if got := m.queueDepth.Value("queued"); got != 3 {
		t.Fatalf("queued depth: want=3 got=%v", got)
	}
	if got := m.queueDepth.Value("running"); got != 0 {
		t.Fatalf("running depth: want=0 got=%v", got)
	}
}
