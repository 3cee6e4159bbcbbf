package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := UserChannel(uuid.New())

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventConnectionRequestCreated, Data: map[string]any{"seq": 1}})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventMemoryUpdated, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventConnectionRequestCreated {
		t.Fatalf("first event: want=%s got=%s", SSEEventConnectionRequestCreated, got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventMemoryUpdated {
		t.Fatalf("second event: want=%s got=%s", SSEEventMemoryUpdated, got.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("clientA outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("subscribers after close: want=0 got=%d", n)
	}

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventThreadUpdated})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventThreadUpdated {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventThreadUpdated, got.Event)
	}
}

func TestSSEHubChannelIsolation(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	a := hub.NewSSEClient(uuid.New())
	b := hub.NewSSEClient(uuid.New())
	hub.AddChannel(a, UserChannel(a.UserID))
	hub.AddChannel(b, UserChannel(b.UserID))

	hub.Broadcast(SSEMessage{Channel: UserChannel(a.UserID), Event: SSEEventMemoryUpdated})
	recvMessage(t, a.Outbound, time.Second)
	select {
	case msg := <-b.Outbound:
		t.Fatalf("client b received a message for another user: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHubServeHTTPWritesEvents(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	client := hub.NewSSEClient(uuid.New())
	channel := UserChannel(client.UserID)
	hub.AddChannel(client, channel)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req, client)
		close(done)
	}()
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventThreadUpdated, Data: map[string]any{"id": "x"}})
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: thread.updated") {
		t.Fatalf("stream body missing event: %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: want=text/event-stream got=%q", ct)
	}
}

func TestSSEHubCountsDroppedMessages(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	client := hub.NewSSEClient(uuid.New())
	channel := UserChannel(client.UserID)
	hub.AddChannel(client, channel)

	for i := 0; i < outboundBuffer+3; i++ {
		hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventMemoryUpdated})
	}
	if got := client.Dropped(); got != 3 {
		t.Fatalf("dropped: want=3 got=%d", got)
	}
}

func TestWriteEventFraming(t *testing.T) {
	var b strings.Builder
	if err := writeEvent(&b, 7, SSEMessage{Channel: "user:x", Event: SSEEventConnectionRemoved}); err != nil {
		t.Fatalf("writeEvent: %v", err)
	}
	want := "id: 7\nevent: connection.removed\ndata: {\"channel\":\"user:x\",\"event\":\"connection.removed\"}\n\n"
	if b.String() != want {
		t.Fatalf("frame: want=%q got=%q", want, b.String())
	}
}
