package bus

import (
	"context"
	"testing"
	"time"

	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/realtime"
)

func TestNewWithoutAddrIsLocal(t *testing.T) {
	b, err := New(logger.NewNop(), "", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var got []realtime.SSEMessage
	if err := b.StartForwarder(context.Background(), func(m realtime.SSEMessage) { got = append(got, m) }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	msg := realtime.SSEMessage{Channel: "user:x", Event: realtime.SSEEventMemoryUpdated}
	if err := b.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 1 || got[0].Event != realtime.SSEEventMemoryUpdated {
		t.Fatalf("forwarded: want 1 memory.updated got=%+v", got)
	}
	if err := b.StartForwarder(context.Background(), nil); err == nil {
		t.Fatalf("StartForwarder(nil): expected error")
	}
}

func TestNewRedisBusRequiresAddr(t *testing.T) {
	if _, err := NewRedisBus(logger.NewNop(), " ", ""); err == nil {
		t.Fatalf("NewRedisBus: expected error for empty addr")
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	msg := realtime.SSEMessage{Channel: "user:abc", Event: realtime.SSEEventThreadUpdated, Data: map[string]any{"title": "Grief"}}
	raw, err := encodeEnvelope(msg, time.Now())
	if err != nil {
		t.Fatalf("encodeEnvelope: %v", err)
	}
	got, err := decodeEnvelope(string(raw))
	if err != nil {
		t.Fatalf("decodeEnvelope: %v", err)
	}
	if got.Channel != msg.Channel || got.Event != msg.Event {
		t.Fatalf("decoded: want=%+v got=%+v", msg, got)
	}
}

func TestDecodeEnvelopeRejectsForeignPayloads(t *testing.T) {
	for name, raw := range map[string]string{
		"bare message":  `{"channel":"user:abc","event":"memory.updated"}`,
		"wrong version": `{"v":2,"message":{"channel":"user:abc","event":"memory.updated"}}`,
		"no channel":    `{"v":1,"message":{"event":"memory.updated"}}`,
		"not json":      `hello`,
	} {
		if _, err := decodeEnvelope(raw); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
