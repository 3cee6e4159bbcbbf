package realtime

import "github.com/google/uuid"

type SSEEvent string

const (
	SSEEventConnectionRequestCreated   SSEEvent = "connection_request.created"
	SSEEventConnectionRequestResponded SSEEvent = "connection_request.responded"
	SSEEventConnectionRemoved          SSEEvent = "connection.removed"
	SSEEventMemoryUpdated              SSEEvent = "memory.updated"
	SSEEventThreadUpdated              SSEEvent = "thread.updated"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// UserChannel is the per-user fan-out channel every session of that user subscribes to.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}
