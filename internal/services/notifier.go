package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/realtime"
)

// Notifier pushes realtime events to a user's channel. Delivery is best effort.
type Notifier interface {
	ConnectionRequestCreated(req *types.ConnectionRequest)
	ConnectionRequestResponded(req *types.ConnectionRequest)
	ConnectionRemoved(userID, peerID uuid.UUID)
	MemoryUpdated(userID uuid.UUID, mem *types.UserMemory)
	ThreadUpdated(userID uuid.UUID, thread *types.ChatThread)
}

type notifier struct {
	emit SSEEmitter
}

func NewNotifier(emit SSEEmitter) Notifier {
	return &notifier{emit: emit}
}

func (n *notifier) send(userID uuid.UUID, event realtime.SSEEvent, data map[string]any) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   event,
		Data:    data,
	})
}

func (n *notifier) ConnectionRequestCreated(req *types.ConnectionRequest) {
	if req == nil {
		return
	}
	n.send(req.ToUserID, realtime.SSEEventConnectionRequestCreated, map[string]any{"request": req})
}

func (n *notifier) ConnectionRequestResponded(req *types.ConnectionRequest) {
	if req == nil {
		return
	}
	n.send(req.FromUserID, realtime.SSEEventConnectionRequestResponded, map[string]any{
		"request_id": req.ID,
		"status":     req.Status,
		"request":    req,
	})
}

func (n *notifier) ConnectionRemoved(userID, peerID uuid.UUID) {
	n.send(peerID, realtime.SSEEventConnectionRemoved, map[string]any{"user_id": userID})
}

func (n *notifier) MemoryUpdated(userID uuid.UUID, mem *types.UserMemory) {
	if mem == nil {
		return
	}
	n.send(userID, realtime.SSEEventMemoryUpdated, map[string]any{
		"themes":         mem.Themes,
		"summary":        mem.Summary,
		"exchange_count": mem.ExchangeCount,
	})
}

func (n *notifier) ThreadUpdated(userID uuid.UUID, thread *types.ChatThread) {
	if thread == nil {
		return
	}
	n.send(userID, realtime.SSEEventThreadUpdated, map[string]any{"thread": thread})
}
