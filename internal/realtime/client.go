package realtime

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

// SSEClient is one open event stream. A user with several tabs has several clients.
type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	Logger   *logger.Logger

	done    chan struct{}
	closed  bool
	seq     uint64
	dropped atomic.Int64
}

// Dropped counts messages lost because the client fell behind.
func (c *SSEClient) Dropped() int64 { return c.dropped.Load() }

func (c *SSEClient) nextSeq() uint64 {
	c.seq++
	return c.seq
}
