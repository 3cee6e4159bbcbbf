package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/archisdhar8/religiousAI/internal/realtime"
)

// localBus delivers in-process only. Used when REDIS_ADDR is unset.
type localBus struct {
	mu       sync.RWMutex
	handlers []func(realtime.SSEMessage)
}

func NewLocalBus() Bus {
	return &localBus{}
}

func (b *localBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, h := range b.handlers {
		h(msg)
	}
	return nil
}

func (b *localBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, onMsg)
	b.mu.Unlock()
	return nil
}

func (b *localBus) Close() error { return nil }
