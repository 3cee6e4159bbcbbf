package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

const (
	outboundBuffer    = 16
	heartbeatInterval = 15 * time.Second
	// retryMillis is the reconnect delay browsers apply after a dropped stream.
	retryMillis = 3000
)

// SSEHub fans messages out to the clients subscribed on this instance.
type SSEHub struct {
	mu     sync.RWMutex
	logger *logger.Logger
	// channel -> client id -> client
	channels map[string]map[uuid.UUID]*SSEClient
}

func NewSSEHub(log *logger.Logger) *SSEHub {
	return &SSEHub{
		logger:   log.With("component", "SSEHub"),
		channels: make(map[string]map[uuid.UUID]*SSEClient),
	}
}

func (hub *SSEHub) NewSSEClient(userID uuid.UUID) *SSEClient {
	id := uuid.New()
	return &SSEClient{
		ID:       id,
		UserID:   userID,
		Channels: make(map[string]bool),
		Outbound: make(chan SSEMessage, outboundBuffer),
		Logger:   hub.logger.With("client_id", id, "user_id", userID),
		done:     make(chan struct{}),
	}
}

func (hub *SSEHub) AddChannel(client *SSEClient, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if client.closed {
		return
	}
	members := hub.channels[channel]
	if members == nil {
		members = make(map[uuid.UUID]*SSEClient)
		hub.channels[channel] = members
	}
	members[client.ID] = client
	client.Channels[channel] = true
	client.Logger.Debug("SSE client subscribed", "channel", channel)
}

func (hub *SSEHub) RemoveChannel(client *SSEClient, channel string) {
	channel = strings.TrimSpace(channel)
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.leaveLocked(client, channel)
}

func (hub *SSEHub) leaveLocked(client *SSEClient, channel string) {
	delete(client.Channels, channel)
	members := hub.channels[channel]
	if members == nil {
		return
	}
	delete(members, client.ID)
	if len(members) == 0 {
		delete(hub.channels, channel)
	}
}

// Subscribers counts clients on a channel.
func (hub *SSEHub) Subscribers(channel string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.channels[channel])
}

// Broadcast never blocks. A client whose buffer is full loses the message.
func (hub *SSEHub) Broadcast(msg SSEMessage) {
	if msg.Channel == "" {
		return
	}
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for _, c := range hub.channels[msg.Channel] {
		select {
		case c.Outbound <- msg:
		default:
			c.dropped.Add(1)
			c.Logger.Warn("Dropping SSE message, client is behind", "event", msg.Event, "dropped_total", c.dropped.Load())
		}
	}
}

// ServeHTTP streams the client's messages until the request ends or the client is closed.
func (hub *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, "retry: %d\n: connected\n\n", retryMillis)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			client.Logger.Debug("SSE stream ended", "reason", r.Context().Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			if err := writeEvent(w, client.nextSeq(), msg); err != nil {
				client.Logger.Warn("Failed to write SSE event", "event", msg.Event, "error", err)
				continue
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, id uint64, msg SSEMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, msg.Event, data)
	return err
}

// CloseClient unsubscribes the client and closes its outbound channel. Safe to call twice.
func (hub *SSEHub) CloseClient(client *SSEClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if client.closed {
		return
	}
	client.closed = true
	for ch := range client.Channels {
		hub.leaveLocked(client, ch)
	}
	close(client.done)
	close(client.Outbound)
}
