package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/realtime"
)

const (
	DefaultChannel = "religiousai:events"

	envelopeVersion = 1
	subscribeBuffer = 256
)

// envelope wraps every published event so consumers can reject foreign payloads.
type envelope struct {
	V       int                 `json:"v"`
	SentAt  time.Time           `json:"sent_at"`
	Message realtime.SSEMessage `json:"message"`
}

func encodeEnvelope(msg realtime.SSEMessage, now time.Time) ([]byte, error) {
	return json.Marshal(envelope{V: envelopeVersion, SentAt: now.UTC(), Message: msg})
}

func decodeEnvelope(raw string) (realtime.SSEMessage, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return realtime.SSEMessage{}, err
	}
	if env.V != envelopeVersion {
		return realtime.SSEMessage{}, fmt.Errorf("unsupported envelope version %d", env.V)
	}
	if env.Message.Channel == "" || env.Message.Event == "" {
		return realtime.SSEMessage{}, errors.New("envelope without channel or event")
	}
	return env.Message, nil
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// New picks the redis bus when addr is set and the in-process bus otherwise.
func New(log *logger.Logger, addr, channel string) (Bus, error) {
	if strings.TrimSpace(addr) == "" {
		return NewLocalBus(), nil
	}
	return NewRedisBus(log, addr, channel)
}

func NewRedisBus(log *logger.Logger, addr, channel string) (Bus, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if addr = strings.TrimSpace(addr); addr == "" {
		return nil, errors.New("missing REDIS_ADDR")
	}
	if channel = strings.TrimSpace(channel); channel == "" {
		channel = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	log.Info("Realtime bus connected", "addr", addr, "channel", channel)
	return &redisBus{
		log:     log.With("component", "RedisEventBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	raw, err := encodeEnvelope(msg, time.Now())
	if err != nil {
		return fmt.Errorf("encode event %s: %w", msg.Event, err)
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return errors.New("onMsg callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	// Receive blocks until redis confirms the subscription.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	go b.forward(ctx, sub, onMsg)
	return nil
}

func (b *redisBus) forward(ctx context.Context, sub *goredis.PubSub, onMsg func(m realtime.SSEMessage)) {
	defer sub.Close()
	incoming := sub.Channel(goredis.WithChannelSize(subscribeBuffer))
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-incoming:
			if !ok {
				b.log.Warn("Realtime subscription closed")
				return
			}
			msg, err := decodeEnvelope(m.Payload)
			if err != nil {
				b.log.Warn("Dropping realtime payload", "error", err)
				continue
			}
			onMsg(msg)
		}
	}
}

func (b *redisBus) Close() error {
	return b.rdb.Close()
}
