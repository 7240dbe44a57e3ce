package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flightbook/internal/config"
	"flightbook/internal/events"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultMaxLen caps the stream length; older entries are trimmed approximately.
const DefaultMaxLen = 10000

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// RedisNotifier mirrors booking events into a Redis stream.
type RedisNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zerolog.Logger
}

func NewRedisNotifier(client *redis.Client, stream string, logger *zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		stream: stream,
		maxLen: DefaultMaxLen,
		logger: logger,
	}
}

// Stream returns the stream key entries are added to.
func (n *RedisNotifier) Stream() string {
	return n.stream
}

// Deliver appends the event to the stream. Fields: type, payload (the JSON
// payload as published), created_at (RFC 3339).
func (n *RedisNotifier) Deliver(ctx context.Context, event *events.Event) error {
	if n.client == nil {
		return errors.New("redis client is nil")
	}
	if event == nil {
		return errors.New("nil event")
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	id, err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":       event.Type,
			"payload":    string(event.Payload),
			"created_at": createdAt.UTC().Format(time.RFC3339),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", n.stream, err)
	}

	n.logger.Debug().Str("stream", n.stream).Str("entry_id", id).Str("event_type", event.Type).Msg("event streamed")
	return nil
}
