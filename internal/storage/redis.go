package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ViewingKeyTTL is the fixed lifetime of an issued viewing key (2 hours)
	ViewingKeyTTL = 2 * time.Hour

	// viewingKeyPrefix namespaces viewing keys in the shared cache
	viewingKeyPrefix = "viewing_key_"
)

// RedisClient wraps Redis operations with tracing
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient initializes a new Redis client
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test the connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection
func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// PutViewingKey stores a freshly issued viewing key. The value is a
// sentinel; only the key's presence matters. Expiry is left to Redis,
// the key is never deleted or renewed explicitly.
func (rc *RedisClient) PutViewingKey(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "redis.put_viewing_key",
		trace.WithAttributes(
			attribute.Int64("ttl_seconds", int64(ViewingKeyTTL.Seconds())),
		),
	)
	defer span.End()

	key := viewingKeyPrefix + token
	if err := rc.client.Set(ctx, key, 1, ViewingKeyTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to store viewing key: %w", err)
	}

	span.SetAttributes(attribute.Bool("cache_set_success", true))
	return nil
}

// ViewingKeyExists reports whether a viewing key is currently valid.
func (rc *RedisClient) ViewingKeyExists(ctx context.Context, token string) (bool, error) {
	ctx, span := tracer.Start(ctx, "redis.viewing_key_exists",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	n, err := rc.client.Exists(ctx, viewingKeyPrefix+token).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check viewing key: %w", err)
	}

	span.SetAttributes(attribute.Bool("key_present", n > 0))
	return n > 0, nil
}
