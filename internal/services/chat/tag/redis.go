package tag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/louisbranch/chatfeed/internal/platform/metrics"
)

const (
	redisKeyPrefix  = "chatfeed:tag:"
	redisScopeKey   = "chatfeed:scope"
	redisConnectMax = 15 * time.Second
)

// Redis shares tag epochs between processes through INCR counters.
type Redis struct {
	client *redis.Client
	logger zerolog.Logger
	scope  string
}

// ConnectRedis parses redisURL and waits, with exponential backoff, until the
// server answers PING.
func ConnectRedis(ctx context.Context, redisURL string, logger zerolog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("redis tag registry not ready")
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(redisConnectMax),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	r := NewRedis(client, logger)
	if err := r.loadScope(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return r, nil
}

// NewRedis wraps an existing client. Its scope is the fixed prefix until
// loadScope reads the server's generation.
func NewRedis(client *redis.Client, logger zerolog.Logger) *Redis {
	return &Redis{client: client, logger: logger, scope: "redis"}
}

// loadScope reads the generation stored on the server, creating it when
// absent. A server flushed before connecting gets a new generation, so its
// restarted epochs are not mistaken for old ones.
func (r *Redis) loadScope(ctx context.Context) error {
	if err := r.client.SetNX(ctx, redisScopeKey, ulid.Make().String(), 0).Err(); err != nil {
		return fmt.Errorf("init redis scope: %w", err)
	}
	generation, err := r.client.Get(ctx, redisScopeKey).Result()
	if err != nil {
		return fmt.Errorf("read redis scope: %w", err)
	}
	r.scope = "redis:" + generation
	return nil
}

// Scope returns the generation shared by every process on this server.
func (r *Redis) Scope() string { return r.scope }

// Touch advances the shared epoch of name. Errors are logged and counted.
func (r *Redis) Touch(ctx context.Context, name string) {
	_ = r.TryTouch(ctx, name)
}

// TryTouch is Touch that also returns the failure.
func (r *Redis) TryTouch(ctx context.Context, name string) error {
	if err := r.client.Incr(ctx, redisKey(name)).Err(); err != nil {
		metrics.TagTouchFailures.WithLabelValues(name).Inc()
		r.logger.Warn().Err(err).Str("tag", name).Msg("tag touch failed")
		return err
	}
	return nil
}

// Epoch returns the shared epoch of name.
func (r *Redis) Epoch(ctx context.Context, name string) (uint64, error) {
	epoch, err := r.client.Get(ctx, redisKey(name)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read tag %s: %w", name, err)
	}
	return epoch, nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func redisKey(name string) string {
	return redisKeyPrefix + name
}

var _ Registry = (*Redis)(nil)
