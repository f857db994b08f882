package interactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	versionPrefix     = "cache:version:"
	InvalidateChannel = "cache:invalidate"
)

// Invalidator marks cached page regions stale.
type Invalidator interface {
	Invalidate(ctx context.Context, paths ...string) error
}

// RedisInvalidator bumps a per-path version counter and announces the path
// on InvalidateChannel. Readers compare versions or subscribe.
type RedisInvalidator struct {
	client *redis.Client
}

func NewRedisInvalidator(client *redis.Client) *RedisInvalidator {
	return &RedisInvalidator{client: client}
}

func (r *RedisInvalidator) Invalidate(ctx context.Context, paths ...string) error {
	pipe := r.client.TxPipeline()
	for _, p := range paths {
		pipe.Incr(ctx, versionPrefix+p)
		pipe.Publish(ctx, InvalidateChannel, p)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate %v: %w", paths, err)
	}
	return nil
}

// Version returns the current version of path, zero when never invalidated.
func (r *RedisInvalidator) Version(ctx context.Context, path string) (int64, error) {
	v, err := r.client.Get(ctx, versionPrefix+path).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
