package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const tagKeyPrefix = "cache:tag:"

// RedisInvalidator implements Invalidator over Redis tag sets. Read-side
// caches call Track to associate their cache keys with resource tags;
// Invalidate deletes every key tracked under the derived tags.
type RedisInvalidator struct {
	client *redis.Client
}

func NewRedisInvalidator(client *redis.Client) *RedisInvalidator {
	return &RedisInvalidator{client: client}
}

// Track associates cache keys with a resource tag. Tag sets expire after a
// day so abandoned tags do not accumulate; read caches re-track on every
// cache fill.
func (r *RedisInvalidator) Track(ctx context.Context, tag string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}

	tk := tagKeyPrefix + tag
	if err := r.client.SAdd(ctx, tk, members...).Err(); err != nil {
		return fmt.Errorf("cache.Track: %w", err)
	}
	if err := r.client.Expire(ctx, tk, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("cache.Track: expire: %w", err)
	}

	return nil
}

// Invalidate drops every cache key tracked under the resource tag, its
// scoped variants and the alias tags. Deleting an already-empty tag is a
// no-op, so repeated invalidation of the same resource is idempotent.
func (r *RedisInvalidator) Invalidate(ctx context.Context, resource string, ids Identifiers, reason string, aliases []string) error {
	tags := ExpandTags(resource, ids, aliases)

	var dropped int64
	for _, tag := range tags {
		tk := tagKeyPrefix + tag

		keys, err := r.client.SMembers(ctx, tk).Result()
		if err != nil {
			return fmt.Errorf("cache.Invalidate: members %s: %w", tag, err)
		}

		if len(keys) > 0 {
			n, delErr := r.client.Del(ctx, keys...).Result()
			if delErr != nil {
				return fmt.Errorf("cache.Invalidate: del %s: %w", tag, delErr)
			}
			dropped += n
		}

		if err := r.client.Del(ctx, tk).Err(); err != nil {
			return fmt.Errorf("cache.Invalidate: del tag %s: %w", tag, err)
		}
	}

	log.Debug().
		Str("resource", resource).
		Str("reason", reason).
		Int("tags", len(tags)).
		Int64("keys_dropped", dropped).
		Msg("cache invalidated")

	return nil
}
