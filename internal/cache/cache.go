// Package cache keeps recently read food items in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// Cache stores food items by identifier. Every Invalidate bumps the
// item's version; Set is a no-op when the version has moved on since the
// caller read it, so a fill racing a write cannot cache the old record.
type Cache interface {
	// Get returns the cached item and whether it was found.
	Get(ctx context.Context, id string) (*model.FoodItem, bool, error)
	Version(ctx context.Context, id string) (int64, error)
	Set(ctx context.Context, item *model.FoodItem, version int64) error
	Invalidate(ctx context.Context, id string) error
}

// Redis is a Cache backed by a Redis client.
type Redis struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewRedis creates a Redis cache. A zero ttl uses DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, keyPrefix: "homefoods:food"}
}

// Key returns the Redis key for id.
func (r *Redis) Key(id string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, id)
}

func (r *Redis) Get(ctx context.Context, id string) (*model.FoodItem, bool, error) {
	data, err := r.client.Get(ctx, r.Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", id, err)
	}
	var item model.FoodItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, false, fmt.Errorf("cache decode %s: %w", id, err)
	}
	return &item, true, nil
}

func (r *Redis) versionKey(id string) string {
	return r.Key(id) + ":version"
}

func (r *Redis) Version(ctx context.Context, id string) (int64, error) {
	v, err := r.client.Get(ctx, r.versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache version %s: %w", id, err)
	}
	return v, nil
}

var errStale = errors.New("stale cache fill")

func (r *Redis) Set(ctx context.Context, item *model.FoodItem, version int64) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	vkey := r.versionKey(item.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.Key(item.ID), data, r.ttl)
			return nil
		})
		return err
	}, vkey)
	if errors.Is(err, errStale) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache set %s: %w", item.ID, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, id string) error {
	vkey := r.versionKey(id)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, vkey)
		pipe.Expire(ctx, vkey, r.ttl)
		pipe.Del(ctx, r.Key(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache invalidate %s: %w", id, err)
	}
	return nil
}

// Noop caches nothing.
type Noop struct{}

func (Noop) Get(context.Context, string) (*model.FoodItem, bool, error) { return nil, false, nil }
func (Noop) Version(context.Context, string) (int64, error) { return 0, nil }
func (Noop) Set(context.Context, *model.FoodItem, int64) error { return nil }
func (Noop) Invalidate(context.Context, string) error { return nil }
