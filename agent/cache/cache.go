// Package cache implements the shared entity cache on Redis. Writes are
// whole-value replacements and TTL is derived from the entity category
// only.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	logx "github.com/corvid-labs/atlas/pkg/logger"
	"github.com/corvid-labs/atlas/pkg/metrics"
)

const keyPrefix = "atlas:entity:"

// TTLFor maps a category to its fixed time-to-live.
func TTLFor(category contractx.Category) time.Duration {
	switch category {
	case contractx.CategoryPerson, contractx.CategoryProject:
		return 5 * time.Minute
	case contractx.CategoryOrganization, contractx.CategoryConcept:
		return 10 * time.Minute
	case contractx.CategoryDocument:
		return 30 * time.Minute
	default:
		return 5 * time.Minute
	}
}

type Config struct {
	URL          string        `envconfig:"URL" split_words:"true" required:"true"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" split_words:"true" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"3s"`
}

// RedisCache implements contract.Cache on a Redis client.
type RedisCache struct {
	client *redis.Client
	log    zerolog.Logger
}

func New(cfg Config) (*RedisCache, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	return NewFromClient(redis.NewClient(opts)), nil
}

// NewFromClient wraps an existing client. Tests use this with miniredis.
func NewFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		log:    logx.Component("cache"),
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: cache get: %v", contractx.ErrUpstreamUnavailable, err)
	}
	return val, true, nil
}

func (c *RedisCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}

	vals, err := c.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: cache mget: %v", contractx.ErrUpstreamUnavailable, err)
	}

	out := make(map[string][]byte, len(keys))
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[keys[i]] = []byte(s)
	}
	return out, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, category contractx.Category) error {
	ttl := TTLFor(category)
	if err := c.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: cache set: %v", contractx.ErrUpstreamUnavailable, err)
	}
	c.log.Debug().
		Str("key", key).
		Str("category", string(category)).
		Dur("ttl", ttl).
		Msg("entity cached")
	return nil
}

func indexKey(category contractx.Category) string {
	return "atlas:names:" + string(category)
}

// IndexName records name -> cache key in a per-category hash. The index
// feeds the fuzzy-match fallback rung; entries for evicted values are
// harmless because a fuzzy hit re-reads the cache.
func (c *RedisCache) IndexName(ctx context.Context, category contractx.Category, name, key string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if err := c.client.HSet(ctx, indexKey(category), strings.ToLower(name), key).Err(); err != nil {
		return fmt.Errorf("%w: cache index: %v", contractx.ErrUpstreamUnavailable, err)
	}
	return nil
}

func (c *RedisCache) Names(ctx context.Context, category contractx.Category) (map[string]string, error) {
	names, err := c.client.HGetAll(ctx, indexKey(category)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: cache names: %v", contractx.ErrUpstreamUnavailable, err)
	}
	return names, nil
}

// Observe records a lookup outcome for the category.
func Observe(category contractx.Category, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	metrics.CacheLookups.WithLabelValues(string(category), outcome).Inc()
}
