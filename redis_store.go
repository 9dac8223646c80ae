package spacetraveling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eringen/spacetraveling/posts"
)

// DefaultRedisPrefix namespaces page keys.
const DefaultRedisPrefix = "spacetraveling:page:"

type redisPage struct {
	HTML    []byte `json:"html"`
	BuiltAt int64  `json:"built_at"`
}

// RedisStore keeps rendered pages in Redis, so several server instances can
// share one set of pre-rendered pages.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to the Redis server at url and verifies it answers.
// Keys expire after ttl; 0 keeps them until deleted.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("spacetraveling: invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("spacetraveling: redis ping failed: %w", err)
	}
	return NewRedisStoreFromClient(rdb, DefaultRedisPrefix, ttl), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(slug string) string {
	return s.prefix + slug
}

// Get returns the stored page for slug or ErrPageNotStored.
func (s *RedisStore) Get(ctx context.Context, slug string) (*RenderedPage, error) {
	raw, err := s.rdb.Get(ctx, s.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPageNotStored
	}
	if err != nil {
		return nil, fmt.Errorf("spacetraveling: load page %q: %w", slug, err)
	}
	var p redisPage
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("spacetraveling: decode page %q: %w", slug, err)
	}
	return &RenderedPage{
		Slug:    slug,
		State:   posts.StatePublished,
		HTML:    p.HTML,
		BuiltAt: time.Unix(0, p.BuiltAt),
	}, nil
}

// Save stores a published page.
func (s *RedisStore) Save(ctx context.Context, page *RenderedPage) error {
	if page.State != posts.StatePublished {
		return nil
	}
	raw, err := json.Marshal(redisPage{HTML: page.HTML, BuiltAt: page.BuiltAt.UnixNano()})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(page.Slug), raw, s.ttl).Err()
}

// Delete removes a page by slug.
func (s *RedisStore) Delete(ctx context.Context, slug string) error {
	return s.rdb.Del(ctx, s.key(slug)).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
