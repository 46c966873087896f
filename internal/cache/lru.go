package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type lruCache struct {
	lru    *expirable.LRU[string, []byte]
	closed atomic.Bool
}

// NewLRU создаёт in-process кэш на size записей. TTL общий для всех записей:
// аргумент ttl в Set игнорируется.
func NewLRU(size int, ttl time.Duration) Cache {
	if size <= 0 {
		size = 1024
	}

	return &lruCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *lruCache) Get(_ context.Context, key string, dst any) (bool, error) {
	const op = "cache.lru.Get"

	if c.closed.Load() {
		return false, fmt.Errorf("%s: %w", op, ErrClosed)
	}

	b, ok := c.lru.Get(key)
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

func (c *lruCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	const op = "cache.lru.Set"

	if c.closed.Load() {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.lru.Add(key, b)
	return nil
}

func (c *lruCache) Ping(context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	return nil
}

func (c *lruCache) Close() error {
	c.closed.Store(true)
	c.lru.Purge()
	return nil
}
