package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Catalog caches JSON-encoded list results under a key prefix. Cache errors
// are logged and treated as misses so the database stays authoritative.
type Catalog struct {
	Store  Store
	TTL    time.Duration
	Prefix string
	Logger *zap.Logger
}

// Load returns the cached value for key, or calls fetch and caches its result.
func Load[T any](ctx context.Context, c *Catalog, key string, fetch func(context.Context) (T, error)) (T, error) {
	if c == nil || c.Store == nil {
		return fetch(ctx)
	}
	full := c.Prefix + key
	if raw, ok, err := c.Store.Get(ctx, full); err != nil {
		c.logWarn("cache get failed", err, full)
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		c.logWarn("cache decode failed", err, full)
	}
	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err == nil {
		if err := c.Store.Set(ctx, full, raw, c.TTL); err != nil {
			c.logWarn("cache set failed", err, full)
		}
	}
	return v, nil
}

// Invalidate drops the given keys.
func (c *Catalog) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.Store == nil || len(keys) == 0 {
		return
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.Prefix+k)
	}
	if err := c.Store.Delete(ctx, full...); err != nil {
		c.logWarn("cache invalidate failed", err, full[0])
	}
}

func (c *Catalog) logWarn(msg string, err error, key string) {
	if c.Logger == nil {
		return
	}
	c.Logger.Warn(msg, zap.String("key", key), zap.Error(err))
}
