package cache

import (
	"context"
	"time"

	"github.com/matzehuels/noderelax/pkg/observability"
)

type instrumented struct {
	Cache
}

// Instrument wraps c so that every Get and Set is reported to the cache
// hooks registered with [observability.SetCacheHooks]. The hooks are looked
// up on each call, so hooks registered later still apply.
func Instrument(c Cache) Cache {
	if c == nil {
		return nil
	}
	return instrumented{Cache: c}
}

func (c instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err != nil {
		return data, hit, err
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, KeyType(key))
	} else {
		observability.Cache().OnCacheMiss(ctx, KeyType(key))
	}
	return data, hit, nil
}

func (c instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	return nil
}
