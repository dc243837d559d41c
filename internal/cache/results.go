package cache

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/iwvelando/proforma/internal/engine"
)

// Loader computes a result on a cache miss.
type Loader func(ctx context.Context) (*engine.Result, error)

// Results caches engine results as JSON and collapses concurrent loads of the
// same key into one computation.
type Results struct {
	store  Store
	group  singleflight.Group
	logger *zap.Logger
}

// NewResults wraps store. A nil store caches nothing.
func NewResults(store Store, logger *zap.Logger) *Results {
	if store == nil {
		store = Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Results{store: store, logger: logger}
}

// Fetch returns the result cached under key or loads and stores it. cached
// reports whether the result came from the store. Store failures are logged
// and fall through to the loader.
func (r *Results) Fetch(ctx context.Context, key string, load Loader) (result *engine.Result, cached bool, err error) {
	payload, found, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache read failed",
			zap.String("op", "cache.Fetch"),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	if found {
		var res engine.Result
		if err := json.Unmarshal(payload, &res); err == nil {
			return &res, true, nil
		}
		r.logger.Warn("discarding undecodable cache entry",
			zap.String("op", "cache.Fetch"),
			zap.String("key", key),
		)
	}

	ch := r.group.DoChan(key, func() (interface{}, error) {
		res, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(res); err == nil {
			if err := r.store.Set(ctx, key, raw); err != nil {
				r.logger.Warn("cache write failed",
					zap.String("op", "cache.Fetch"),
					zap.String("key", key),
					zap.Error(err),
				)
			}
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return nil, false, out.Err
		}
		return out.Val.(*engine.Result), false, nil
	}
}

// Close closes the underlying store.
func (r *Results) Close() error {
	return r.store.Close()
}
