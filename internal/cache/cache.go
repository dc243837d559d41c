// Package cache memoizes computed projections by assumptions fingerprint.
// Stores are byte oriented; Results layers JSON encoding and request
// collapsing on top of them.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Supported backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// ErrUnknownBackend is returned by New for an unsupported backend name.
var ErrUnknownBackend = errors.New("cache: unknown backend")

// Store is a key/value store with a fixed entry lifetime.
type Store interface {
	// Get returns the value stored under key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Options selects and sizes a backend.
type Options struct {
	Backend   string
	RedisAddr string
	TTL       time.Duration
	Size      int
}

// New creates the Store described by opts. The Redis backend is pinged
// before it is returned.
func New(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		return NewMemory(opts.Size, opts.TTL), nil
	case BackendRedis:
		return NewRedis(ctx, opts.RedisAddr, opts.TTL)
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, opts.Backend)
	}
}

// Nop stores nothing.
type Nop struct{}

// Get implements Store. It always misses.
func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set implements Store. The value is discarded.
func (Nop) Set(context.Context, string, []byte) error { return nil }

// Close implements Store.
func (Nop) Close() error { return nil }
