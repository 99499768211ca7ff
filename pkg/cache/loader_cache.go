// Package cache provides a bounded read-through cache whose concurrent misses for the same key share
// one load.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// LoaderCache maps keys to values, loading on miss. Keys are reduced to strings by keyFn for both the
// LRU and the singleflight group. Failed loads are not cached.
type LoaderCache[K comparable, V any] struct {
	entries *lru.Cache[string, V]
	flights singleflight.Group
	keyFn   func(K) string
}

// NewLoaderCache creates a cache holding at most size entries.
func NewLoaderCache[K comparable, V any](size int, keyFn func(K) string) (*LoaderCache[K, V], error) {
	entries, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	return &LoaderCache[K, V]{entries: entries, keyFn: keyFn}, nil
}

// Get returns the cached value for key or runs load. hit reports whether the value was already cached.
func (c *LoaderCache[K, V]) Get(
	ctx context.Context, key K, load func(context.Context, K) (V, error),
) (value V, hit bool, err error) {
	k := c.keyFn(key)
	if v, ok := c.entries.Get(k); ok {
		return v, true, nil
	}

	res, err, _ := c.flights.Do(k, func() (any, error) {
		v, loadErr := load(ctx, key)
		if loadErr != nil {
			return nil, loadErr
		}

		c.entries.Add(k, v)

		return v, nil
	})
	if err != nil {
		var zero V

		return zero, false, err
	}

	return res.(V), false, nil
}

// HashKey is a key function for long free-text keys: it stores a fixed-size SHA-256 digest instead of
// the text itself.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))

	return hex.EncodeToString(sum[:])
}
