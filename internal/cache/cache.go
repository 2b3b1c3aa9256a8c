// Package cache provides a small in-process LRU cache with TTL. Rate
// lookups sit on the settlement hot path and the underlying table only
// changes on refresh, so a short TTL keeps reads off sqlite.
package cache

import "time"

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Size returns the current number of items in the cache
	Size() int
}

// compile-time check
var _ Cache[time.Time] = (*LRUCache[time.Time])(nil)
