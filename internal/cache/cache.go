// Package cache holds short-lived Redis keys. It never stores analysis
// results; those are always recomputed from the database.
package cache

import (
	"context"
	"time"
)

// Claims guards work that must not be queued twice while it is pending.
type Claims interface {
	// Claim sets key if absent and reports whether this caller now owns it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, keys ...string) error
}
