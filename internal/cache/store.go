// Package cache provides the key/value store shared by the session store,
// the rate limiter and the response cache.  All values are strings with a
// TTL; an entry past its TTL behaves exactly as if it never existed.
package cache

import (
    "context"
    "errors"
    "time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// ErrUnavailable wraps connection-level failures.  Callers that gate
// requests on the cache (sessions, rate limiting) must propagate it and
// fail closed, never treat it as a miss.
var ErrUnavailable = errors.New("cache: unavailable")

// Store is the contract both the Redis-backed store and the in-memory store
// satisfy.  Increment and Decrement exist for the rate limiter: Increment is
// atomic and only arms the TTL when it creates the counter, so the window
// stays fixed instead of sliding with every request; Decrement is the
// compensating operation and never drives a counter below zero.
type Store interface {
    Set(ctx context.Context, key, value string, ttl time.Duration) error
    Get(ctx context.Context, key string) (string, error)
    Delete(ctx context.Context, key string) error
    Increment(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
    Decrement(ctx context.Context, key string) error
}
