package cache

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// incrScript bumps a counter and arms its TTL only on creation, in one
// round trip.  Running it server-side removes the read-modify-write race a
// GET/SET counter would have under concurrent requests.  Returns the new
// count and the remaining TTL in milliseconds.
var incrScript = redis.NewScript(`
    local count = redis.call('INCR', KEYS[1])
    if count == 1 then
        redis.call('PEXPIRE', KEYS[1], ARGV[1])
    end
    local ttl = redis.call('PTTL', KEYS[1])
    return { count, ttl }
`)

// decrScript decrements with a floor of zero.  A missing key stays missing.
var decrScript = redis.NewScript(`
    local current = tonumber(redis.call('GET', KEYS[1]) or '0')
    if current > 0 then
        redis.call('DECR', KEYS[1])
    end
    return current
`)

// RedisStore implements Store on top of go-redis.  Every transport error is
// wrapped in ErrUnavailable so callers can distinguish "key absent" from
// "Redis down" and fail closed on the latter.
type RedisStore struct {
    rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
    if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
        return unavailable("set", err)
    }
    return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
    v, err := s.rdb.Get(ctx, key).Result()
    if errors.Is(err, redis.Nil) {
        return "", ErrNotFound
    }
    if err != nil {
        return "", unavailable("get", err)
    }
    return v, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
    if err := s.rdb.Del(ctx, key).Err(); err != nil {
        return unavailable("del", err)
    }
    return nil
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
    vals, err := incrScript.Run(ctx, s.rdb, []string{key}, window.Milliseconds()).Int64Slice()
    if err != nil {
        return 0, time.Time{}, unavailable("incr", err)
    }
    if len(vals) != 2 {
        return 0, time.Time{}, unavailable("incr", fmt.Errorf("unexpected script reply: %v", vals))
    }
    count, ttlMs := vals[0], vals[1]
    if ttlMs < 0 {
        // Counter exists without a TTL (e.g. PEXPIRE lost to a crash); treat
        // the full window as remaining rather than leaking a permanent key.
        ttlMs = window.Milliseconds()
    }
    return count, time.Now().Add(time.Duration(ttlMs) * time.Millisecond), nil
}

func (s *RedisStore) Decrement(ctx context.Context, key string) error {
    if err := decrScript.Run(ctx, s.rdb, []string{key}).Err(); err != nil {
        return unavailable("decr", err)
    }
    return nil
}

func unavailable(op string, err error) error {
    return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
