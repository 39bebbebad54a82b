package cache

import (
    "context"
    "strconv"
    "sync"
    "time"
)

type memoryEntry struct {
    value     string
    expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
    return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is a mutex-guarded in-process Store.  Expiry is lazy on read
// plus a background janitor sweep.  It backs the package tests and local
// development without a Redis server; production always runs RedisStore.
type MemoryStore struct {
    mu      sync.RWMutex
    entries map[string]memoryEntry
    stop    chan struct{}
    once    sync.Once
}

// NewMemoryStore creates a MemoryStore and starts a janitor that sweeps
// expired entries at the given interval.  A non-positive interval disables
// the sweep; lazy expiry still applies.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
    m := &MemoryStore{
        entries: make(map[string]memoryEntry),
        stop:    make(chan struct{}),
    }
    if cleanupInterval > 0 {
        go m.janitor(cleanupInterval)
    }
    return m
}

// Stop terminates the janitor goroutine.
func (m *MemoryStore) Stop() { m.once.Do(func() { close(m.stop) }) }

func (m *MemoryStore) janitor(interval time.Duration) {
    ticker := time.NewTicker(interval)
    defer ticker.Stop()
    for {
        select {
        case <-m.stop:
            return
        case now := <-ticker.C:
            m.mu.Lock()
            for k, e := range m.entries {
                if e.expired(now) {
                    delete(m.entries, k)
                }
            }
            m.mu.Unlock()
        }
    }
}

func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
    var exp time.Time
    if ttl > 0 {
        exp = time.Now().Add(ttl)
    }
    m.mu.Lock()
    m.entries[key] = memoryEntry{value: value, expiresAt: exp}
    m.mu.Unlock()
    return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
    m.mu.RLock()
    e, ok := m.entries[key]
    m.mu.RUnlock()
    if !ok || e.expired(time.Now()) {
        return "", ErrNotFound
    }
    return e.value, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
    m.mu.Lock()
    delete(m.entries, key)
    m.mu.Unlock()
    return nil
}

func (m *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
    now := time.Now()
    m.mu.Lock()
    defer m.mu.Unlock()
    e, ok := m.entries[key]
    if !ok || e.expired(now) {
        exp := now.Add(window)
        m.entries[key] = memoryEntry{value: "1", expiresAt: exp}
        return 1, exp, nil
    }
    count := parseCount(e.value) + 1
    // TTL is left untouched so the window stays anchored to its first hit.
    m.entries[key] = memoryEntry{value: formatCount(count), expiresAt: e.expiresAt}
    return count, e.expiresAt, nil
}

func (m *MemoryStore) Decrement(_ context.Context, key string) error {
    now := time.Now()
    m.mu.Lock()
    defer m.mu.Unlock()
    e, ok := m.entries[key]
    if !ok || e.expired(now) {
        return nil
    }
    if count := parseCount(e.value); count > 0 {
        m.entries[key] = memoryEntry{value: formatCount(count - 1), expiresAt: e.expiresAt}
    }
    return nil
}

func parseCount(s string) int64 {
    n, err := strconv.ParseInt(s, 10, 64)
    if err != nil || n < 0 {
        return 0
    }
    return n
}

func formatCount(n int64) string { return strconv.FormatInt(n, 10) }
