package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// RateLimitClass describes one rate-limit bucket: a fixed window length and
// the maximum number of requests a single client key may issue inside it.
// SkipSuccessful marks classes (currently only "auth") where successful
// responses are compensated back out of the counter, so only failures count
// toward the ceiling.
type RateLimitClass struct {
    Name           string
    Window         time.Duration
    Max            int
    SkipSuccessful bool
}

// RateLimitConfig bundles the per-class limits together with the global
// switch and key prefix.  When Enabled is false the middleware becomes a
// pass-through.
type RateLimitConfig struct {
    Enabled bool
    Prefix  string
    General RateLimitClass
    Auth    RateLimitClass
    Read    RateLimitClass
    Write   RateLimitClass
    Upload  RateLimitClass
    Export  RateLimitClass
}

// LoadRateLimitConfig builds the rate-limit table.  The defaults mirror the
// documented thresholds (general 15m/100, auth 15m/5, write 1m/10, read
// 1m/30, upload 1h/20, export 1h/5); each ceiling can be overridden via
// RATE_LIMIT_<CLASS>_MAX for load testing without recompiling.
func LoadRateLimitConfig() RateLimitConfig {
    return RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Prefix:  envStr("RATE_LIMIT_PREFIX", "ratelimit"),
        General: class("general", 15*time.Minute, 100, false),
        Auth:    class("auth", 15*time.Minute, 5, true),
        Read:    class("read", time.Minute, 30, false),
        Write:   class("write", time.Minute, 10, false),
        Upload:  class("upload", time.Hour, 20, false),
        Export:  class("export", time.Hour, 5, false),
    }
}

func class(name string, window time.Duration, max int, skipOK bool) RateLimitClass {
    c := RateLimitClass{Name: name, Window: window, Max: max, SkipSuccessful: skipOK}
    if n := envInt("RATE_LIMIT_"+strings.ToUpper(name)+"_MAX", -1); n > 0 {
        c.Max = n
    }
    if c.Max < 1 {
        c.Max = 1
    }
    return c
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    b, err := strconv.ParseBool(v)
    if err != nil {
        return d
    }
    return b
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}
