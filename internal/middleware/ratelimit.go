package middleware

import (
    "fmt"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/notes-api/internal/apperr"
    "github.com/iliyamo/notes-api/internal/cache"
    "github.com/iliyamo/notes-api/internal/config"
)

// RateLimit returns a fixed-window limiter for one route class.  The counter
// key is "<prefix>:<class>:<client>"; the store's Increment arms the TTL only
// when it creates the counter, so the window is anchored to its first request
// and never slides.  A store failure is a 503, never a silent allow: the
// cache is authoritative and the limiter fails closed.
//
// Classes with SkipSuccessful (auth) compensate successful requests back out
// of the counter after the handler returns, so only failed attempts count
// toward the ceiling.
func RateLimit(cfg config.RateLimitConfig, class config.RateLimitClass, store cache.Store) echo.MiddlewareFunc {
    if !cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx := c.Request().Context()
            key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, class.Name, clientKey(c))

            count, resetAt, err := store.Increment(ctx, key, class.Window)
            if err != nil {
                return apperr.Wrap(apperr.KindUnavailable, "service temporarily unavailable", err)
            }

            remaining := int64(class.Max) - count
            if remaining < 0 {
                remaining = 0
            }
            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(class.Max))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

            if count > int64(class.Max) {
                e := apperr.New(apperr.KindTooManyRequests, "too many requests, please try again later")
                e.RetryAfter = resetAt
                return e
            }

            err = next(c)

            // Skip-successful policy: a request that succeeded does not
            // count toward the ceiling, so undo its increment.  The floor
            // of zero lives in the store.
            if class.SkipSuccessful && err == nil && c.Response().Status < 400 {
                if derr := store.Decrement(ctx, key); derr != nil {
                    c.Logger().Warnf("ratelimit: decrement %s failed: %v", key, derr)
                }
            }
            return err
        }
    }
}

// clientKey identifies the caller for rate-limiting purposes: the
// authenticated user id when known, the remote IP otherwise.
func clientKey(c echo.Context) string {
    if uid := currentUserID(c); uid != "" {
        return "user:" + uid
    }
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    return "ip:" + ip
}
