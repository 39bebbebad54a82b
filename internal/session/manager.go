package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/cache"
)

const keyPrefix = "session:"

// Manager owns the session lifecycle on top of the shared cache.  Sessions
// are rolling: every successful Load rewrites the record with a full TTL and
// refreshes the cookie.  Cache failures are propagated untouched so the
// session gate fails closed instead of treating an outage as "no session".
type Manager struct {
	store         cache.Store
	sessionSecret string // signs the sessionId cookie
	cookieSecret  string // signs the mirrored token cookies
	ttl           time.Duration
	secure        bool
}

// NewManager wires the session manager.  ttl is the rolling session
// lifetime; secure toggles the Secure cookie attribute (production only).
func NewManager(store cache.Store, sessionSecret, cookieSecret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:         store,
		sessionSecret: sessionSecret,
		cookieSecret:  cookieSecret,
		ttl:           ttl,
		secure:        secure,
	}
}

// Load resolves the request's session from its cookie.  Returns (nil, nil)
// for an absent, tampered or expired session; the record's TTL and the
// cookie are refreshed on every hit.
func (m *Manager) Load(ctx context.Context, c echo.Context) (*Session, error) {
	sid := signedCookie(c, SessionCookieName, m.sessionSecret)
	if sid == "" {
		return nil, nil
	}
	raw, err := m.store.Get(ctx, keyPrefix+sid)
	if err == cache.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		// A corrupt record is unusable; drop it instead of failing forever.
		_ = m.store.Delete(ctx, keyPrefix+sid)
		return nil, nil
	}
	// Rolling expiry: full TTL again on every request that presents the session.
	if err := m.store.Set(ctx, keyPrefix+sid, raw, m.ttl); err != nil {
		return nil, err
	}
	setCookie(c, SessionCookieName, SignValue(m.sessionSecret, sid), m.ttl, m.secure)
	c.Set(ContextKey, &s)
	return &s, nil
}

// Regenerate allocates a fresh session id bound to the user, destroying any
// session the request previously carried so a pre-login id can never be
// fixated onto an authenticated session.
func (m *Manager) Regenerate(ctx context.Context, c echo.Context, userID, username string) error {
	if old := signedCookie(c, SessionCookieName, m.sessionSecret); old != "" {
		if err := m.store.Delete(ctx, keyPrefix+old); err != nil {
			return err
		}
	}
	sid, err := GenerateID()
	if err != nil {
		return err
	}
	s := Session{UserID: userID, Username: username, CreatedAt: time.Now().UTC()}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := m.store.Set(ctx, keyPrefix+sid, string(raw), m.ttl); err != nil {
		return err
	}
	setCookie(c, SessionCookieName, SignValue(m.sessionSecret, sid), m.ttl, m.secure)
	c.Set(ContextKey, &s)
	return nil
}

// Destroy removes the session record and its cookie binding entirely.
func (m *Manager) Destroy(ctx context.Context, c echo.Context) error {
	if sid := signedCookie(c, SessionCookieName, m.sessionSecret); sid != "" {
		if err := m.store.Delete(ctx, keyPrefix+sid); err != nil {
			return err
		}
	}
	clearCookie(c, SessionCookieName, m.secure)
	c.Set(ContextKey, (*Session)(nil))
	return nil
}

// SetAuthCookies mirrors the freshly issued token pair into signed cookies
// with TTLs matching the tokens themselves.
func (m *Manager) SetAuthCookies(c echo.Context, access, refresh string, accessTTL, refreshTTL time.Duration) {
	setCookie(c, AccessCookieName, SignValue(m.cookieSecret, access), accessTTL, m.secure)
	setCookie(c, RefreshCookieName, SignValue(m.cookieSecret, refresh), refreshTTL, m.secure)
}

// RefreshAccessCookie rewrites only the access-token cookie; used by the
// refresh endpoint, which never rotates the refresh token.
func (m *Manager) RefreshAccessCookie(c echo.Context, access string, accessTTL time.Duration) {
	setCookie(c, AccessCookieName, SignValue(m.cookieSecret, access), accessTTL, m.secure)
}

// ClearAuthCookies drops both token cookies.
func (m *Manager) ClearAuthCookies(c echo.Context) {
	clearCookie(c, AccessCookieName, m.secure)
	clearCookie(c, RefreshCookieName, m.secure)
}

// RefreshTokenFromCookie returns the refresh token carried by its signed
// cookie, or "" when absent or tampered.
func (m *Manager) RefreshTokenFromCookie(c echo.Context) string {
	return signedCookie(c, RefreshCookieName, m.cookieSecret)
}

// ContextKey is where the loaded *Session is stored on the Echo context.
const ContextKey = "session"

// FromContext returns the session placed on the context by Load, or nil.
func FromContext(c echo.Context) *Session {
	if v, ok := c.Get(ContextKey).(*Session); ok {
		return v
	}
	return nil
}
