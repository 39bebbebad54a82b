// Package session implements the server-side session store.  Records live in
// the shared cache under "session:<id>" with a rolling TTL and are bound to
// the client through a signed, httpOnly cookie.  The package also owns the
// auth cookie mirroring (accessToken / refreshToken) used as an alternate
// transport to header-based tokens.
package session

import "time"

// Session is the server-side record for one browser session.  A session
// without a UserID is anonymous and must be rejected by gated routes.
type Session struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticated reports whether a user has been bound to the session.
func (s *Session) Authenticated() bool { return s != nil && s.UserID != "" }
