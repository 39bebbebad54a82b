package middleware

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/notes-api/internal/apperr"
    "github.com/iliyamo/notes-api/internal/session"
)

// LoadSession resolves the request's session cookie into a *session.Session
// on the context before the handler runs.  Anonymous requests pass through
// with no session; a cache outage aborts the request (fail closed) because
// a gated route downstream could otherwise be tricked into allowing it.
func LoadSession(m *session.Manager) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if _, err := m.Load(c.Request().Context(), c); err != nil {
                return apperr.Wrap(apperr.KindUnavailable, "service temporarily unavailable", err)
            }
            return next(c)
        }
    }
}

// RequireSession gates routes that demand an authenticated session.  A
// missing session or one with no bound user id is rejected with 401.
func RequireSession() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !session.FromContext(c).Authenticated() {
                return apperr.New(apperr.KindAuthentication, "you must be logged in")
            }
            return next(c)
        }
    }
}
