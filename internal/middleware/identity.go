package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID pulls the user id placed on the context by the JWT
// middleware; an empty string means the request is anonymous.

import "github.com/labstack/echo/v4"

// currentUserID returns the authenticated user's id, or "" when the request
// carries no (valid) access token.
func currentUserID(c echo.Context) string {
    if v := c.Get("user_id"); v != nil {
        if s, ok := v.(string); ok {
            return s
        }
    }
    return ""
}
