package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "strings" // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/notes-api/internal/apperr" // tagged application errors
    "github.com/iliyamo/notes-api/internal/utils"  // token verification
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's id and username claims into the request context.  The
// provided secret must be the access-token signing key.  This middleware
// wraps protected routes so that handlers can read the authenticated user
// via `c.Get("user_id")` and `c.Get("username")`.
func JWTAuth(accessSecret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return apperr.New(apperr.KindAuthentication, "missing bearer token")
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Verification distinguishes expiry from tampering so the client
            // knows whether refreshing can help.
            claims, err := utils.VerifyToken(raw, accessSecret)
            if err != nil {
                if err == utils.ErrTokenExpired {
                    return apperr.New(apperr.KindTokenExpired, "token has expired")
                }
                return apperr.New(apperr.KindTokenInvalid, "token is invalid")
            }

            // Store the identity claims in the context for handlers and the
            // rate limiter's client-key builder.
            c.Set("user_id", claims.UserID)
            c.Set("username", claims.Username)
            return next(c)
        }
    }
}
