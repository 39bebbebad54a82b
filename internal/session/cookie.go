package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Cookie names.  The session cookie carries a signed server-side session id;
// the token cookies mirror the JWTs so browser clients do not have to manage
// an Authorization header themselves.
const (
	SessionCookieName = "sessionId"
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// ErrBadSignature is returned when a cookie value fails HMAC verification.
var ErrBadSignature = errors.New("session: cookie signature mismatch")

// SignValue appends an HMAC-SHA256 signature to a cookie value so a
// tampered cookie is detected before any store lookup happens.
func SignValue(secret, value string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	return value + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyValue checks the signature produced by SignValue and returns the
// bare value.  Comparison is constant time.
func VerifyValue(secret, signed string) (string, error) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 {
		return "", ErrBadSignature
	}
	value, sig := signed[:i], signed[i+1:]
	want, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrBadSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	if !hmac.Equal(mac.Sum(nil), want) {
		return "", ErrBadSignature
	}
	return value, nil
}

// setCookie writes a hardened cookie: httpOnly, SameSite=Strict, Secure when
// running in production.
func setCookie(c echo.Context, name, value string, maxAge time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearCookie expires a cookie immediately with the same attributes it was
// set with, otherwise browsers keep the old one around.
func clearCookie(c echo.Context, name string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// signedCookie reads and verifies a signed cookie; empty string when the
// cookie is absent or its signature does not check out.
func signedCookie(c echo.Context, name, secret string) string {
	ck, err := c.Cookie(name)
	if err != nil || ck.Value == "" {
		return ""
	}
	v, err := VerifyValue(secret, ck.Value)
	if err != nil {
		return ""
	}
	return v
}
