package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/sha256" // SHA-256 hashing for the refresh-token allow-list
    "encoding/hex"  // hex encoding for digests
    "errors"        // sentinel error definitions
    "time"          // expiry calculations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Sentinel errors returned by VerifyToken.  Callers react differently to the
// two cases: an expired refresh token may prompt a re-login, a tampered or
// malformed token is rejected outright.
var (
    ErrTokenExpired = errors.New("token has expired")
    ErrTokenInvalid = errors.New("token is invalid")
)

// TokenClaims is the payload carried by both token flavors: the user id and
// username, plus the standard exp/iat claims added at signing time.  Access
// and refresh tokens share this shape and differ only in signing secret and
// TTL.
type TokenClaims struct {
    UserID   string `json:"id"`
    Username string `json:"username"`
    jwt.RegisteredClaims
}

// SignedToken pairs a serialized JWT with its expiration time so callers can
// mirror the token into a cookie with a matching Max-Age.
type SignedToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewToken builds and signs an HS256 JWT for a user.  The same constructor
// serves both flavors; the caller passes the access secret with a
// minutes-scale TTL or the refresh secret with a days-scale TTL.
func NewToken(secret, userID, username string, ttl time.Duration) (SignedToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := TokenClaims{
        UserID:   userID,
        Username: username,
        RegisteredClaims: jwt.RegisteredClaims{
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SignedToken{}, err
    }
    return SignedToken{Token: signed, Exp: exp}, nil
}

// VerifyToken parses and validates a JWT against the given secret and
// returns its claims.  Expiry is reported as ErrTokenExpired; any other
// parse or signature failure (including a wrong signing algorithm) is
// ErrTokenInvalid.
func VerifyToken(raw, secret string) (*TokenClaims, error) {
    claims := &TokenClaims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrTokenInvalid
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return nil, ErrTokenExpired
        }
        return nil, ErrTokenInvalid
    }
    if !tok.Valid {
        return nil, ErrTokenInvalid
    }
    return claims, nil
}

// HashToken returns the SHA-256 hash of a token as a hex string.  The
// allow-list stores only this digest, so a leaked table cannot be replayed
// as live refresh tokens.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
