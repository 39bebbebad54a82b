// Package apperr defines the application error taxonomy.  Instead of a type
// hierarchy, every expected failure carries a Kind tag; a single Echo error
// handler at the boundary maps kinds to HTTP responses.  Handlers and
// middleware construct these errors, repositories keep their own sentinels
// and are translated at the handler layer.
package apperr

import (
    "errors"
    "net/http"
    "time"
)

// Kind enumerates the expected failure categories.
type Kind int

const (
    KindInternal        Kind = iota // unexpected failure, rendered generically
    KindInvariant                   // business-rule violation (400)
    KindAuthentication              // bad credentials or missing token (401)
    KindTokenExpired                // token past its exp claim (401)
    KindTokenInvalid                // malformed or tampered token (401)
    KindForbidden                   // resource owned by someone else (403)
    KindNotFound                    // resource does not exist (404)
    KindTooManyRequests             // rate limit exceeded (429)
    KindUnavailable                 // required dependency (cache) down (503)
)

// Error is a tagged application error.  RetryAfter is only set for
// KindTooManyRequests and tells the client when the current window resets.
type Error struct {
    Kind       Kind
    Message    string
    RetryAfter time.Time
    Err        error // wrapped cause, for server-side logs only
}

func (e *Error) Error() string {
    if e.Err != nil {
        return e.Message + ": " + e.Err.Error()
    }
    return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error with a client-facing message.
func New(kind Kind, message string) *Error {
    return &Error{Kind: kind, Message: message}
}

// Wrap builds a tagged error around a cause.  The cause is logged server-side
// but never rendered to the client.
func Wrap(kind Kind, message string, err error) *Error {
    return &Error{Kind: kind, Message: message, Err: err}
}

// Status maps an error kind to its HTTP status code.
func (k Kind) Status() int {
    switch k {
    case KindInvariant:
        return http.StatusBadRequest
    case KindAuthentication, KindTokenExpired, KindTokenInvalid:
        return http.StatusUnauthorized
    case KindForbidden:
        return http.StatusForbidden
    case KindNotFound:
        return http.StatusNotFound
    case KindTooManyRequests:
        return http.StatusTooManyRequests
    case KindUnavailable:
        return http.StatusServiceUnavailable
    default:
        return http.StatusInternalServerError
    }
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
    var e *Error
    if errors.As(err, &e) {
        return e, true
    }
    return nil, false
}
