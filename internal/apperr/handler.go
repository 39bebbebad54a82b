package apperr

import (
    "log"
    "net/http"

    "github.com/labstack/echo/v4"
)

// envelope is the uniform response body: status is "fail" for 4xx and
// "error" for 5xx, message is stable and safe to show to clients.
type envelope struct {
    Status     string      `json:"status"`
    Message    string      `json:"message"`
    Data       interface{} `json:"data"`
    RetryAfter string      `json:"retryAfter,omitempty"`
}

// HTTPErrorHandler is installed as Echo's central error handler.  Tagged
// errors are rendered by kind; echo.HTTPError (404 route misses, bind
// failures) keeps its status; anything else becomes a generic 500 and is
// logged with full context server-side.
func HTTPErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }

    status := http.StatusInternalServerError
    msg := "internal server error"
    retryAfter := ""

    if e, ok := As(err); ok {
        status = e.Kind.Status()
        msg = e.Message
        if e.Kind == KindInternal || e.Kind == KindUnavailable {
            log.Printf("request failed: %v (path=%s)", err, c.Path())
        }
        if !e.RetryAfter.IsZero() {
            retryAfter = e.RetryAfter.UTC().Format(http.TimeFormat)
            c.Response().Header().Set("Retry-After", retryAfter)
        }
    } else if he, ok := err.(*echo.HTTPError); ok {
        status = he.Code
        if s, ok := he.Message.(string); ok {
            msg = s
        } else {
            msg = http.StatusText(he.Code)
        }
    } else {
        log.Printf("unhandled error: %v (path=%s)", err, c.Path())
    }

    state := "error"
    if status < http.StatusInternalServerError {
        state = "fail"
    }

    if c.Request().Method == http.MethodHead {
        _ = c.NoContent(status)
        return
    }
    _ = c.JSON(status, envelope{Status: state, Message: msg, RetryAfter: retryAfter})
}
