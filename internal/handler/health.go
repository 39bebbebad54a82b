package handler // declare the package name; contains HTTP handlers

import (
    "net/http"          // net/http provides status codes and response helpers
    "time"              // timestamp for the health payload

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
    return respond(c, http.StatusOK, "server is healthy", map[string]string{
        "timestamp": time.Now().UTC().Format(time.RFC3339),
    })
}
