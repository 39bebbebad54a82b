package handler

import "github.com/labstack/echo/v4"

// respond writes the uniform success envelope used by every endpoint.
// Failures never pass through here; they are raised as apperr values and
// rendered by the central error handler.
func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, map[string]interface{}{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}
