package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/khoj-clinics/khoj/internal/domain/apperr"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

// ErrorHandler maps classified domain errors to their HTTP status and wraps
// everything else as a 500. Internal error details are logged, never returned.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"
		label := "internal"

		if kind := apperr.KindOf(err); kind != 0 {
			status = kind.HTTPStatus()
			message = err.Error()
			label = kind.String()
		} else if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			message = http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok {
				message = s
			}
			label = http.StatusText(status)
		} else {
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		resp := ErrorResponse{
			Timestamp: time.Now().UTC(),
			Status:    status,
			Error:     label,
			Message:   message,
			Path:      c.Request().URL.Path,
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}
