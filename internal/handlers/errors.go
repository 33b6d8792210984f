package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/bloglist/backend/internal/models"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NewHTTPErrorHandler renders errors as {"error": "..."}. Server side failures
// are logged with their internal cause and answered with a generic message.
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "internal server error"

		var he *echo.HTTPError
		switch {
		case errors.Is(err, echo.ErrNotFound):
			code, message = http.StatusNotFound, "unknown endpoint"
		case errors.As(err, &he):
			code = he.Code
			if code < http.StatusInternalServerError {
				message = fmt.Sprint(he.Message)
			}
		}

		if code >= http.StatusInternalServerError {
			cause := err
			if he != nil && he.Internal != nil {
				cause = he.Internal
			}
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(cause),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, models.ErrorResponse{Error: message})
		}
		if err != nil {
			logger.Error("writing error response failed", zap.Error(err))
		}
	}
}

func internalError(err error) error {
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}
