package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectindex/internal/catalog"
)

// statusFor maps an update error to an HTTP status and a client message.
func statusFor(err error) (int, string) {
	var httpErr *echo.HTTPError
	var upstream *catalog.UpstreamError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	case errors.Is(err, catalog.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "Project not found"
	case errors.Is(err, catalog.ErrConfiguration):
		return http.StatusInternalServerError, "GitHub token not configured"
	case errors.As(err, &upstream) && upstream.Conflict:
		return http.StatusConflict, upstream.Error()
	case errors.As(err, &upstream):
		return http.StatusBadGateway, upstream.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// handleError renders every error as {"error": message}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "request failed", zap.Int("status", status), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse{Error: message})
	}
	if err != nil {
		s.logger.Warn(c.Request().Context(), "failed to write error response", zap.Error(err))
	}
}
