package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/service"
)

// dbTimeout bounds the work a handler does for one request.
const dbTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// statusOf maps a service error kind to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrDuplicateIdentity),
		errors.Is(err, service.ErrAdminRoleNotAllowed),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAccountBlocked),
		errors.Is(err, service.ErrInvalidPassKey),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrImmutableRole):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"message": ...}.  Unexpected errors are
// logged and answered with fallback so no internal detail leaks.
func respondError(c echo.Context, logger *zap.Logger, err error, fallback string) error {
	status := statusOf(err)
	var se *service.Error
	if status == http.StatusInternalServerError {
		if errors.As(err, &se) {
			// a known failure whose message is safe to show, e.g. a parse error
			logger.Warn(se.Message, zap.String("path", c.Path()), zap.Error(se.Kind))
			return c.JSON(status, echo.Map{"message": se.Message})
		}
		logger.Error(fallback,
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.JSON(status, echo.Map{"message": fallback})
	}
	msg := err.Error()
	if errors.As(err, &se) {
		msg = se.Message
	}
	return c.JSON(status, echo.Map{"message": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
}

// idParam parses the :id path parameter.
func idParam(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
