package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"  // context carries the request deadline into the user lookup
	"errors"   // errors.Is maps token and repository errors to responses
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming
	"time"     // time bounds the user lookup

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers
	"go.uber.org/zap"             // structured logging for store failures

	"github.com/iliyamo/excellense/internal/model"
	"github.com/iliyamo/excellense/internal/repository"
	"github.com/iliyamo/excellense/internal/utils"
)

// UserLoader loads the stored state of a user.  *repository.UserRepo
// satisfies it.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer session
// token, loads the user it names and attaches that user to the request.
// Handlers read it back with CurrentUser.  Role checks are left to
// RequireRole, which must run after this middleware.
//
// The user row is read on every request, so role changes and blocks
// take effect without waiting for the token to expire.
func JWTAuth(issuer *utils.TokenIssuer, users UserLoader, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer " followed by the token.
			auth := c.Request().Header.Get("Authorization")
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if !strings.HasPrefix(auth, "Bearer ") || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Missing or malformed token"})
			}

			claims, err := issuer.Verify(raw)
			if errors.Is(err, utils.ErrTokenExpired) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token expired"})
			}
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByID(ctx, claims.UserID)
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "User not found"})
			}
			if err != nil {
				logger.Error("auth: load user", zap.Uint64("user_id", claims.UserID), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
			}
			// Blocked accounts lose access immediately, not at token expiry.
			if u.Blocked {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Your account is blocked"})
			}

			setUser(c, u)
			return next(c)
		}
	}
}
