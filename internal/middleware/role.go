package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/excellense/internal/model"
)

// RequireRole returns a middleware that lets a request through when the
// authenticated user's role is at least the lowest of roles in the
// user < admin < superadmin order.  RequireRole(model.RoleAdmin) thus
// admits admins and superadmins.  With no roles any signed-in user
// passes.  It assumes JWTAuth ran first.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	floor := model.MinRole(roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Missing or malformed token"})
			}
			if !u.Role.AtLeast(floor) {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Insufficient role level: " + u.Role.String()})
			}
			return next(c)
		}
	}
}
