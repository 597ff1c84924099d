package middleware

// identity.go stores the authenticated user on the request and reads it
// back for handlers and for the rate limit and cache keys.

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/excellense/internal/model"
)

const userContextKey = "excellense.user"

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(model.User)
	return u, ok
}

// CurrentUser returns the user JWTAuth attached to c.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userContextKey).(model.User)
	return u, ok
}

func setUser(c echo.Context, u model.User) {
	c.Set(userContextKey, u)
	c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), u)))
}

// userID returns the authenticated user's id, or "anon".
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok {
		return strconv.FormatUint(u.ID, 10)
	}
	return "anon"
}
