package router // package router defines how HTTP routes are registered for the API

import (
	"net/http" // the metrics endpoint is a plain http.Handler

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/excellense/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/excellense/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/excellense/internal/model"
)

// RegisterRoutes registers the routes that need no authentication: the
// banner, the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, metrics http.Handler) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers /auth.  register, admin-requests and login are
// open; the profile endpoints need a session.  limiter runs in front of
// every /auth route.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/admin-requests", a.SubmitAdminRequest)
	g.POST("/login", a.Login)

	// Signed-in users of any role.
	me := g.Group("", auth, middleware.RequireRole(model.RoleUser))
	me.GET("/me", a.Me)
	me.PUT("/update-name", a.UpdateName)
	me.PUT("/update-password", a.UpdatePassword)
	me.POST("/update-profile-image", a.UpdateProfileImage)
}
