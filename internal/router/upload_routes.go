package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/excellense/internal/handler"
	"github.com/iliyamo/excellense/internal/middleware"
	"github.com/iliyamo/excellense/internal/model"
)

// RegisterUploads registers /uploads.  bodyLimit caps the multipart
// body; the global JSON limit skips this prefix.
func RegisterUploads(e *echo.Echo, u *handler.UploadHandler, auth, bodyLimit echo.MiddlewareFunc) {
	g := e.Group("/uploads", bodyLimit, auth, middleware.RequireRole(model.RoleUser))
	g.POST("", u.Create)
	g.GET("", u.List)
	g.GET("/:id", u.Get)
	g.DELETE("/:id", u.Delete)
}

// RegisterAnalyses registers /chart-analysis for signed-in users.
func RegisterAnalyses(e *echo.Echo, a *handler.AnalysisHandler, auth echo.MiddlewareFunc) {
	g := e.Group("/chart-analysis", auth, middleware.RequireRole(model.RoleUser))
	g.POST("", a.Create)
	g.GET("/user/:email", a.ListByUser)
	g.DELETE("/:id", a.Delete)
}
