package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/excellense/internal/handler"
	"github.com/iliyamo/excellense/internal/middleware"
	"github.com/iliyamo/excellense/internal/model"
)

// RegisterAdmin registers /admin.  Listings and role changes are open
// to admins; blocking and the admin request queue are superadmin only.
// cache fronts the read-only listings.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, auth, cache echo.MiddlewareFunc) {
	g := e.Group("/admin", auth)

	admins := g.Group("", middleware.RequireRole(model.RoleAdmin))
	admins.GET("/users", a.ListUsers)
	admins.PUT("/users/:id/role", a.ChangeRole)
	admins.GET("/uploads", a.ListUploads, cache)
	admins.GET("/analyses", a.ListAnalyses, cache)

	supers := g.Group("", middleware.RequireRole(model.RoleSuperAdmin))
	supers.PUT("/users/:id/block", a.SetBlocked)
	supers.GET("/admin-requests", a.ListAdminRequests)
	supers.POST("/admin-requests/:id/approve", a.ApproveAdminRequest)
	supers.POST("/admin-requests/:id/reject", a.RejectAdminRequest)
}
