package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/middleware"
	"github.com/iliyamo/excellense/internal/model"
	"github.com/iliyamo/excellense/internal/service"
)

// AdminHandler serves /admin.  The router decides which endpoints need
// admin and which need superadmin.
type AdminHandler struct {
	Users    *service.UserService
	Uploads  *service.UploadService
	Analyses *service.AnalysisService
	Requests *service.AdminRequestService
	Logger   *zap.Logger
}

func NewAdminHandler(users *service.UserService, uploads *service.UploadService, analyses *service.AnalysisService, requests *service.AdminRequestService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Users: users, Uploads: uploads, Analyses: analyses, Requests: requests, Logger: logger}
}

type changeRoleReq struct {
	Role string `json:"role"`
}

type setBlockedReq struct {
	Blocked *bool `json:"blocked"`
}

type rejectReq struct {
	Reason string `json:"reason"`
}

// ListUsers returns every user.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to fetch users")
	}
	return c.JSON(http.StatusOK, users)
}

// ChangeRole sets a user's role to user or admin.
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
	}
	var req changeRoleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return badRequest(c, "Role must be user or admin")
	}
	me, _ := middleware.CurrentUser(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.ChangeRole(ctx, me, id, role)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to change role")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Role updated successfully", "user": u})
}

// SetBlocked blocks or unblocks a user.
func (h *AdminHandler) SetBlocked(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
	}
	var req setBlockedReq
	if err := c.Bind(&req); err != nil || req.Blocked == nil {
		return badRequest(c, "blocked must be true or false")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.SetBlocked(ctx, id, *req.Blocked)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to update user")
	}
	msg := "User unblocked"
	if u.Blocked {
		msg = "User blocked"
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "user": u})
}

// ListUploads returns every upload.
func (h *AdminHandler) ListUploads(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	ups, err := h.Uploads.ListAll(ctx)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to fetch uploads")
	}
	return c.JSON(http.StatusOK, ups)
}

// ListAnalyses returns every chart analysis.
func (h *AdminHandler) ListAnalyses(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Analyses.ListAll(ctx)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to fetch chart analyses")
	}
	return c.JSON(http.StatusOK, list)
}

// ListAdminRequests returns admin requests, optionally ?status=.
func (h *AdminHandler) ListAdminRequests(c echo.Context) error {
	var status model.RequestStatus
	if s := c.QueryParam("status"); s != "" {
		st, err := model.ParseRequestStatus(s)
		if err != nil {
			return badRequest(c, "status must be pending, approved or rejected")
		}
		status = st
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Requests.List(ctx, status)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to fetch admin requests")
	}
	return c.JSON(http.StatusOK, list)
}

// ApproveAdminRequest creates the admin account for a pending request.
func (h *AdminHandler) ApproveAdminRequest(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Admin request not found"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Requests.Approve(ctx, id)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to approve request")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Admin request approved", "user": u})
}

// RejectAdminRequest closes a pending request with an optional reason.
func (h *AdminHandler) RejectAdminRequest(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Admin request not found"})
	}
	// the body is optional, but one that is sent must parse
	var req rejectReq
	if err := c.Bind(&req); err != nil && c.Request().ContentLength > 0 {
		return badRequest(c, "Invalid request body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	ar, err := h.Requests.Reject(ctx, id, req.Reason)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to reject request")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Admin request rejected", "request": ar})
}
