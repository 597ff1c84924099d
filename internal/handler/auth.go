package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/middleware"
	"github.com/iliyamo/excellense/internal/service"
)

// AuthHandler serves /auth: registration, admin requests, login and the
// caller's own profile.
type AuthHandler struct {
	Auth     *service.AuthService
	Requests *service.AdminRequestService
	Users    *service.UserService
	Logger   *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, requests *service.AdminRequestService, users *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Requests: requests, Users: users, Logger: logger}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateNameReq struct {
	Name string `json:"name"`
}

type updatePasswordReq struct {
	Password string `json:"password"`
}

// Register creates a regular user account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, req)
	if err != nil {
		return respondError(c, h.Logger, err, "Server error")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully", "user": u})
}

// SubmitAdminRequest files an admin application for superadmin review.
func (h *AuthHandler) SubmitAdminRequest(c echo.Context) error {
	var req service.AdminRequestInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	ar, err := h.Requests.Submit(ctx, req)
	if err != nil {
		return respondError(c, h.Logger, err, "Server error")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Admin registration request submitted. Await superadmin approval.",
		"request": ar,
	})
}

// Login returns a session token and the user it belongs to.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	tok, u, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.Logger, err, "Server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": tok.Token, "expiresAt": tok.Exp, "user": u})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, u)
}

// UpdateName changes the caller's username.
func (h *AuthHandler) UpdateName(c echo.Context) error {
	var req updateNameReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	me, _ := middleware.CurrentUser(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.UpdateName(ctx, me.ID, req.Name)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to update name")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Name updated successfully", "username": u.Username})
}

// UpdatePassword changes the caller's password.  Existing tokens stay
// valid until they expire.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var req updatePasswordReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	me, _ := middleware.CurrentUser(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Users.UpdatePassword(ctx, me.ID, req.Password); err != nil {
		return respondError(c, h.Logger, err, "Failed to update password")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated successfully"})
}

// UpdateProfileImage stores the multipart field "profileImage" as the
// caller's avatar.
func (h *AuthHandler) UpdateProfileImage(c echo.Context) error {
	fh, err := c.FormFile("profileImage")
	if err != nil {
		return badRequest(c, "No file uploaded")
	}
	if fh.Size > service.MaxProfileImageBytes {
		return badRequest(c, "Profile image must be 2 MB or smaller")
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to update profile image")
	}
	defer f.Close()
	img, err := io.ReadAll(io.LimitReader(f, service.MaxProfileImageBytes+1))
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to update profile image")
	}

	me, _ := middleware.CurrentUser(c)
	ctx, cancel := requestContext(c)
	defer cancel()
	uri, err := h.Users.UpdateProfileImage(ctx, me.ID, img)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to update profile image")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile image updated successfully", "profileImage": uri})
}
