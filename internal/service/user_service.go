package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/model"
	"github.com/iliyamo/excellense/internal/utils"
)

// MaxProfileImageBytes caps avatar uploads.
const MaxProfileImageBytes = 2 << 20

// UserService covers user administration and profile edits.
type UserService struct {
	users      UserRepository
	bcryptCost int
	logger     *zap.Logger
}

func NewUserService(users UserRepository, bcryptCost int, logger *zap.Logger) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost, logger: logger}
}

// List returns every user, newest first.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// ChangeRole sets the role of targetID on behalf of actor.
//
// Superadmins are never changed and never created here.  An admin may
// only promote or demote plain users; a superadmin may change any
// non-superadmin.
func (s *UserService) ChangeRole(ctx context.Context, actor model.User, targetID uint64, newRole model.Role) (model.User, error) {
	if newRole != model.RoleUser && newRole != model.RoleAdmin {
		return model.User{}, fail(ErrValidation, "Role must be user or admin")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return model.User{}, fromRepo(err, "User")
	}
	if target.Role == model.RoleSuperAdmin {
		return model.User{}, fail(ErrImmutableRole, "Superadmin role cannot be changed")
	}
	if !actor.Role.AtLeast(model.RoleSuperAdmin) && target.Role != model.RoleUser {
		return model.User{}, fail(ErrForbidden, "Admins can only change the role of regular users")
	}
	if target.Role == newRole {
		return target, nil
	}
	if err := s.users.UpdateRole(ctx, targetID, newRole); err != nil {
		return model.User{}, fromRepo(err, "User")
	}
	s.logger.Info("user role changed",
		zap.Uint64("actor_id", actor.ID),
		zap.Uint64("user_id", targetID),
		zap.Stringer("from", target.Role),
		zap.Stringer("to", newRole),
	)
	target.Role = newRole
	return target, nil
}

// SetBlocked blocks or unblocks targetID.  Superadmins cannot be blocked.
func (s *UserService) SetBlocked(ctx context.Context, targetID uint64, blocked bool) (model.User, error) {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return model.User{}, fromRepo(err, "User")
	}
	if target.Role == model.RoleSuperAdmin {
		return model.User{}, fail(ErrImmutableRole, "Superadmin cannot be blocked")
	}
	if err := s.users.SetBlocked(ctx, targetID, blocked); err != nil {
		return model.User{}, fromRepo(err, "User")
	}
	s.logger.Info("user block state changed", zap.Uint64("user_id", targetID), zap.Bool("blocked", blocked))
	target.Blocked = blocked
	return target, nil
}

// UpdateName renames the user.  The new name must be unused.
func (s *UserService) UpdateName(ctx context.Context, id uint64, name string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, fail(ErrValidation, "Name is required")
	}
	if err := checkLen("Name", name, maxUsernameLen); err != nil {
		return model.User{}, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, fromRepo(err, "User")
	}
	if u.Username == name {
		return u, nil
	}
	if err := s.users.UpdateUsername(ctx, id, name); err != nil {
		return model.User{}, fromRepo(err, "User")
	}
	u.Username = name
	return u, nil
}

// UpdatePassword replaces the user's password.
func (s *UserService) UpdatePassword(ctx context.Context, id uint64, password string) error {
	if password == "" {
		return fail(ErrValidation, "Password is required")
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return fromRepo(err, "User")
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	return fromRepo(s.users.UpdatePasswordHash(ctx, id, hash), "User")
}

// UpdateProfileImage stores img as the user's avatar and returns the
// data: URI it was saved as.
func (s *UserService) UpdateProfileImage(ctx context.Context, id uint64, img []byte) (string, error) {
	if len(img) == 0 {
		return "", fail(ErrNoFile, "No file uploaded")
	}
	if len(img) > MaxProfileImageBytes {
		return "", fail(ErrValidation, "Profile image must be 2 MB or smaller")
	}
	ct := http.DetectContentType(img)
	if !strings.HasPrefix(ct, "image/") {
		return "", fail(ErrValidation, "Profile image must be an image")
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return "", fromRepo(err, "User")
	}
	uri := "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img)
	if err := s.users.UpdateProfileImage(ctx, id, uri); err != nil {
		return "", fromRepo(err, "User")
	}
	return uri, nil
}
