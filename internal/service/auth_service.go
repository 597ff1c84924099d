package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/metrics"
	"github.com/iliyamo/excellense/internal/model"
	"github.com/iliyamo/excellense/internal/utils"
)

// RegisterInput is the body of POST /auth/register.  Role may be empty
// or "user"; admin roles go through the admin request workflow.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AuthService handles registration, login and session lookup.
type AuthService struct {
	users      UserRepository
	issuer     *utils.TokenIssuer
	bcryptCost int
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewAuthService(users UserRepository, issuer *utils.TokenIssuer, bcryptCost int, m *metrics.Metrics, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, issuer: issuer, bcryptCost: bcryptCost, metrics: m, logger: logger}
}

// Register creates a user account with role user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return model.User{}, errFillAllFields
	}
	if err := checkIdentity(username, email); err != nil {
		return model.User{}, err
	}

	role := model.RoleUser
	if strings.TrimSpace(in.Role) != "" {
		r, err := model.ParseRole(in.Role)
		if err != nil {
			return model.User{}, fail(ErrValidation, "Invalid role")
		}
		role = r
	}
	if role != model.RoleUser {
		return model.User{}, fail(ErrAdminRoleNotAllowed, "Admin accounts must be requested with an admin passkey")
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return model.User{}, err
	}
	if exists {
		return model.User{}, errDuplicateIdentity
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{Username: username, Email: email, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, &u); err != nil {
		return model.User{}, fromRepo(err, "User")
	}
	s.logger.Info("user registered", zap.Uint64("user_id", u.ID))
	return u, nil
}

// Login checks the credentials and issues a session token.  The
// password is verified before the blocked flag so a blocked account is
// only revealed to someone who knows its password.
func (s *AuthService) Login(ctx context.Context, email, password string) (utils.Token, model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.RecordLogin(metrics.OutcomeInvalid)
		return utils.Token{}, model.User{}, errFillAllFields
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(fromRepo(err, "User"), ErrNotFound) {
			s.metrics.RecordLogin(metrics.OutcomeInvalid)
			return utils.Token{}, model.User{}, errInvalidCredentials
		}
		return utils.Token{}, model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		s.metrics.RecordLogin(metrics.OutcomeInvalid)
		return utils.Token{}, model.User{}, errInvalidCredentials
	}
	if u.Blocked {
		s.metrics.RecordLogin(metrics.OutcomeBlocked)
		return utils.Token{}, model.User{}, errAccountBlocked
	}

	tok, err := s.issuer.Issue(u)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeFailure)
		return utils.Token{}, model.User{}, err
	}
	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	return tok, u, nil
}

// Me returns the current state of the user with id.
func (s *AuthService) Me(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	return u, fromRepo(err, "User")
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
