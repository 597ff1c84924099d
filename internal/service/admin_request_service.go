package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/metrics"
	"github.com/iliyamo/excellense/internal/model"
	"github.com/iliyamo/excellense/internal/queue"
	"github.com/iliyamo/excellense/internal/utils"
)

// AdminRequestInput is the body of POST /auth/admin-requests.
type AdminRequestInput struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	AdminPassKey string `json:"adminPassKey"`
}

// AdminRequestService runs the pending -> approved | rejected workflow.
type AdminRequestService struct {
	requests   AdminRequestRepository
	users      UserRepository
	notifier   Notifier
	passKey    string
	superEmail string
	bcryptCost int
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// AdminRequestConfig carries the settings AdminRequestService needs
// from config.Config.
type AdminRequestConfig struct {
	PassKey         string // must match AdminRequestInput.AdminPassKey exactly
	SuperAdminEmail string // mailbox told about new requests
	BcryptCost      int
}

func NewAdminRequestService(requests AdminRequestRepository, users UserRepository, notifier Notifier, cfg AdminRequestConfig, m *metrics.Metrics, logger *zap.Logger) *AdminRequestService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AdminRequestService{
		requests:   requests,
		users:      users,
		notifier:   notifier,
		passKey:    cfg.PassKey,
		superEmail: cfg.SuperAdminEmail,
		bcryptCost: cfg.BcryptCost,
		metrics:    m,
		logger:     logger,
	}
}

// Submit files a pending admin request.  The identity must be unused by
// every user and by every earlier request, whatever its status.
func (s *AdminRequestService) Submit(ctx context.Context, in AdminRequestInput) (model.AdminRequest, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if username == "" || email == "" || in.Password == "" || in.AdminPassKey == "" {
		return model.AdminRequest{}, errFillAllFields
	}
	if in.AdminPassKey != s.passKey {
		return model.AdminRequest{}, fail(ErrInvalidPassKey, "Invalid Admin PassKey")
	}
	if err := checkIdentity(username, email); err != nil {
		return model.AdminRequest{}, err
	}

	taken, err := s.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return model.AdminRequest{}, err
	}
	if !taken {
		if taken, err = s.requests.ExistsByEmailOrUsername(ctx, email, username); err != nil {
			return model.AdminRequest{}, err
		}
	}
	if taken {
		return model.AdminRequest{}, fail(ErrDuplicateIdentity, "Email or Username already exists or is pending approval")
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.AdminRequest{}, err
	}
	ar := model.AdminRequest{Username: username, Email: email, PasswordHash: hash}
	if err := s.requests.Create(ctx, &ar); err != nil {
		return model.AdminRequest{}, err
	}
	s.metrics.RecordAdminRequest(string(model.StatusPending))
	s.logger.Info("admin request submitted", zap.Uint64("request_id", ar.ID))

	if s.superEmail != "" {
		s.notify(ctx, queue.Notification{Kind: queue.KindSubmitted, To: s.superEmail, Username: ar.Username, Email: ar.Email})
	}
	return ar, nil
}

// List returns requests with status; the zero status lists all of them.
func (s *AdminRequestService) List(ctx context.Context, status model.RequestStatus) ([]model.AdminRequest, error) {
	return s.requests.List(ctx, status)
}

// Approve turns a pending request into an admin user.
func (s *AdminRequestService) Approve(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.requests.Approve(ctx, id)
	if err != nil {
		return model.User{}, fromRepo(err, "Admin request")
	}
	s.metrics.RecordAdminRequest(string(model.StatusApproved))
	s.logger.Info("admin request approved", zap.Uint64("request_id", id), zap.Uint64("user_id", u.ID))
	s.notify(ctx, queue.Notification{Kind: queue.KindApproved, To: u.Email, Username: u.Username, Email: u.Email})
	return u, nil
}

// Reject closes a pending request.  reason is optional.
func (s *AdminRequestService) Reject(ctx context.Context, id uint64, reason string) (model.AdminRequest, error) {
	reason = strings.TrimSpace(reason)
	if err := checkLen("Reason", reason, maxReasonLen); err != nil {
		return model.AdminRequest{}, err
	}
	ar, err := s.requests.Reject(ctx, id, reason)
	if err != nil {
		return model.AdminRequest{}, fromRepo(err, "Admin request")
	}
	s.metrics.RecordAdminRequest(string(model.StatusRejected))
	s.logger.Info("admin request rejected", zap.Uint64("request_id", id))
	s.notify(ctx, queue.Notification{Kind: queue.KindRejected, To: ar.Email, Username: ar.Username, Email: ar.Email, Reason: ar.RejectionReason})
	return ar, nil
}

// notify publishes n without letting a broker failure reach the caller.
func (s *AdminRequestService) notify(ctx context.Context, n queue.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.notifier.Publish(ctx, n); err != nil {
		s.logger.Warn("publish notification failed", zap.String("kind", string(n.Kind)), zap.Error(err))
	}
}
