// Package service holds the application logic between the HTTP
// handlers and the MySQL repositories.
package service

import (
	"context"

	"github.com/iliyamo/excellense/internal/model"
	"github.com/iliyamo/excellense/internal/queue"
)

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, id uint64, role model.Role) error
	SetBlocked(ctx context.Context, id uint64, blocked bool) error
	UpdateUsername(ctx context.Context, id uint64, username string) error
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
	UpdateProfileImage(ctx context.Context, id uint64, image string) error
}

// AdminRequestRepository stores admin applications.  Approve must
// create the admin user and mark the request approved atomically.
type AdminRequestRepository interface {
	Create(ctx context.Context, ar *model.AdminRequest) error
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	GetByID(ctx context.Context, id uint64) (model.AdminRequest, error)
	List(ctx context.Context, status model.RequestStatus) ([]model.AdminRequest, error)
	Approve(ctx context.Context, id uint64) (model.User, error)
	Reject(ctx context.Context, id uint64, reason string) (model.AdminRequest, error)
}

// UploadRepository stores parsed workbooks.
type UploadRepository interface {
	Create(ctx context.Context, up *model.Upload) error
	GetByID(ctx context.Context, id uint64) (model.Upload, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Upload, error)
	ListAll(ctx context.Context) ([]model.Upload, error)
	Delete(ctx context.Context, id uint64) error
}

// AnalysisRepository stores saved charts.
type AnalysisRepository interface {
	Create(ctx context.Context, a *model.ChartAnalysis) error
	GetByID(ctx context.Context, id uint64) (model.ChartAnalysis, error)
	ListByEmail(ctx context.Context, email string) ([]model.ChartAnalysis, error)
	ListAll(ctx context.Context) ([]model.ChartAnalysis, error)
	Delete(ctx context.Context, id uint64) error
}

// Notifier publishes admin request notifications.
type Notifier interface {
	Publish(ctx context.Context, n queue.Notification) error
}

// NopNotifier drops every notification; used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, queue.Notification) error { return nil }
