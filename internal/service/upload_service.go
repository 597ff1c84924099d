package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/ingest"
	"github.com/iliyamo/excellense/internal/metrics"
	"github.com/iliyamo/excellense/internal/model"
)

// UploadService parses workbooks and manages the stored uploads.
type UploadService struct {
	uploads UploadRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewUploadService(uploads UploadRepository, m *metrics.Metrics, logger *zap.Logger) *UploadService {
	return &UploadService{uploads: uploads, metrics: m, logger: logger}
}

// Upload parses the workbook read from r and stores its first sheet as
// a new upload owned by owner.  Nothing is stored when parsing fails.
func (s *UploadService) Upload(ctx context.Context, owner model.User, filename string, r io.Reader) (model.Upload, error) {
	if r == nil {
		s.metrics.RecordUpload(metrics.OutcomeInvalid, 0)
		return model.Upload{}, fail(ErrNoFile, "No file uploaded")
	}
	rows, err := ingest.ParseWorkbook(r)
	if err != nil {
		s.metrics.RecordUpload(metrics.OutcomeFailure, 0)
		s.logger.Warn("workbook parse failed", zap.Uint64("user_id", owner.ID), zap.String("filename", filename), zap.Error(err))
		return model.Upload{}, fail(ErrParseFailed, "Failed to upload and parse file")
	}

	up := model.Upload{UserID: owner.ID, Filename: cleanFilename(filename), Data: rows}
	if err := s.uploads.Create(ctx, &up); err != nil {
		s.metrics.RecordUpload(metrics.OutcomeFailure, 0)
		return model.Upload{}, err
	}
	s.metrics.RecordUpload(metrics.OutcomeSuccess, len(rows))
	s.logger.Info("upload stored", zap.Uint64("upload_id", up.ID), zap.Uint64("user_id", owner.ID), zap.Int("rows", len(rows)))
	return up, nil
}

// List returns the uploads of owner, newest first.
func (s *UploadService) List(ctx context.Context, owner model.User) ([]model.Upload, error) {
	return s.uploads.ListByUser(ctx, owner.ID)
}

// ListAll returns every upload, newest first.
func (s *UploadService) ListAll(ctx context.Context) ([]model.Upload, error) {
	return s.uploads.ListAll(ctx)
}

// Get returns one upload to its owner or to an admin.
func (s *UploadService) Get(ctx context.Context, actor model.User, id uint64) (model.Upload, error) {
	up, err := s.uploads.GetByID(ctx, id)
	if err != nil {
		return model.Upload{}, fromRepo(err, "Upload")
	}
	if up.UserID != actor.ID && !actor.Role.AtLeast(model.RoleAdmin) {
		return model.Upload{}, fail(ErrForbidden, "You are not authorized to view this upload")
	}
	return up, nil
}

// Delete removes an upload.  Only its owner may delete it.
func (s *UploadService) Delete(ctx context.Context, actor model.User, id uint64) error {
	up, err := s.uploads.GetByID(ctx, id)
	if err != nil {
		return fromRepo(err, "Upload")
	}
	if up.UserID != actor.ID {
		return fail(ErrForbidden, "You are not authorized to delete this upload")
	}
	if err := s.uploads.Delete(ctx, id); err != nil {
		return fromRepo(err, "Upload")
	}
	s.logger.Info("upload deleted", zap.Uint64("upload_id", id), zap.Uint64("user_id", actor.ID))
	return nil
}

// cleanFilename keeps only the base name a browser sent.
func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" {
		return "upload.xlsx"
	}
	return name
}
