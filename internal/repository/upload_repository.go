package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/excellense/internal/model"
)

const uploadColumns = "id, user_id, filename, data, uploaded_at"

// UploadRepo persists parsed spreadsheets (`uploads` table).  The rows
// of an upload are kept as one JSON document in the data column, so an
// upload is written by a single INSERT and is either fully stored or
// not stored at all.
type UploadRepo struct{ db *sql.DB }

func NewUploadRepo(db *sql.DB) *UploadRepo { return &UploadRepo{db: db} }

// Create stores up and fills in its ID and UploadedAt.
func (r *UploadRepo) Create(ctx context.Context, up *model.Upload) error {
	if up.Data == nil {
		up.Data = []model.Row{}
	}
	doc, err := json.Marshal(up.Data)
	if err != nil {
		return fmt.Errorf("encode upload rows: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO uploads (user_id, filename, data, uploaded_at) VALUES (?,?,?,?)",
		up.UserID, up.Filename, doc, now)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	up.ID = uint64(id)
	up.UploadedAt = now
	return nil
}

func scanUpload(s scanner) (model.Upload, error) {
	var (
		up  model.Upload
		doc []byte
	)
	if err := s.Scan(&up.ID, &up.UserID, &up.Filename, &doc, &up.UploadedAt); err != nil {
		return model.Upload{}, err
	}
	up.Data = []model.Row{}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &up.Data); err != nil {
			return model.Upload{}, fmt.Errorf("decode upload %d rows: %w", up.ID, err)
		}
	}
	return up, nil
}

// GetByID fetches a single upload regardless of owner.
func (r *UploadRepo) GetByID(ctx context.Context, id uint64) (model.Upload, error) {
	up, err := scanUpload(r.db.QueryRowContext(ctx,
		"SELECT "+uploadColumns+" FROM uploads WHERE id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Upload{}, ErrNotFound
	}
	return up, err
}

// ListByUser returns the uploads owned by userID, newest first.
func (r *UploadRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Upload, error) {
	return r.list(ctx, "SELECT "+uploadColumns+" FROM uploads WHERE user_id = ? ORDER BY uploaded_at DESC, id DESC", userID)
}

// ListAll returns every upload, newest first.
func (r *UploadRepo) ListAll(ctx context.Context) ([]model.Upload, error) {
	return r.list(ctx, "SELECT "+uploadColumns+" FROM uploads ORDER BY uploaded_at DESC, id DESC")
}

func (r *UploadRepo) list(ctx context.Context, q string, args ...any) ([]model.Upload, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Upload{}
	for rows.Next() {
		up, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, up)
	}
	return out, rows.Err()
}

// Delete removes an upload.  It returns ErrNotFound when no row matched.
func (r *UploadRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM uploads WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
