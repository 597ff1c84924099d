package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/excellense/internal/model"
)

const analysisColumns = "id, user_email, upload_id, chart_type, x_axis, y_axis, summary, chart_image_base64, created_at"

// AnalysisRepo persists saved charts (`chart_analyses` table).  There
// is no uniqueness constraint: saving the same chart twice stores two
// rows.
type AnalysisRepo struct{ db *sql.DB }

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo { return &AnalysisRepo{db: db} }

// Create inserts a and fills in its ID and CreatedAt.
func (r *AnalysisRepo) Create(ctx context.Context, a *model.ChartAnalysis) error {
	a.UserEmail = strings.ToLower(strings.TrimSpace(a.UserEmail))
	now := time.Now().UTC().Truncate(time.Second)
	var summary sql.NullString
	if a.Summary != nil {
		summary = sql.NullString{String: *a.Summary, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO chart_analyses (user_email, upload_id, chart_type, x_axis, y_axis, summary, chart_image_base64, created_at) VALUES (?,?,?,?,?,?,?,?)",
		a.UserEmail, a.UploadID, a.ChartType, a.XAxis, a.YAxis, summary, a.ChartImageBase64, now)
	if err != nil {
		return fmt.Errorf("insert chart analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert chart analysis: %w", err)
	}
	a.ID = uint64(id)
	a.CreatedAt = now
	return nil
}

func scanAnalysis(s scanner) (model.ChartAnalysis, error) {
	var (
		a       model.ChartAnalysis
		summary sql.NullString
	)
	if err := s.Scan(&a.ID, &a.UserEmail, &a.UploadID, &a.ChartType, &a.XAxis, &a.YAxis, &summary, &a.ChartImageBase64, &a.CreatedAt); err != nil {
		return model.ChartAnalysis{}, err
	}
	if summary.Valid {
		a.Summary = &summary.String
	}
	return a, nil
}

// GetByID fetches one analysis.
func (r *AnalysisRepo) GetByID(ctx context.Context, id uint64) (model.ChartAnalysis, error) {
	a, err := scanAnalysis(r.db.QueryRowContext(ctx,
		"SELECT "+analysisColumns+" FROM chart_analyses WHERE id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ChartAnalysis{}, ErrNotFound
	}
	return a, err
}

// ListByEmail returns the analyses saved for email, newest first.
func (r *AnalysisRepo) ListByEmail(ctx context.Context, email string) ([]model.ChartAnalysis, error) {
	return r.list(ctx,
		"SELECT "+analysisColumns+" FROM chart_analyses WHERE user_email = ? ORDER BY created_at DESC, id DESC",
		strings.ToLower(strings.TrimSpace(email)))
}

// ListAll returns every analysis, newest first.
func (r *AnalysisRepo) ListAll(ctx context.Context) ([]model.ChartAnalysis, error) {
	return r.list(ctx, "SELECT "+analysisColumns+" FROM chart_analyses ORDER BY created_at DESC, id DESC")
}

func (r *AnalysisRepo) list(ctx context.Context, q string, args ...any) ([]model.ChartAnalysis, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ChartAnalysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes an analysis.  It returns ErrNotFound when no row matched.
func (r *AnalysisRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM chart_analyses WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
