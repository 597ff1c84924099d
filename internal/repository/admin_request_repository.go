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

const adminRequestColumns = "id, username, email, password_hash, status, rejection_reason, created_at, updated_at"

// AdminRequestRepo persists pending admin applications
// (`admin_requests` table) and performs their state transitions.
type AdminRequestRepo struct{ db *sql.DB }

func NewAdminRequestRepo(db *sql.DB) *AdminRequestRepo { return &AdminRequestRepo{db: db} }

func scanAdminRequest(s scanner) (model.AdminRequest, error) {
	var (
		ar     model.AdminRequest
		reason sql.NullString
	)
	err := s.Scan(&ar.ID, &ar.Username, &ar.Email, &ar.PasswordHash, &ar.Status, &reason, &ar.CreatedAt, &ar.UpdatedAt)
	ar.RejectionReason = reason.String
	return ar, err
}

// Create inserts a pending request and fills in its ID and timestamps.
func (r *AdminRequestRepo) Create(ctx context.Context, ar *model.AdminRequest) error {
	ar.Email = strings.ToLower(strings.TrimSpace(ar.Email))
	ar.Status = model.StatusPending
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO admin_requests (username, email, password_hash, status, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		ar.Username, ar.Email, ar.PasswordHash, string(ar.Status), now, now)
	if err != nil {
		return fmt.Errorf("insert admin request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert admin request: %w", err)
	}
	ar.ID = uint64(id)
	ar.CreatedAt, ar.UpdatedAt = now, now
	return nil
}

// ExistsByEmailOrUsername reports whether a request in any status
// already uses email or username.
func (r *AdminRequestRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM admin_requests WHERE email = ? OR username = ?",
		strings.ToLower(strings.TrimSpace(email)), username).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByID fetches one request.
func (r *AdminRequestRepo) GetByID(ctx context.Context, id uint64) (model.AdminRequest, error) {
	ar, err := scanAdminRequest(r.db.QueryRowContext(ctx,
		"SELECT "+adminRequestColumns+" FROM admin_requests WHERE id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.AdminRequest{}, ErrNotFound
	}
	return ar, err
}

// List returns requests newest first.  An empty status lists every request.
func (r *AdminRequestRepo) List(ctx context.Context, status model.RequestStatus) ([]model.AdminRequest, error) {
	q := "SELECT " + adminRequestColumns + " FROM admin_requests"
	var args []any
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, string(status))
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AdminRequest{}
	for rows.Next() {
		ar, err := scanAdminRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ar)
	}
	return out, rows.Err()
}

// lockPending loads the request row FOR UPDATE inside tx and checks
// that it may still move to status to.
func lockPending(ctx context.Context, tx *sql.Tx, id uint64, to model.RequestStatus) (model.AdminRequest, error) {
	ar, err := scanAdminRequest(tx.QueryRowContext(ctx,
		"SELECT "+adminRequestColumns+" FROM admin_requests WHERE id = ? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.AdminRequest{}, ErrNotFound
	}
	if err != nil {
		return model.AdminRequest{}, err
	}
	if !ar.Status.CanTransition(to) {
		return ar, ErrConflict
	}
	return ar, nil
}

// Approve moves a pending request to approved and creates the admin
// user in the same transaction, so a collision on email or username
// (ErrDuplicate) leaves the request pending.  A request that is no
// longer pending yields ErrConflict.
func (r *AdminRequestRepo) Approve(ctx context.Context, id uint64) (model.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	ar, err := lockPending(ctx, tx, id, model.StatusApproved)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		Username:     ar.Username,
		Email:        ar.Email,
		PasswordHash: ar.PasswordHash,
		Role:         model.RoleAdmin,
	}
	if err := insertUser(ctx, tx, &u); err != nil {
		return model.User{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE admin_requests SET status = ? WHERE id = ?", string(model.StatusApproved), id); err != nil {
		return model.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Reject moves a pending request to rejected with an optional reason
// and returns the updated request.
func (r *AdminRequestRepo) Reject(ctx context.Context, id uint64, reason string) (model.AdminRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.AdminRequest{}, err
	}
	defer func() { _ = tx.Rollback() }()

	ar, err := lockPending(ctx, tx, id, model.StatusRejected)
	if err != nil {
		return model.AdminRequest{}, err
	}
	var dbReason sql.NullString
	if reason != "" {
		dbReason = sql.NullString{String: reason, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE admin_requests SET status = ?, rejection_reason = ? WHERE id = ?",
		string(model.StatusRejected), dbReason, id); err != nil {
		return model.AdminRequest{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.AdminRequest{}, err
	}
	ar.Status = model.StatusRejected
	ar.RejectionReason = reason
	return ar, nil
}
