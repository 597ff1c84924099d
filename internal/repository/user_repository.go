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

const userColumns = "id, username, email, password_hash, role, blocked, profile_image, created_at, updated_at"

// UserRepo is the credential store: persistence for the `users` table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts u and fills in its ID and timestamps.  Email is stored
// lower-cased.  A unique key violation on email or username returns
// ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	return insertUser(ctx, r.db, u)
}

// execer lets insertUser run on the pool or inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertUser(ctx context.Context, db execer, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC().Truncate(time.Second)
	res, err := db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, blocked, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		u.Username, u.Email, u.PasswordHash, u.Role, u.Blocked, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func scanUser(s scanner) (model.User, error) {
	var (
		u   model.User
		img sql.NullString
	)
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Blocked, &img, &u.CreatedAt, &u.UpdatedAt)
	u.ProfileImage = img.String
	return u, err
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// ExistsByEmailOrUsername reports whether any user already holds email
// or username.
func (r *UserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ? OR username = ?",
		strings.ToLower(strings.TrimSpace(email)), username).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns every user, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// update runs a single-column UPDATE.  MySQL reports zero affected rows
// when the value is unchanged, so callers check existence beforehand
// instead of relying on RowsAffected.
func (r *UserRepo) update(ctx context.Context, id uint64, column string, value any) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET "+column+" = ? WHERE id = ?", value, id)
	if err != nil && isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role model.Role) error {
	return r.update(ctx, id, "role", role)
}

func (r *UserRepo) SetBlocked(ctx context.Context, id uint64, blocked bool) error {
	return r.update(ctx, id, "blocked", blocked)
}

func (r *UserRepo) UpdateUsername(ctx context.Context, id uint64, username string) error {
	return r.update(ctx, id, "username", username)
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	return r.update(ctx, id, "password_hash", hash)
}

func (r *UserRepo) UpdateProfileImage(ctx context.Context, id uint64, image string) error {
	return r.update(ctx, id, "profile_image", image)
}
