package model

import "time"

// User represents an application user record as stored in the
// `users` table.  PasswordHash never leaves the server: it carries no
// JSON name so handlers can return a User directly.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique display/login name.
//  Email        – unique email address used to log in.
//  PasswordHash – bcrypt hashed password.
//  Role         – user, admin or superadmin.  Superadmin is immutable.
//  Blocked      – blocked accounts cannot log in or use existing tokens.
//  ProfileImage – data: URI of the avatar, empty when unset.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`           // users.id
	Username     string    `json:"username"`     // users.username
	Email        string    `json:"email"`        // users.email
	PasswordHash string    `json:"-"`            // users.password_hash
	Role         Role      `json:"role"`         // users.role
	Blocked      bool      `json:"blocked"`      // users.blocked
	ProfileImage string    `json:"profileImage"` // users.profile_image
	CreatedAt    time.Time `json:"createdAt"`    // users.created_at
	UpdatedAt    time.Time `json:"updatedAt"`    // users.updated_at
}
