package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Role is a user's privilege level.  Roles form a total order
// (RoleUser < RoleAdmin < RoleSuperAdmin) so guards can compare a
// caller's role against a minimum level instead of matching names.
type Role uint8

const (
	RoleUnknown    Role = 0
	RoleUser       Role = 1
	RoleAdmin      Role = 2
	RoleSuperAdmin Role = 3
)

var roleNames = map[Role]string{
	RoleUser:       "user",
	RoleAdmin:      "admin",
	RoleSuperAdmin: "superadmin",
}

// ParseRole converts the lowercase role name used on the wire and in the
// users table into a Role.  Surrounding spaces and case are ignored.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	case "superadmin":
		return RoleSuperAdmin, nil
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "unknown"
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// AtLeast reports whether r sits at or above min in the hierarchy.
// Unknown roles never satisfy a check.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r >= min
}

// MinRole returns the lowest role among roles.  Unknown roles count as
// level zero, matching a guard that was handed a role it doesn't know.
// With no roles the result is RoleUser, i.e. any authenticated user.
func MinRole(roles ...Role) Role {
	if len(roles) == 0 {
		return RoleUser
	}
	min := roles[0]
	for _, r := range roles[1:] {
		if r < min {
			min = r
		}
	}
	return min
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role as its name (users.role is a VARCHAR).
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
