// Package repository defines the MySQL data access layer and the error
// values shared by every repository.  Handlers never see driver errors
// directly: services translate these sentinels into HTTP-facing errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by id, email or owner matches
// no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update hits a unique key,
// e.g. a second user with the same email or username.
var ErrDuplicate = errors.New("duplicate entry")

// ErrConflict is returned when an operation cannot proceed because the
// row is in the wrong state, such as approving an admin request that
// was already decided.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
