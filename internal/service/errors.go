package service

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/iliyamo/excellense/internal/repository"
)

// Error kinds returned by the services.  Handlers switch on these with
// errors.Is to pick a status code.
var (
	ErrValidation          = errors.New("validation failed")
	ErrDuplicateIdentity   = errors.New("username or email already exists")
	ErrAdminRoleNotAllowed = errors.New("admin roles cannot self-register")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountBlocked      = errors.New("account is blocked")
	ErrInvalidPassKey      = errors.New("invalid admin passkey")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrImmutableRole       = errors.New("superadmin role is immutable")
	ErrNoFile              = errors.New("no file uploaded")
	ErrParseFailed         = errors.New("workbook parse failed")
)

// Error attaches the client-facing message to one of the kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, msg string) error { return &Error{Kind: kind, Message: msg} }

// Client-facing messages shared by several operations.
var (
	errFillAllFields      = fail(ErrValidation, "Please fill all fields")
	errDuplicateIdentity  = fail(ErrDuplicateIdentity, "Username or Email already exists")
	errInvalidCredentials = fail(ErrInvalidCredentials, "Invalid credentials")
	errAccountBlocked     = fail(ErrAccountBlocked, "Your account is blocked")
)

// fromRepo translates repository sentinels; other errors pass through.
func fromRepo(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fail(ErrNotFound, what+" not found")
	case errors.Is(err, repository.ErrDuplicate):
		return errDuplicateIdentity
	case errors.Is(err, repository.ErrConflict):
		return fail(ErrInvalidTransition, what+" has already been processed")
	}
	return err
}

// Column widths of the text fields the services store.
const (
	maxUsernameLen  = 64
	maxEmailLen     = 255
	maxUploadIDLen  = 64
	maxChartTypeLen = 32
	maxAxisLen      = 255
	maxReasonLen    = 1024
)

// checkLen fails with a validation error when value holds more than
// limit characters.
func checkLen(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return fail(ErrValidation, fmt.Sprintf("%s must be at most %d characters", field, limit))
	}
	return nil
}

// checkIdentity bounds the username and email shared by users and
// admin requests.
func checkIdentity(username, email string) error {
	if err := checkLen("Username", username, maxUsernameLen); err != nil {
		return err
	}
	return checkLen("Email", email, maxEmailLen)
}
