package model

import (
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of an AdminRequest.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// ParseRequestStatus validates a status filter coming from a query string.
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch st := RequestStatus(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown request status %q", s)
}

// CanTransition reports whether a request may move from s to next.
// Only pending requests move, and only to approved or rejected.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	return s == StatusPending && (next == StatusApproved || next == StatusRejected)
}

// AdminRequest is a pending application for the admin role, stored in
// the `admin_requests` table until a superadmin decides on it.  The
// password is hashed at submission time so approval can copy it into
// the new user row unchanged.
type AdminRequest struct {
	ID              uint64        `json:"id"`
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	PasswordHash    string        `json:"-"`
	Status          RequestStatus `json:"status"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}
