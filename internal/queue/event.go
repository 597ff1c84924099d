// Package queue carries admin-request notifications over RabbitMQ: the
// API publishes events, a background consumer turns them into mail.
package queue

import (
	"fmt"
	"strings"

	"github.com/iliyamo/excellense/internal/mailer"
)

// NotificationQueue is the durable queue shared by publisher and consumer.
const NotificationQueue = "admin_request.events"

// Kind names the admin request transition a Notification reports.
type Kind string

const (
	KindSubmitted Kind = "admin_request.submitted"
	KindApproved  Kind = "admin_request.approved"
	KindRejected  Kind = "admin_request.rejected"
)

// Notification is published whenever an admin request is filed or
// decided.  To is the mailbox that should hear about it: the superadmin
// for submissions, the applicant for decisions.
type Notification struct {
	Kind     Kind   `json:"kind"`
	To       string `json:"to"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Reason   string `json:"reason,omitempty"`
}

// Message renders n as a mail.
func (n Notification) Message() (mailer.Message, error) {
	if strings.TrimSpace(n.To) == "" {
		return mailer.Message{}, fmt.Errorf("notification %q has no recipient", n.Kind)
	}
	msg := mailer.Message{To: n.To}
	switch n.Kind {
	case KindSubmitted:
		msg.Subject = "New Admin Request Pending"
		msg.Body = fmt.Sprintf("A new admin request has been submitted:\nUsername: %s\nEmail: %s", n.Username, n.Email)
	case KindApproved:
		msg.Subject = "Admin Request Approved"
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour admin request has been approved. You can now log in with %s.", n.Username, n.Email)
	case KindRejected:
		msg.Subject = "Admin Request Rejected"
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour admin request has been rejected.", n.Username)
		if n.Reason != "" {
			msg.Body += "\nReason: " + n.Reason
		}
	default:
		return mailer.Message{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	return msg, nil
}
