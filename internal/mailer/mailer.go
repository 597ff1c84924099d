// Package mailer delivers notification mail.
package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"

	"github.com/iliyamo/excellense/internal/config"
)

// Message is one outgoing plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTPSender when cfg names a host and a LogSender otherwise.
func New(cfg config.SMTPConfig, logger *zap.Logger) Sender {
	if cfg.Host == "" {
		return LogSender{Logger: logger}
	}
	return &SMTPSender{cfg: cfg}
}

// SMTPSender sends mail through an SMTP relay, opening one connection
// per message.
type SMTPSender struct {
	cfg config.SMTPConfig
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender writes the mail to the log instead of sending it.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info("mail (smtp disabled)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
