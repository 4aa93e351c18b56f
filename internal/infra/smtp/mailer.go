package smtp

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sifan077/VisitAudit/config"
)

// ErrNotConfigured is returned when no SMTP host is set.
var ErrNotConfigured = errors.New("smtp: not configured")

// Mailer sends plain-text notifications through an SMTP relay.
type Mailer struct {
	cfg  config.SMTPConfig
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewMailer returns a Mailer for cfg.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Configured reports whether a relay host is set.
func (m *Mailer) Configured() bool {
	return m != nil && m.cfg.Host != ""
}

// Send delivers one message. ctx is only checked before dialing; net/smtp has no context support.
func (m *Mailer) Send(ctx context.Context, to []string, subject, body string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(e, m.addr(), auth); err != nil {
		return fmt.Errorf("smtp: send email: %w", err)
	}
	return nil
}

func (m *Mailer) addr() string {
	port := m.cfg.Port
	if port == 0 {
		port = 587
	}
	return fmt.Sprintf("%s:%d", m.cfg.Host, port)
}
