package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sifan077/VisitAudit/internal/app/model"
)

// LoginNotifier is told about successful admin logins.
type LoginNotifier interface {
	NotifyLogin(ctx context.Context, attempt model.LoginAttempt) error
}

// Mailer sends a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

type mailLoginNotifier struct {
	mailer Mailer
	to     []string
}

// NewMailLoginNotifier returns a notifier that emails every recipient in to.
func NewMailLoginNotifier(mailer Mailer, to []string) LoginNotifier {
	return &mailLoginNotifier{mailer: mailer, to: to}
}

func (n *mailLoginNotifier) NotifyLogin(ctx context.Context, attempt model.LoginAttempt) error {
	var b strings.Builder
	b.WriteString("A successful admin login was recorded.\n\n")
	fmt.Fprintf(&b, "Email: %s\n", attempt.Email)
	fmt.Fprintf(&b, "IP: %s\n", attempt.IP)
	fmt.Fprintf(&b, "User Agent: %s\n", attempt.UserAgent)
	fmt.Fprintf(&b, "Time: %s\n", attempt.Timestamp.UTC().Format(time.RFC3339))

	if err := n.mailer.Send(ctx, n.to, "Admin login: "+attempt.Email, b.String()); err != nil {
		return fmt.Errorf("send login alert: %w", err)
	}
	return nil
}

// SplitRecipients parses a comma-separated address list.
func SplitRecipients(raw string) []string {
	var out []string
	for _, addr := range strings.Split(raw, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
