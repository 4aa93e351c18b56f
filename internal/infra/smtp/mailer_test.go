package smtp

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/sifan077/VisitAudit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailer_NotConfigured(t *testing.T) {
	m := NewMailer(config.SMTPConfig{})
	assert.False(t, m.Configured())
	assert.ErrorIs(t, m.Send(context.Background(), []string{"ops@example.com"}, "s", "b"), ErrNotConfigured)
}

func TestMailer_Send(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Host: "mail.example.com", Username: "bot", Password: "pw", From: "alerts@example.com"})

	var gotAddr string
	var got *email.Email
	var gotAuth smtp.Auth
	m.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		got, gotAddr, gotAuth = e, addr, auth
		return nil
	}

	err := m.Send(context.Background(), []string{"ops@example.com"}, "Admin login", "hello")
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "alerts@example.com", got.From)
	assert.Equal(t, []string{"ops@example.com"}, got.To)
	assert.Equal(t, "Admin login", got.Subject)
	assert.Equal(t, "hello", string(got.Text))
}

func TestMailer_SendError(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Host: "mail.example.com", Port: 25})
	m.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		assert.Equal(t, "mail.example.com:25", addr)
		assert.Nil(t, auth)
		return errors.New("relay refused")
	}

	err := m.Send(context.Background(), []string{"ops@example.com"}, "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay refused")
}
