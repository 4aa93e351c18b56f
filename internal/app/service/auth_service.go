package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/sifan077/VisitAudit/internal/app/secret"
	infraPrometheus "github.com/sifan077/VisitAudit/internal/infra/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for any email or password mismatch.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const notifyTimeout = 15 * time.Second

// TokenIssuer mints and validates admin tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, email string) (string, *model.AdminIdentity, error)
	Parse(ctx context.Context, token string) (*model.AdminIdentity, error)
}

// AuthService authenticates the single admin identity.
type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	// Verify returns the identity carried by token, or nil for any failure.
	Verify(ctx context.Context, token string) *model.AdminIdentity
	// IsExpired reports true for invalid and expired tokens alike.
	IsExpired(ctx context.Context, token string) bool
}

// LoginInput captures a login request and the caller's request metadata.
type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token    string
	Identity *model.AdminIdentity
}

// AuthDeps bundles collaborators of the auth service. Notifier, Metrics and AuditLogger are optional.
type AuthDeps struct {
	Secrets     secret.Provider
	Tokens      TokenIssuer
	Notifier    LoginNotifier
	Metrics     *infraPrometheus.Metrics
	AuditLogger *zap.Logger
	Now         func() time.Time
}

type authService struct {
	secrets  secret.Provider
	tokens   TokenIssuer
	notifier LoginNotifier
	metrics  *infraPrometheus.Metrics
	audit    *zap.Logger
	now      func() time.Time
}

// NewAuthService returns the admin authenticator.
func NewAuthService(deps AuthDeps) AuthService {
	s := &authService{
		secrets:  deps.Secrets,
		tokens:   deps.Tokens,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		audit:    deps.AuditLogger,
		now:      deps.Now,
	}
	if s.audit == nil {
		s.audit = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	attempt := model.LoginAttempt{
		Timestamp: s.now().UTC(),
		Email:     input.Email,
		IP:        input.IP,
		UserAgent: input.UserAgent,
	}

	creds, err := s.secrets.AdminCredentials(ctx)
	if err != nil {
		s.recordAttempt(attempt)
		return nil, fmt.Errorf("load admin credentials: %w", err)
	}

	emailOK := subtle.ConstantTimeCompare([]byte(input.Email), []byte(creds.Email)) == 1
	// The hash comparison runs even on an email mismatch to keep timing uniform.
	passwordOK := bcrypt.CompareHashAndPassword(creds.PasswordHash, []byte(input.Password)) == nil
	if !emailOK || !passwordOK {
		s.recordAttempt(attempt)
		return nil, ErrInvalidCredentials
	}

	token, identity, err := s.tokens.Issue(ctx, creds.Email)
	if err != nil {
		s.recordAttempt(attempt)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	attempt.Success = true
	s.recordAttempt(attempt)
	s.notify(attempt)

	return &LoginResult{Token: token, Identity: identity}, nil
}

func (s *authService) Verify(ctx context.Context, token string) *model.AdminIdentity {
	if token == "" {
		return nil
	}
	identity, err := s.tokens.Parse(ctx, token)
	if err != nil {
		return nil
	}
	return identity
}

func (s *authService) IsExpired(ctx context.Context, token string) bool {
	identity := s.Verify(ctx, token)
	if identity == nil {
		return true
	}
	return identity.Exp < s.now().Unix()
}

func (s *authService) recordAttempt(attempt model.LoginAttempt) {
	s.metrics.Login(attempt.Success)
	s.audit.Info("admin login attempt",
		zap.Time("timestamp", attempt.Timestamp),
		zap.String("email", attempt.Email),
		zap.String("ip", attempt.IP),
		zap.String("user_agent", attempt.UserAgent),
		zap.Bool("success", attempt.Success),
	)
}

func (s *authService) notify(attempt model.LoginAttempt) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyLogin(ctx, attempt); err != nil {
			s.audit.Warn("login alert failed", zap.String("email", attempt.Email), zap.Error(err))
		}
	}()
}
