package util

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/sifan077/VisitAudit/internal/app/secret"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// KeySource supplies the signing key set at call time so rotated keys apply without a restart.
type KeySource interface {
	SigningKeys(ctx context.Context) (secret.SigningKeys, error)
}

type adminClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner issues and validates HS256 admin tokens. The kid header names the key used.
type TokenSigner struct {
	keys KeySource
	ttl  time.Duration
	now  func() time.Time
}

// SignerOption customizes a TokenSigner.
type SignerOption func(*TokenSigner)

// WithTimeFunc overrides the clock used for issuing and validating.
func WithTimeFunc(now func() time.Time) SignerOption {
	return func(s *TokenSigner) { s.now = now }
}

// NewTokenSigner returns a signer whose tokens live for ttl.
func NewTokenSigner(keys KeySource, ttl time.Duration, opts ...SignerOption) *TokenSigner {
	s := &TokenSigner{keys: keys, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a token for email with the admin role.
func (s *TokenSigner) Issue(ctx context.Context, email string) (string, *model.AdminIdentity, error) {
	keys, err := s.keys.SigningKeys(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("load signing keys: %w", err)
	}
	key, err := keys.Active()
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	claims := &adminClaims{
		Email: email,
		Role:  model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = keys.ActiveKID
	signed, err := token.SignedString(key)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, &model.AdminIdentity{Email: email, Role: model.RoleAdmin, Exp: claims.ExpiresAt.Unix()}, nil
}

// Parse validates signature, algorithm, kid and expiry. Every token failure wraps ErrInvalidToken.
func (s *TokenSigner) Parse(ctx context.Context, tokenString string) (*model.AdminIdentity, error) {
	keys, err := s.keys.SigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}

	claims := &adminClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys.Lookup(kid)
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role != model.RoleAdmin || claims.Email == "" {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}

	return &model.AdminIdentity{Email: claims.Email, Role: claims.Role, Exp: claims.ExpiresAt.Unix()}, nil
}
