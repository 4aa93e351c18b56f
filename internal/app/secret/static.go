package secret

import (
	"context"
	"fmt"

	"github.com/sifan077/VisitAudit/config"
	"golang.org/x/crypto/bcrypt"
)

// StaticProvider serves secrets fixed at startup from configuration.
type StaticProvider struct {
	creds AdminCredentials
	keys  SigningKeys
}

// NewStaticProvider builds a provider from cfg. A plain AdminPassword is hashed once
// here; AdminPasswordHash takes precedence when both are set.
func NewStaticProvider(cfg config.AuthConfig) (*StaticProvider, error) {
	p := &StaticProvider{creds: AdminCredentials{Email: cfg.AdminEmail}}

	switch {
	case cfg.AdminPasswordHash != "":
		p.creds.PasswordHash = []byte(cfg.AdminPasswordHash)
	case cfg.AdminPassword != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		p.creds.PasswordHash = hash
	}

	keys, err := ParseKeyList(cfg.JWTPreviousKeys)
	if err != nil {
		return nil, err
	}
	kid := cfg.JWTKeyID
	if kid == "" {
		kid = "primary"
	}
	if cfg.JWTSecret != "" {
		keys[kid] = []byte(cfg.JWTSecret)
	}
	p.keys = SigningKeys{ActiveKID: kid, Keys: keys}

	return p, nil
}

func (p *StaticProvider) AdminCredentials(context.Context) (AdminCredentials, error) {
	if p.creds.Email == "" || len(p.creds.PasswordHash) == 0 {
		return AdminCredentials{}, fmt.Errorf("admin credentials: %w", ErrNotConfigured)
	}
	return p.creds, nil
}

func (p *StaticProvider) SigningKeys(context.Context) (SigningKeys, error) {
	if _, err := p.keys.Active(); err != nil {
		return SigningKeys{}, err
	}
	return p.keys, nil
}
