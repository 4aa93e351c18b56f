package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned when the backing source has no value for a required secret.
var ErrNotConfigured = errors.New("secret not configured")

// AdminCredentials is the single credential pair accepted by the authenticator.
type AdminCredentials struct {
	Email        string
	PasswordHash []byte
}

// SigningKeys holds the active token signing key and every key still accepted for verification.
type SigningKeys struct {
	ActiveKID string
	Keys      map[string][]byte
}

// Active returns the key new tokens are signed with.
func (k SigningKeys) Active() ([]byte, error) {
	key, ok := k.Keys[k.ActiveKID]
	if k.ActiveKID == "" || !ok || len(key) == 0 {
		return nil, fmt.Errorf("active signing key: %w", ErrNotConfigured)
	}
	return key, nil
}

// Lookup returns the verification key for kid.
func (k SigningKeys) Lookup(kid string) ([]byte, bool) {
	key, ok := k.Keys[kid]
	if !ok || len(key) == 0 {
		return nil, false
	}
	return key, true
}

// Provider sources admin credentials and signing keys.
type Provider interface {
	AdminCredentials(ctx context.Context) (AdminCredentials, error)
	SigningKeys(ctx context.Context) (SigningKeys, error)
}

// ParseKeyList parses "kid:secret,kid:secret" into a map. Blank entries are skipped.
func ParseKeyList(raw string) (map[string][]byte, error) {
	keys := make(map[string][]byte)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		kid, key, ok := strings.Cut(entry, ":")
		kid = strings.TrimSpace(kid)
		if !ok || kid == "" || key == "" {
			return nil, fmt.Errorf("parse key list: malformed entry %q", kid)
		}
		keys[kid] = []byte(key)
	}
	return keys, nil
}
