package secret

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Hash fields read by RedisProvider.
const (
	FieldAdminEmail        = "admin_email"
	FieldAdminPasswordHash = "admin_password_hash"
	FieldActiveKID         = "jwt_active_kid"
	FieldKeys              = "jwt_keys"
)

// RedisProvider reads secrets from a single Redis hash so operators can rotate them
// without a restart. jwt_keys is a JSON object of kid to secret.
type RedisProvider struct {
	client *redis.Client
	key    string
}

// NewRedisProvider returns a provider reading the hash at key.
func NewRedisProvider(client *redis.Client, key string) *RedisProvider {
	return &RedisProvider{client: client, key: key}
}

func (p *RedisProvider) AdminCredentials(ctx context.Context) (AdminCredentials, error) {
	vals, err := p.client.HMGet(ctx, p.key, FieldAdminEmail, FieldAdminPasswordHash).Result()
	if err != nil {
		return AdminCredentials{}, fmt.Errorf("read admin credentials: %w", err)
	}

	email, _ := vals[0].(string)
	hash, _ := vals[1].(string)
	if email == "" || hash == "" {
		return AdminCredentials{}, fmt.Errorf("admin credentials: %w", ErrNotConfigured)
	}
	return AdminCredentials{Email: email, PasswordHash: []byte(hash)}, nil
}

func (p *RedisProvider) SigningKeys(ctx context.Context) (SigningKeys, error) {
	vals, err := p.client.HMGet(ctx, p.key, FieldActiveKID, FieldKeys).Result()
	if err != nil {
		return SigningKeys{}, fmt.Errorf("read signing keys: %w", err)
	}

	kid, _ := vals[0].(string)
	raw, _ := vals[1].(string)
	if raw == "" {
		return SigningKeys{}, fmt.Errorf("signing keys: %w", ErrNotConfigured)
	}

	var decoded map[string]string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return SigningKeys{}, fmt.Errorf("decode signing keys: %w", err)
	}

	keys := SigningKeys{ActiveKID: kid, Keys: make(map[string][]byte, len(decoded))}
	for k, v := range decoded {
		keys.Keys[k] = []byte(v)
	}
	if _, err := keys.Active(); err != nil {
		return SigningKeys{}, err
	}
	return keys, nil
}
