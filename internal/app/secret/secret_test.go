package secret

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/VisitAudit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseKeyList(t *testing.T) {
	keys, err := ParseKeyList(" old:s3cret , older:another,")
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), keys["old"])
	assert.Equal(t, []byte("another"), keys["older"])

	_, err = ParseKeyList("no-separator")
	require.Error(t, err)

	empty, err := ParseKeyList("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStaticProvider_HashesPlainPassword(t *testing.T) {
	p, err := NewStaticProvider(config.AuthConfig{
		AdminEmail:    "admin@example.com",
		AdminPassword: "correct horse",
		JWTSecret:     "signing-secret",
	})
	require.NoError(t, err)

	creds, err := p.AdminCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", creds.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword(creds.PasswordHash, []byte("correct horse")))

	keys, err := p.SigningKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "primary", keys.ActiveKID)
	active, err := keys.Active()
	require.NoError(t, err)
	assert.Equal(t, []byte("signing-secret"), active)
}

func TestStaticProvider_PreviousKeysAndHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	p, err := NewStaticProvider(config.AuthConfig{
		AdminEmail:        "admin@example.com",
		AdminPassword:     "ignored",
		AdminPasswordHash: string(hash),
		JWTSecret:         "new",
		JWTKeyID:          "k2",
		JWTPreviousKeys:   "k1:old",
	})
	require.NoError(t, err)

	creds, err := p.AdminCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hash, creds.PasswordHash)

	keys, err := p.SigningKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k2", keys.ActiveKID)
	old, ok := keys.Lookup("k1")
	require.True(t, ok)
	assert.Equal(t, []byte("old"), old)
}

func TestStaticProvider_NotConfigured(t *testing.T) {
	p, err := NewStaticProvider(config.AuthConfig{})
	require.NoError(t, err)

	_, err = p.AdminCredentials(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = p.SigningKeys(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRedisProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	p := NewRedisProvider(client, "test:secrets")
	ctx := context.Background()

	_, err := p.AdminCredentials(ctx)
	require.ErrorIs(t, err, ErrNotConfigured)

	mr.HSet("test:secrets",
		FieldAdminEmail, "ops@example.com",
		FieldAdminPasswordHash, "$2a$10$hash",
		FieldActiveKID, "b",
		FieldKeys, `{"a":"first","b":"second"}`,
	)

	creds, err := p.AdminCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", creds.Email)

	keys, err := p.SigningKeys(ctx)
	require.NoError(t, err)
	active, err := keys.Active()
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), active)
	_, ok := keys.Lookup("a")
	assert.True(t, ok)

	mr.HSet("test:secrets", FieldActiveKID, "missing")
	_, err = p.SigningKeys(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type countingProvider struct {
	calls int
	err   error
	email string
}

func (p *countingProvider) AdminCredentials(context.Context) (AdminCredentials, error) {
	p.calls++
	if p.err != nil {
		return AdminCredentials{}, p.err
	}
	return AdminCredentials{Email: p.email, PasswordHash: []byte("h")}, nil
}

func (p *countingProvider) SigningKeys(context.Context) (SigningKeys, error) {
	p.calls++
	if p.err != nil {
		return SigningKeys{}, p.err
	}
	return SigningKeys{ActiveKID: "k", Keys: map[string][]byte{"k": []byte(p.email)}}, nil
}

func TestCachedProvider_RefreshesAfterInterval(t *testing.T) {
	inner := &countingProvider{email: "first@example.com"}
	c := NewCachedProvider(inner, time.Minute, nil)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	creds, err := c.AdminCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", creds.Email)

	inner.email = "rotated@example.com"
	creds, _ = c.AdminCredentials(ctx)
	assert.Equal(t, "first@example.com", creds.Email)
	assert.Equal(t, 1, inner.calls)

	now = now.Add(2 * time.Minute)
	creds, _ = c.AdminCredentials(ctx)
	assert.Equal(t, "rotated@example.com", creds.Email)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_ServesStaleOnFailure(t *testing.T) {
	inner := &countingProvider{email: "k1"}
	c := NewCachedProvider(inner, time.Second, nil)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.SigningKeys(ctx)
	require.NoError(t, err)

	inner.err = errors.New("redis down")
	now = now.Add(time.Hour)
	keys, err := c.SigningKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k", keys.ActiveKID)
}

func TestCachedProvider_FailureWithoutCache(t *testing.T) {
	inner := &countingProvider{err: errors.New("redis down")}
	c := NewCachedProvider(inner, time.Minute, nil)

	_, err := c.AdminCredentials(context.Background())
	require.Error(t, err)
}

func TestCachedProvider_Refresh(t *testing.T) {
	inner := &countingProvider{email: "first@example.com"}
	c := NewCachedProvider(inner, time.Hour, nil)
	ctx := context.Background()

	_, err := c.AdminCredentials(ctx)
	require.NoError(t, err)

	inner.email = "rotated@example.com"
	require.NoError(t, c.Refresh(ctx))

	creds, err := c.AdminCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rotated@example.com", creds.Email)

	inner.err = errors.New("redis down")
	assert.Error(t, c.Refresh(ctx))
}
