package secret

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CachedProvider memoizes another provider for interval. When a refresh fails and a
// previous value exists, the stale value is served and the failure logged.
type CachedProvider struct {
	next     Provider
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	creds    AdminCredentials
	credsAt  time.Time
	credsSet bool
	keys     SigningKeys
	keysAt   time.Time
	keysSet  bool
}

// NewCachedProvider wraps next. A non-positive interval disables caching.
func NewCachedProvider(next Provider, interval time.Duration, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{next: next, interval: interval, logger: logger, now: time.Now}
}

func (c *CachedProvider) AdminCredentials(ctx context.Context) (AdminCredentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.credsSet && c.fresh(c.credsAt) {
		return c.creds, nil
	}

	creds, err := c.next.AdminCredentials(ctx)
	if err != nil {
		if c.credsSet {
			c.logger.Warn("serving cached admin credentials after refresh failure", zap.Error(err))
			return c.creds, nil
		}
		return AdminCredentials{}, err
	}

	c.creds, c.credsAt, c.credsSet = creds, c.now(), true
	return creds, nil
}

func (c *CachedProvider) SigningKeys(ctx context.Context) (SigningKeys, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keysSet && c.fresh(c.keysAt) {
		return c.keys, nil
	}

	keys, err := c.next.SigningKeys(ctx)
	if err != nil {
		if c.keysSet {
			c.logger.Warn("serving cached signing keys after refresh failure", zap.Error(err))
			return c.keys, nil
		}
		return SigningKeys{}, err
	}

	c.keys, c.keysAt, c.keysSet = keys, c.now(), true
	return keys, nil
}

func (c *CachedProvider) fresh(at time.Time) bool {
	return c.interval > 0 && c.now().Sub(at) < c.interval
}

// Refresh reloads both values from the wrapped provider regardless of age.
func (c *CachedProvider) Refresh(ctx context.Context) error {
	creds, err := c.next.AdminCredentials(ctx)
	if err != nil {
		return err
	}
	keys, err := c.next.SigningKeys(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.creds, c.credsAt, c.credsSet = creds, now, true
	c.keys, c.keysAt, c.keysSet = keys, now, true
	return nil
}
