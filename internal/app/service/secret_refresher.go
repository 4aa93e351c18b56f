package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Refresher reloads cached secrets on demand.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// SecretRefresher periodically reloads admin credentials and signing keys so that
// rotations reach the authenticator without waiting for a login to miss the cache.
type SecretRefresher struct {
	logger   *zap.Logger
	target   Refresher
	interval time.Duration
	stopChan chan struct{}
}

// NewSecretRefresher creates a new refresher. A non-positive interval defaults to one minute.
func NewSecretRefresher(logger *zap.Logger, target Refresher, interval time.Duration) *SecretRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &SecretRefresher{
		logger:   logger,
		target:   target,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic refresh.
func (r *SecretRefresher) Start() {
	go r.run()
}

// Stop stops the periodic refresh.
func (r *SecretRefresher) Stop() {
	close(r.stopChan)
}

func (r *SecretRefresher) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.refresh()
		case <-r.stopChan:
			r.logger.Info("secret refresher stopped")
			return
		}
	}
}

func (r *SecretRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	if err := r.target.Refresh(ctx); err != nil {
		r.logger.Warn("failed to refresh secrets", zap.Error(err))
	}
}
