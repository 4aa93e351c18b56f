package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerSettings tunes the circuit breaker around a sink.
type BreakerSettings struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
	Logger      *zap.Logger
}

type breakerVisitRepository struct {
	next VisitRepository
	cb   *gobreaker.CircuitBreaker[[]model.VisitRecord]
}

// NewBreakerVisitRepository wraps next so that MaxFailures consecutive errors open the
// circuit. While open, calls fail fast with ErrSinkUnavailable.
func NewBreakerVisitRepository(next VisitRepository, s BreakerSettings) VisitRepository {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxFailures := s.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	name := s.Name
	if name == "" {
		name = "visit-sink"
	}

	cb := gobreaker.NewCircuitBreaker[[]model.VisitRecord](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("visit sink breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &breakerVisitRepository{next: next, cb: cb}
}

func (r *breakerVisitRepository) Append(ctx context.Context, visit *model.VisitRecord) error {
	_, err := r.cb.Execute(func() ([]model.VisitRecord, error) {
		return nil, r.next.Append(ctx, visit)
	})
	return mapBreakerError(err)
}

func (r *breakerVisitRepository) ListAll(ctx context.Context) ([]model.VisitRecord, error) {
	visits, err := r.cb.Execute(func() ([]model.VisitRecord, error) {
		return r.next.ListAll(ctx)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return visits, nil
}

func mapBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}
	return err
}
