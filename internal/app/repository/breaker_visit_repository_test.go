package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVisitRepository struct {
	appendFn func(ctx context.Context, visit *model.VisitRecord) error
	listFn   func(ctx context.Context) ([]model.VisitRecord, error)
	calls    int
}

func (m *mockVisitRepository) Append(ctx context.Context, visit *model.VisitRecord) error {
	m.calls++
	if m.appendFn != nil {
		return m.appendFn(ctx, visit)
	}
	return nil
}

func (m *mockVisitRepository) ListAll(ctx context.Context) ([]model.VisitRecord, error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func TestBreakerVisitRepository_OpensAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("disk full")
	inner := &mockVisitRepository{
		appendFn: func(ctx context.Context, visit *model.VisitRecord) error { return boom },
	}
	repo := NewBreakerVisitRepository(inner, BreakerSettings{MaxFailures: 3, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := repo.Append(ctx, sampleVisit("x", time.Now()))
		require.ErrorIs(t, err, boom)
	}

	err := repo.Append(ctx, sampleVisit("x", time.Now()))
	require.ErrorIs(t, err, ErrSinkUnavailable)
	assert.Equal(t, 3, inner.calls)

	_, err = repo.ListAll(ctx)
	require.ErrorIs(t, err, ErrSinkUnavailable)
	assert.Equal(t, 3, inner.calls)
}

func TestBreakerVisitRepository_PassesThrough(t *testing.T) {
	inner := &mockVisitRepository{
		listFn: func(ctx context.Context) ([]model.VisitRecord, error) {
			return []model.VisitRecord{{ID: "a"}}, nil
		},
	}
	repo := NewBreakerVisitRepository(inner, BreakerSettings{})

	require.NoError(t, repo.Append(context.Background(), sampleVisit("a", time.Now())))
	visits, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}
