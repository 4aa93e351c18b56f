package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sifan077/VisitAudit/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrSinkUnavailable signals that the sink refused the call without attempting it.
	ErrSinkUnavailable = errors.New("visit sink unavailable")
)

// VisitRepository is the persistence collaborator for visit records. Records are
// append-only: there is no update or delete.
type VisitRepository interface {
	Append(ctx context.Context, visit *model.VisitRecord) error
	ListAll(ctx context.Context) ([]model.VisitRecord, error)
}

type gormVisitRepository struct {
	db *gorm.DB
}

// NewGormVisitRepository returns a GORM-backed VisitRepository.
func NewGormVisitRepository(db *gorm.DB) VisitRepository {
	return &gormVisitRepository{db: db}
}

func (r *gormVisitRepository) Append(ctx context.Context, visit *model.VisitRecord) error {
	if err := r.db.WithContext(ctx).Create(visit).Error; err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (r *gormVisitRepository) ListAll(ctx context.Context) ([]model.VisitRecord, error) {
	var result []model.VisitRecord
	if err := r.db.WithContext(ctx).
		Order("server_timestamp ASC").
		Find(&result).Error; err != nil {
		return nil, fmt.Errorf("select visits: %w", err)
	}
	return result, nil
}
