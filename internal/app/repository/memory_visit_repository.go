package repository

import (
	"context"
	"sync"

	"github.com/sifan077/VisitAudit/internal/app/model"
)

type memoryVisitRepository struct {
	mu     sync.RWMutex
	visits []model.VisitRecord
}

// NewMemoryVisitRepository keeps visits in process memory. Contents are lost on restart.
func NewMemoryVisitRepository() VisitRepository {
	return &memoryVisitRepository{}
}

func (r *memoryVisitRepository) Append(_ context.Context, visit *model.VisitRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, visit.Clone())
	return nil
}

func (r *memoryVisitRepository) ListAll(_ context.Context) ([]model.VisitRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.VisitRecord, len(r.visits))
	for i := range r.visits {
		out[i] = r.visits[i].Clone()
	}
	return out, nil
}
