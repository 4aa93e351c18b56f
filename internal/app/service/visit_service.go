package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/sifan077/VisitAudit/internal/app/repository"
	infraPrometheus "github.com/sifan077/VisitAudit/internal/infra/prometheus"
	"go.uber.org/zap"
)

// VisitService defines behaviour-level operations on visit records.
type VisitService interface {
	Ingest(ctx context.Context, input IngestInput) (*model.VisitRecord, error)
	List(ctx context.Context) ([]model.VisitRecord, error)
}

// VisitEventPublisher forwards finalized visits to downstream consumers.
type VisitEventPublisher interface {
	Publish(ctx context.Context, visit *model.VisitRecord) error
}

// IngestInput carries the client payload and the values observed at the request boundary.
type IngestInput struct {
	Visit     *model.VisitRecord
	UserAgent string
	Network   model.NetworkInfo
}

// VisitServiceDeps bundles collaborators of the visit service. Publisher, Metrics and
// Logger are optional.
type VisitServiceDeps struct {
	Repo      repository.VisitRepository
	Publisher VisitEventPublisher
	Metrics   *infraPrometheus.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
	NewID     func() string
}

type visitService struct {
	repo      repository.VisitRepository
	publisher VisitEventPublisher
	metrics   *infraPrometheus.Metrics
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewVisitService returns a service implementation backed by the given repository.
func NewVisitService(deps VisitServiceDeps) VisitService {
	s := &visitService{
		repo:      deps.Repo,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Now,
		newID:     deps.NewID,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s
}

func (s *visitService) Ingest(ctx context.Context, input IngestInput) (*model.VisitRecord, error) {
	visit := input.Visit
	if visit == nil {
		visit = &model.VisitRecord{}
	}
	visit.Enrich(input.UserAgent, input.Network, s.newID(), s.now().UTC())

	if err := s.repo.Append(ctx, visit); err != nil {
		s.metrics.SinkError("append")
		s.metrics.Ingested(infraPrometheus.OutcomeFailure)
		return nil, fmt.Errorf("append visit: %w", err)
	}
	s.metrics.Ingested(infraPrometheus.OutcomeSuccess)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, visit); err != nil {
			s.metrics.PublishError()
			s.logger.Warn("failed to publish visit event",
				zap.String("visit_id", visit.ID),
				zap.Error(err),
			)
		}
	}

	return visit, nil
}

func (s *visitService) List(ctx context.Context) ([]model.VisitRecord, error) {
	visits, err := s.repo.ListAll(ctx)
	if err != nil {
		s.metrics.SinkError("list")
		return nil, fmt.Errorf("list visits: %w", err)
	}
	if visits == nil {
		visits = []model.VisitRecord{}
	}
	return visits, nil
}
