package handler

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/sifan077/VisitAudit/internal/app/service"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		Immutable:   true,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
}

type mockVisitService struct {
	ingestFn func(ctx context.Context, input service.IngestInput) (*model.VisitRecord, error)
	listFn   func(ctx context.Context) ([]model.VisitRecord, error)
}

func (m *mockVisitService) Ingest(ctx context.Context, input service.IngestInput) (*model.VisitRecord, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, input)
	}
	return input.Visit, nil
}

func (m *mockVisitService) List(ctx context.Context) ([]model.VisitRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.VisitRecord{}, nil
}

type mockAuthService struct {
	loginFn  func(ctx context.Context, input service.LoginInput) (*service.LoginResult, error)
	verifyFn func(ctx context.Context, token string) *model.AdminIdentity
}

func (m *mockAuthService) Login(ctx context.Context, input service.LoginInput) (*service.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, input)
	}
	return nil, service.ErrInvalidCredentials
}

func (m *mockAuthService) Verify(ctx context.Context, token string) *model.AdminIdentity {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, token)
	}
	return nil
}

func (m *mockAuthService) IsExpired(ctx context.Context, token string) bool {
	return m.Verify(ctx, token) == nil
}

type mockAnalyticsService struct {
	summaryFn func(ctx context.Context) (*model.AnalyticsSummary, error)
}

func (m *mockAnalyticsService) Summary(ctx context.Context) (*model.AnalyticsSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx)
	}
	return &model.AnalyticsSummary{}, nil
}
