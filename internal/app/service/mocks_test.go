package service

import (
	"context"

	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/sifan077/VisitAudit/internal/app/secret"
)

type mockVisitRepository struct {
	appendFn func(ctx context.Context, visit *model.VisitRecord) error
	listFn   func(ctx context.Context) ([]model.VisitRecord, error)
}

func (m *mockVisitRepository) Append(ctx context.Context, visit *model.VisitRecord) error {
	if m.appendFn != nil {
		return m.appendFn(ctx, visit)
	}
	return nil
}

func (m *mockVisitRepository) ListAll(ctx context.Context) ([]model.VisitRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockPublisher struct {
	publishFn func(ctx context.Context, visit *model.VisitRecord) error
}

func (m *mockPublisher) Publish(ctx context.Context, visit *model.VisitRecord) error {
	if m.publishFn != nil {
		return m.publishFn(ctx, visit)
	}
	return nil
}

type mockSecrets struct {
	credsFn func(ctx context.Context) (secret.AdminCredentials, error)
}

func (m *mockSecrets) AdminCredentials(ctx context.Context) (secret.AdminCredentials, error) {
	if m.credsFn != nil {
		return m.credsFn(ctx)
	}
	return secret.AdminCredentials{}, secret.ErrNotConfigured
}

func (m *mockSecrets) SigningKeys(context.Context) (secret.SigningKeys, error) {
	return secret.SigningKeys{}, secret.ErrNotConfigured
}

type mockTokens struct {
	issueFn func(ctx context.Context, email string) (string, *model.AdminIdentity, error)
	parseFn func(ctx context.Context, token string) (*model.AdminIdentity, error)
}

func (m *mockTokens) Issue(ctx context.Context, email string) (string, *model.AdminIdentity, error) {
	if m.issueFn != nil {
		return m.issueFn(ctx, email)
	}
	return "token", &model.AdminIdentity{Email: email, Role: model.RoleAdmin}, nil
}

func (m *mockTokens) Parse(ctx context.Context, token string) (*model.AdminIdentity, error) {
	if m.parseFn != nil {
		return m.parseFn(ctx, token)
	}
	return nil, nil
}

type mockNotifier struct {
	ch chan model.LoginAttempt
}

func (m *mockNotifier) NotifyLogin(_ context.Context, attempt model.LoginAttempt) error {
	m.ch <- attempt
	return nil
}

type mockMailer struct {
	sendFn func(ctx context.Context, to []string, subject, body string) error
}

func (m *mockMailer) Send(ctx context.Context, to []string, subject, body string) error {
	if m.sendFn != nil {
		return m.sendFn(ctx, to, subject, body)
	}
	return nil
}
