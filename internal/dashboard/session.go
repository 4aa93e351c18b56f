package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sifan077/VisitAudit/internal/app/model"
)

// State is the authentication state of a dashboard session.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// API is the server surface a session depends on. *Client implements it.
type API interface {
	Login(ctx context.Context, email, password string) (string, error)
	Verify(ctx context.Context, token string) (*model.AdminIdentity, error)
	Logs(ctx context.Context, token string) ([]model.VisitRecord, error)
}

// Session tracks the held token and the last loaded record set. A token is only held
// while Authenticated, and only after the server verified it.
type Session struct {
	api   API
	store TokenStore
	now   func() time.Time

	mu       sync.Mutex
	state    State
	token    string
	identity *model.AdminIdentity
	records  []model.VisitRecord
}

// NewSession returns an Unauthenticated session.
func NewSession(api API, store TokenStore) *Session {
	return &Session{api: api, store: store, now: time.Now}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token returns the held token, or "" when Unauthenticated.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Identity() *model.AdminIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Records returns the set loaded by the last successful Refresh.
func (s *Session) Records() []model.VisitRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

// Resume verifies the stored token with the server. Any failure discards it.
func (s *Session) Resume(ctx context.Context) error {
	token, err := s.store.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return ErrUnauthenticated
	}
	return s.enter(ctx, token)
}

// Login authenticates, verifies the new token and persists it.
func (s *Session) Login(ctx context.Context, email, password string) error {
	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.enter(ctx, token); err != nil {
		return err
	}
	if err := s.store.Save(token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// Refresh fetches the full record set once. A 401 or an expired token ends the session;
// any other failure keeps the session and the previously loaded records.
func (s *Session) Refresh(ctx context.Context) ([]model.VisitRecord, error) {
	s.mu.Lock()
	token, identity := s.token, s.identity
	s.mu.Unlock()

	if token == "" {
		return nil, ErrUnauthenticated
	}
	if identity != nil && identity.Exp > 0 && s.now().Unix() >= identity.Exp {
		s.discard()
		return nil, ErrUnauthenticated
	}

	records, err := s.api.Logs(ctx, token)
	if errors.Is(err, ErrUnauthenticated) {
		s.discard()
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return records, nil
}

// Logout drops the token locally and from the store.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	return s.store.Clear()
}

func (s *Session) enter(ctx context.Context, token string) error {
	identity, err := s.api.Verify(ctx, token)
	if err != nil || identity == nil || identity.Role != model.RoleAdmin {
		s.discard()
		if err != nil && !errors.Is(err, ErrUnauthenticated) {
			return fmt.Errorf("verify token: %w", err)
		}
		return ErrUnauthenticated
	}

	s.mu.Lock()
	s.state = Authenticated
	s.token = token
	s.identity = identity
	s.mu.Unlock()
	return nil
}

func (s *Session) discard() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	_ = s.store.Clear()
}

func (s *Session) reset() {
	s.state = Unauthenticated
	s.token = ""
	s.identity = nil
	s.records = nil
}
