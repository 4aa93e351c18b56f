package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sifan077/VisitAudit/internal/app/model"
)

var (
	ErrUnauthenticated    = errors.New("dashboard: not authenticated")
	ErrInvalidCredentials = errors.New("dashboard: invalid email or password")
)

// APIError is a non-success answer from the server other than an authorization failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// Client talks to the admin endpoints of a VisitAudit server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the server at baseURL. A nil httpClient gets a 15s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Token   string `json:"token"`

	Email string `json:"email"`
	Role  string `json:"role"`
	Exp   int64  `json:"exp"`

	Logs  []model.VisitRecord `json:"logs"`
	Total int                 `json:"total"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", fmt.Errorf("encode login: %w", err)
	}

	var out envelope
	status, err := c.do(ctx, http.MethodPost, "/api/admin/login", "", body, &out)
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusUnauthorized:
		return "", ErrInvalidCredentials
	case status != http.StatusOK || !out.Success:
		return "", &APIError{Status: status, Message: out.Error}
	}
	return out.Token, nil
}

// Verify asks the server whether token is still valid.
func (c *Client) Verify(ctx context.Context, token string) (*model.AdminIdentity, error) {
	var out envelope
	status, err := c.do(ctx, http.MethodGet, "/api/admin/verify", token, nil, &out)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(status, out); err != nil {
		return nil, err
	}
	return &model.AdminIdentity{Email: out.Email, Role: out.Role, Exp: out.Exp}, nil
}

// Logs fetches every stored visit.
func (c *Client) Logs(ctx context.Context, token string) ([]model.VisitRecord, error) {
	var out envelope
	status, err := c.do(ctx, http.MethodGet, "/api/admin/unsubscribe-logs", token, nil, &out)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(status, out); err != nil {
		return nil, err
	}
	if out.Logs == nil {
		out.Logs = []model.VisitRecord{}
	}
	return out.Logs, nil
}

// Analytics fetches the aggregate summary.
func (c *Client) Analytics(ctx context.Context, token string) (*model.AnalyticsSummary, error) {
	var raw json.RawMessage
	status, err := c.do(ctx, http.MethodGet, "/api/unsubscribe-analytics", token, nil, &raw)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		var out envelope
		_ = json.Unmarshal(raw, &out)
		return nil, checkStatus(status, out)
	}

	var summary model.AnalyticsSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("decode analytics: %w", err)
	}
	return &summary, nil
}

func checkStatus(status int, out envelope) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthenticated
	case status != http.StatusOK || !out.Success:
		return &APIError{Status: status, Message: out.Error}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil && resp.StatusCode == http.StatusOK {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
