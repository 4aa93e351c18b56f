package collector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sifan077/VisitAudit/internal/app/model"
)

const defaultTimeout = 10 * time.Second

// HTTPTransport posts records as JSON to the ingestion endpoint.
type HTTPTransport struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
}

// NewHTTPTransport returns a transport posting to endpoint, e.g.
// "https://example.com/api/log-unsubscribe". A nil client gets a 10s timeout.
func NewHTTPTransport(endpoint string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPTransport{endpoint: endpoint, httpClient: client}
}

// WithUserAgent sets the User-Agent header sent with every post.
func (t *HTTPTransport) WithUserAgent(ua string) *HTTPTransport {
	t.userAgent = ua
	return t
}

func (t *HTTPTransport) Send(ctx context.Context, visit *model.VisitRecord) error {
	body, err := json.Marshal(visit)
	if err != nil {
		return fmt.Errorf("encode visit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post visit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post visit: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
