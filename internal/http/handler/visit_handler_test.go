package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/sifan077/VisitAudit/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitHandler_LogVisit(t *testing.T) {
	var got service.IngestInput
	visits := &mockVisitService{
		ingestFn: func(ctx context.Context, input service.IngestInput) (*model.VisitRecord, error) {
			got = input
			v := *input.Visit
			v.ServerTimestamp = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
			return &v, nil
		},
	}
	app := newTestApp()
	NewVisitHandler(VisitDeps{VisitService: visits}).Register(app)

	body := `{"email":"reader@example.com","source":"newsletter","screenWidth":390,"ipAddress":"6.6.6.6","latitude":-34.9}`
	req := httptest.NewRequest(http.MethodPost, "/api/log-unsubscribe", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone)")
	req.Header.Set("CF-Connecting-IP", "203.0.113.10")
	req.Header.Set("CF-IPCountry", "AU")
	req.Header.Set("X-Vercel-IP-City", "Adelaide%20Hills")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Visit logged successfully", out["message"])
	assert.Equal(t, "2026-08-01T00:00:00Z", out["timestamp"])

	assert.Equal(t, "reader@example.com", got.Visit.Email)
	assert.Equal(t, 390, got.Visit.ScreenWidth)
	assert.Equal(t, "Mozilla/5.0 (iPhone)", got.UserAgent)
	assert.Equal(t, "203.0.113.10", got.Network.IPAddress)
	assert.Equal(t, "AU", got.Network.Country)
	assert.Equal(t, "Adelaide Hills", got.Network.City)
}

func TestVisitHandler_MalformedBody(t *testing.T) {
	called := false
	app := newTestApp()
	NewVisitHandler(VisitDeps{VisitService: &mockVisitService{
		ingestFn: func(ctx context.Context, input service.IngestInput) (*model.VisitRecord, error) {
			called = true
			return input.Visit, nil
		},
	}}).Register(app)

	for _, body := range []string{"", "{not json", `{"screenWidth":"wide"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/log-unsubscribe", strings.NewReader(body))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, body)
	}
	assert.False(t, called)
}

func TestVisitHandler_ClientTimestampParsing(t *testing.T) {
	var got service.IngestInput
	app := newTestApp()
	NewVisitHandler(VisitDeps{VisitService: &mockVisitService{
		ingestFn: func(ctx context.Context, input service.IngestInput) (*model.VisitRecord, error) {
			got = input
			return input.Visit, nil
		},
	}}).Register(app)

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/log-unsubscribe", strings.NewReader(body))
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusOK, post(`{"timestamp":"2026-07-04T09:00:00.000Z"}`))
	assert.True(t, time.Date(2026, 7, 4, 9, 0, 0, 0, time.UTC).Equal(got.Visit.Timestamp))

	require.Equal(t, fiber.StatusOK, post(`{"email":"reader@example.com"}`))
	assert.True(t, got.Visit.Timestamp.IsZero())

	assert.Equal(t, fiber.StatusBadRequest, post(`{"timestamp":""}`))
	assert.Equal(t, fiber.StatusBadRequest, post(`{"timestamp":"04/07/2026"}`))
}

func TestVisitHandler_SinkFailure(t *testing.T) {
	app := newTestApp()
	NewVisitHandler(VisitDeps{VisitService: &mockVisitService{
		ingestFn: func(ctx context.Context, input service.IngestInput) (*model.VisitRecord, error) {
			return nil, errors.New("append visit: pq: relation does not exist")
		},
	}}).Register(app)

	req := httptest.NewRequest(http.MethodPost, "/api/log-unsubscribe", strings.NewReader(`{}`))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"success":false,"error":"Failed to log visit"}`, string(body))
}
