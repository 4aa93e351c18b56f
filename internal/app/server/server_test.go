package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/VisitAudit/config"
	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/sifan077/VisitAudit/internal/app/repository"
	"github.com/sifan077/VisitAudit/internal/app/secret"
	"github.com/sifan077/VisitAudit/internal/app/service"
	"github.com/sifan077/VisitAudit/internal/http/middleware"
	"github.com/sifan077/VisitAudit/internal/http/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	secrets, err := secret.NewStaticProvider(config.AuthConfig{
		AdminEmail:    "admin@example.com",
		AdminPassword: "correct horse",
		JWTSecret:     "test-signing-key",
	})
	require.NoError(t, err)

	repo := repository.NewMemoryVisitRepository()
	return New(Dependencies{
		Visits: service.NewVisitService(service.VisitServiceDeps{Repo: repo}),
		Auth: service.NewAuthService(service.AuthDeps{
			Secrets: secrets,
			Tokens:  util.NewTokenSigner(secrets, 24*time.Hour),
		}),
		Analytics:   service.NewAnalyticsService(repo),
		SiteName:    "Example Kitchen",
		CORSOrigins: "*",
	})
}

func TestServer_IngestLoginAndQuery(t *testing.T) {
	app := newTestServer(t).App()

	visit := httptest.NewRequest(http.MethodPost, "/api/log-unsubscribe",
		strings.NewReader(`{"email":"reader@example.com","source":"newsletter","ipAddress":"1.1.1.1","timestamp":"2026-07-04T09:00:00Z"}`))
	visit.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.2")
	resp, err := app.Test(visit)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	login := httptest.NewRequest(http.MethodPost, "/api/admin/login",
		strings.NewReader(`{"email":"admin@example.com","password":"correct horse"}`))
	resp, err = app.Test(login)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var loginBody struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginBody))
	require.NotEmpty(t, loginBody.Token)

	logs := httptest.NewRequest(http.MethodGet, "/api/admin/unsubscribe-logs", nil)
	logs.Header.Set("Authorization", "Bearer "+loginBody.Token)
	resp, err = app.Test(logs)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var logsBody struct {
		Logs  []model.VisitRecord `json:"logs"`
		Total int                 `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&logsBody))
	require.Equal(t, 1, logsBody.Total)
	assert.Equal(t, "reader@example.com", logsBody.Logs[0].Email)
	assert.Equal(t, "198.51.100.7", logsBody.Logs[0].IPAddress)
	assert.NotEmpty(t, logsBody.Logs[0].ID)
}

func adminLogs(t *testing.T, app *fiber.App) []model.VisitRecord {
	t.Helper()

	login := httptest.NewRequest(http.MethodPost, "/api/admin/login",
		strings.NewReader(`{"email":"admin@example.com","password":"correct horse"}`))
	resp, err := app.Test(login)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var loginBody struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginBody))

	logs := httptest.NewRequest(http.MethodGet, "/api/admin/unsubscribe-logs", nil)
	logs.Header.Set("Authorization", "Bearer "+loginBody.Token)
	resp, err = app.Test(logs)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var logsBody struct {
		Logs []model.VisitRecord `json:"logs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&logsBody))
	return logsBody.Logs
}

func TestServer_FullRecordRoundTrip(t *testing.T) {
	app := newTestServer(t).App()

	payload := `{
		"email":"reader@example.com","token":"tok-1","source":"newsletter",
		"timestamp":"2026-07-04T09:00:00.000Z",
		"userAgent":"Client-UA","language":"en-AU","languages":["en-AU","en"],
		"platform":"MacIntel","cookieEnabled":true,"onLine":true,
		"screenWidth":1440,"screenHeight":900,"screenColorDepth":30,"screenPixelDepth":30,
		"windowWidth":1280,"windowHeight":720,
		"timezone":"Australia/Adelaide","estimatedLocation":"Australia/Adelaide",
		"url":"https://example.com/unsubscribe?email=reader%40example.com","referrer":"https://mail.example.com/",
		"id":"client-id","serverTimestamp":"2001-01-01T00:00:00Z",
		"ipAddress":"1.1.1.1","country":"XX","city":"Nowhere","edgeTraceId":"forged"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/log-unsubscribe", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Server-UA/1.0")
	req.Header.Set("X-Real-IP", "192.0.2.44")
	req.Header.Set("CF-IPCountry", "AU")
	before := time.Now().UTC()
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	logs := adminLogs(t, app)
	require.Len(t, logs, 1)
	got := logs[0]

	assert.Equal(t, "reader@example.com", got.Email)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, "newsletter", got.Source)
	assert.True(t, time.Date(2026, 7, 4, 9, 0, 0, 0, time.UTC).Equal(got.Timestamp))
	assert.Equal(t, "en-AU", got.Language)
	assert.Equal(t, []string{"en-AU", "en"}, got.Languages)
	assert.Equal(t, "MacIntel", got.Platform)
	assert.True(t, got.CookieEnabled)
	assert.True(t, got.OnLine)
	assert.Equal(t, 1440, got.ScreenWidth)
	assert.Equal(t, 900, got.ScreenHeight)
	assert.Equal(t, 30, got.ScreenColorDepth)
	assert.Equal(t, 30, got.ScreenPixelDepth)
	assert.Equal(t, 1280, got.WindowWidth)
	assert.Equal(t, 720, got.WindowHeight)
	assert.Equal(t, "Australia/Adelaide", got.Timezone)
	assert.Equal(t, "Australia/Adelaide", got.EstimatedLocation)
	assert.Equal(t, "https://example.com/unsubscribe?email=reader%40example.com", got.URL)
	assert.Equal(t, "https://mail.example.com/", got.Referrer)

	assert.False(t, got.HasCoordinates())
	assert.Nil(t, got.Accuracy)
	assert.Nil(t, got.Altitude)
	assert.Nil(t, got.Heading)
	assert.Nil(t, got.Speed)

	assert.NotEmpty(t, got.ID)
	assert.NotEqual(t, "client-id", got.ID)
	assert.False(t, got.ServerTimestamp.Before(before.Add(-time.Second)))
	assert.Equal(t, "Server-UA/1.0", got.UserAgent)
	assert.Equal(t, "192.0.2.44", got.IPAddress)
	assert.Equal(t, "AU", got.Country)
	assert.Empty(t, got.City)
	assert.Empty(t, got.EdgeTraceID)
}

func TestServer_RejectsWrongPassword(t *testing.T) {
	app := newTestServer(t).App()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
		strings.NewReader(`{"email":"admin@example.com","password":"nope"}`))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestServer_UnsubscribePageAndCORS(t *testing.T) {
	app := newTestServer(t).App()

	req := httptest.NewRequest(http.MethodGet, "/unsubscribe", nil)
	req.Header.Set("Origin", "https://example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Successfully Unsubscribed")
	assert.Contains(t, string(body), "from the Example Kitchen email service")
}
