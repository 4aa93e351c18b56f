package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer tok-1"
	}
	deny := func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":"Unauthorized"}`))
	}

	mux.HandleFunc("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"Invalid email or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"token":"tok-1","message":"Login successful"}`))
	})
	mux.HandleFunc("/api/admin/verify", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			deny(w)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"email":"admin@example.com","role":"admin","exp":1893456000}`))
	})
	mux.HandleFunc("/api/admin/unsubscribe-logs", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			deny(w)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"logs":[{"id":"1","email":"a@example.com","country":"AU"}],"total":1}`))
	})
	mux.HandleFunc("/api/unsubscribe-analytics", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			deny(w)
			return
		}
		_, _ = w.Write([]byte(`{"totalVisits":3,"uniqueEmails":2,"uniqueVisitors":2}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_LoginAndFetch(t *testing.T) {
	srv := newAdminServer(t)
	client := NewClient(srv.URL+"/", srv.Client())
	ctx := context.Background()

	token, err := client.Login(ctx, "admin@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	identity, err := client.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "admin", identity.Role)
	assert.Equal(t, int64(1893456000), identity.Exp)

	logs, err := client.Logs(ctx, token)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "AU", logs[0].Country)

	summary, err := client.Analytics(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalVisits)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := newAdminServer(t)
	client := NewClient(srv.URL, srv.Client())
	ctx := context.Background()

	_, err := client.Login(ctx, "admin@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = client.Verify(ctx, "forged")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = client.Logs(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = client.Analytics(ctx, "forged")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Failed to fetch logs"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).Logs(context.Background(), "tok-1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Failed to fetch logs", apiErr.Message)
}
