package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdriftlab/ecom-scraper/internal/jobs"
	"github.com/webdriftlab/ecom-scraper/internal/models"
)

func newTestServer(t *testing.T, run jobs.Runner) (*httptest.Server, *jobs.Manager) {
	t.Helper()

	store, err := jobs.NewStore("")
	require.NoError(t, err)

	manager := jobs.NewManager(store, run)
	h := NewHandlers(manager, slog.Default())

	r := chi.NewRouter()
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, manager
}

func postSession(t *testing.T, srv *httptest.Server, url string) *http.Response {
	t.Helper()
	body, err := json.Marshal(map[string]string{"url": url})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/v1/sessions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestCreateSession(t *testing.T) {
	srv, _ := newTestServer(t, func(ctx context.Context, url string) (*models.Report, error) {
		return &models.Report{}, nil
	})

	resp := postSession(t, srv, "https://www.amazon.in/s?k=shoes")
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var job jobs.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, jobs.StatusPending, job.Status)
	assert.Equal(t, "https://www.amazon.in/s?k=shoes", job.URL)
}

func TestCreateSessionRejectsUnsupportedPlatform(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := postSession(t, srv, "https://www.example.com/catalog")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateSessionRejectsMissingURL(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := postSession(t, srv, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSession(t *testing.T) {
	srv, manager := newTestServer(t, nil)

	job, err := manager.Submit("https://www.flipkart.com/search?q=shoes")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/sessions/" + job.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got jobs.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, job.ID, got.ID)
}

func TestGetSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/v1/sessions/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListSessions(t *testing.T) {
	srv, manager := newTestServer(t, nil)

	_, err := manager.Submit("https://www.amazon.in/s?k=a")
	require.NoError(t, err)
	_, err = manager.Submit("https://www.amazon.in/s?k=b")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Sessions []jobs.Job `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Sessions, 2)
}

func TestGetStats(t *testing.T) {
	srv, manager := newTestServer(t, nil)

	_, err := manager.Submit("https://www.amazon.in/s?k=a")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats["total"])
	assert.Equal(t, 1, stats["queued"])
}

func TestListPlatforms(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/v1/platforms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Platforms []struct {
			ID    string `json:"id"`
			Style string `json:"pagination_style"`
		} `json:"platforms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.GreaterOrEqual(t, len(body.Platforms), 13)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
