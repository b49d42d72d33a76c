package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/chef-next-door/backend/config"
	"github.com/pageza/chef-next-door/backend/internal/logging"
	"github.com/pageza/chef-next-door/backend/internal/testhelpers"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Backend:   config.BackendSQLite,
		JWTSecret: "test-secret",
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           "0",
			AllowedOrigins: "http://localhost:3000",
			LoginPath:      "/login",
		},
		Database: config.DatabaseConfig{SQLitePath: filepath.Join(t.TempDir(), "test.db")},
		Cache:    config.CacheConfig{Store: "memory", Capacity: 100, Shards: 4, TTL: time.Minute, EvictionPercentage: 10},
		Hooks: config.HooksConfig{
			DedupeInterval:        2 * time.Second,
			RetryCount:            1,
			RetryInterval:         time.Millisecond,
			RevalidateOnMount:     true,
			RevalidateOnReconnect: true,
		},
		Storage:   config.StorageConfig{Provider: "none"},
		RateLimit: config.RateLimitConfig{Enabled: true, Window: time.Hour, CreateLimit: 1, ModifyLimit: 10},
		Log:       config.LogConfig{Level: "error"},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, cleanup, err := Build(context.Background(), testConfig(t), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any) (*http.Response, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	c := &client{t: t, base: ts.URL}

	resp, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]any{"database": "ok"}, body["checks"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublishFlow(t *testing.T) {
	ts := newTestServer(t)
	c := &client{t: t, base: ts.URL}

	resp, body := c.do(http.MethodGet, "/api/v1/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login", body["redirect"])

	resp, body = c.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email": "chef@example.com", "password": "secret123", "first_name": "Ada", "last_name": "Chef",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c.token = body["access_token"].(string)

	resp, body = c.do(http.MethodGet, "/api/v1/recipes/mine", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])
	assert.Empty(t, body["data"])

	resp, body = c.do(http.MethodPost, "/api/v1/recipes", testhelpers.TacosData())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Tacos", body["title"])
	assert.Equal(t, false, body["featured"])
	id := body["id"].(string)

	resp, body = c.do(http.MethodGet, "/api/v1/recipes/mine", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)

	resp, body = c.do(http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := body["data"].(map[string]any)
	assert.EqualValues(t, 1, profile["num_recipes"])

	resp, _ = c.do(http.MethodPost, "/api/v1/recipes", testhelpers.TacosData())
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode, "creation limit is one per window")

	resp, _ = c.do(http.MethodDelete, "/api/v1/recipes/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/api/v1/recipes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBlankSearchIsIdle(t *testing.T) {
	ts := newTestServer(t)
	c := &client{t: t, base: ts.URL}

	resp, body := c.do(http.MethodGet, "/api/v1/search/recipes?q=%20%20", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"status": "idle"}, body)
}

func TestStartAndShutdown(t *testing.T) {
	cfg := testConfig(t)
	srv, cleanup, err := Build(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer cleanup()

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}
