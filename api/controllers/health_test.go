package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivshakti/boutique-backend/pkg/config"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	rec := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get(envHeader))
	assert.JSONEq(t, `{"data":{"status":"live"}}`, rec.Body.String())
}

func TestHealthReadySkipsNilDependencies(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	deps := map[string]Pinger{
		"db":  pingerFunc(func(context.Context) error { return nil }),
		"gcs": nil,
	}
	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"status":"ready","checks":{"db":"up"}}}`, rec.Body.String())
}

func TestHealthReadyReportsFailures(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}}
	deps := map[string]Pinger{
		"db":    pingerFunc(func(context.Context) error { return nil }),
		"redis": pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	}
	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
	assert.Contains(t, rec.Body.String(), `"db":"up"`)
}
