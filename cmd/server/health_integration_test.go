package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/clients"
)

func TestHealthEndpoint_ContentType(t *testing.T) {
	app, _ := newTestApp(t)

	w := doJSON(app.Router(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestHealthEndpoint_ReportsRegisteredServices(t *testing.T) {
	app, deps := newTestApp(t)
	deps.health.RegisterService(clients.NameLanguageTool, func(context.Context) error { return nil })
	deps.health.RegisterService(clients.NameAudioFeatures, func(context.Context) error { return nil })
	deps.health.CheckNow(context.Background())

	w := doJSON(app.Router(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string `json:"status"`
		Services map[string]struct {
			Level         string `json:"level"`
			TotalRequests int64  `json:"total_requests"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	require.Contains(t, body.Services, clients.NameLanguageTool)
	assert.Equal(t, "normal", body.Services[clients.NameLanguageTool].Level)
	assert.Equal(t, int64(1), body.Services[clients.NameAudioFeatures].TotalRequests)
}

func TestHealthEndpoint_ConcurrentRequests(t *testing.T) {
	app, _ := newTestApp(t)
	r := app.Router()

	var wg sync.WaitGroup
	codes := make(chan int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
}

func TestHealthEndpoint_WithQueryParameters(t *testing.T) {
	app, _ := newTestApp(t)

	w := doJSON(app.Router(), http.MethodGet, "/health?param=value&another=test", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestReadyEndpoint_FollowsBreakerRecovery(t *testing.T) {
	app, deps := newTestApp(t)
	r := app.Router()

	_ = deps.breaker.Call(func() error { return assert.AnError })
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(r, http.MethodGet, "/ready", nil).Code)

	deps.breaker.Reset()
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/ready", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	r := app.Router()

	// one scored request so the score series exist
	w := doJSON(r, http.MethodPost, "/video/score", uprightVideo(20))
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, "# TYPE"), "expected Prometheus exposition format")
	assert.Contains(t, body, `expressly_score_value_count{pipeline="video"}`)
}
