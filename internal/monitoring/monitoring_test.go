package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLoggerWritesRFC3339Timestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithLevel(&buf, slog.LevelInfo)

	score := 7.5
	logger.ScoreLogger("text", &score, 120*time.Millisecond, "word_count", 42)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Scoring Completed", entry["msg"])
	assert.Equal(t, "text", entry["pipeline"])
	assert.Equal(t, 7.5, entry["score"])
	assert.Equal(t, true, entry["scored"])

	ts, ok := entry["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestLoggerNullScoreAndLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithLevel(&buf, slog.LevelWarn)

	logger.ScoreLogger("video", nil, time.Second)
	assert.Empty(t, buf.String(), "info is below warn")

	logger.CollaboratorLogger("languagetool", "POST", "/v2/check", 503, time.Second, false)
	assert.Contains(t, buf.String(), `"collaborator":"languagetool"`)

	buf.Reset()
	logger.SetLevel(slog.LevelInfo)
	logger.ScoreLogger("video", nil, time.Second)
	assert.Contains(t, buf.String(), `"scored":false`)
	assert.NotContains(t, buf.String(), `"score":`)
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.RecordRequestByStatus(200)
	m.RecordRequestByStatus(400)
	m.RecordScoreRun("video", "gestures", "expressions")
	m.RecordScoreRun("video")
	m.RecordCollaboratorRequest("languagetool", true)
	m.RecordCollaboratorRequest("languagetool", false)
	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, 50.0, stats["error_rate_percent"])
	assert.Equal(t, map[int]int64{200: 1, 400: 1}, stats["status_code_distribution"])
	assert.Equal(t, 50*time.Millisecond, m.GetPercentileResponseTime(50))

	scoring := m.GetScoreStats()
	assert.Equal(t, map[string]int64{"video": 2}, scoring["runs"])
	assert.Equal(t, map[string]int64{"video.gestures": 1, "video.expressions": 1}, scoring["null_scores"])

	lt := m.GetCollaboratorStats()["languagetool"].(map[string]interface{})
	assert.Equal(t, 50.0, lt["error_rate"])

	m.Reset()
	assert.Equal(t, int64(0), m.GetStats()["total_requests"])
	assert.Equal(t, time.Duration(0), m.GetPercentileResponseTime(99))
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
	minted := w.Header().Get(RequestIDHeader)
	assert.Len(t, minted, 36)
	assert.Equal(t, minted, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "upstream-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-123", w.Body.String())
}

func TestMonitoringMiddlewareRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	metrics := NewMetrics()
	r := gin.New()
	r.Use(RequestIDMiddleware(), MonitoringMiddleware(metrics, NewLoggerWithLevel(&buf, slog.LevelInfo)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for _, path := range []string{"/ok", "/bad", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, int64(3), metrics.RequestCount)
	assert.Equal(t, int64(2), metrics.ErrorCount)
	assert.Contains(t, buf.String(), `"path":"/bad"`)
}

func TestSecurityPatterns(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"id=1 UNION SELECT password", true},
		{"file=../../etc/passwd", true},
		{"frame_skip=3", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, containsInjectionPatterns(tt.in))
		})
	}
	assert.True(t, containsSuspiciousUserAgent("Mozilla/5.0 (compatible; Nikto/2.1.6)"))
	assert.False(t, containsSuspiciousUserAgent("curl/8.0"))
}

func TestCollectSystemStats(t *testing.T) {
	stats := CollectSystemStats(context.Background(), t.TempDir())
	assert.Greater(t, stats.NumGoroutine, 0)
	assert.Greater(t, stats.HeapSys, uint64(0))
	assert.False(t, stats.Timestamp.IsZero())
}

func TestSystemMonitorLifecycle(t *testing.T) {
	metrics := NewMetrics()
	sm := NewSystemMonitor(time.Hour, t.TempDir(), metrics, nil)
	sm.Start()
	defer sm.Stop()

	assert.False(t, sm.Latest().Timestamp.IsZero())
	assert.Greater(t, metrics.HeapSys, int64(0))
	sm.Stop()
}

func TestPrometheusHandlerExposesCollectors(t *testing.T) {
	ObserveHTTP(http.MethodPost, "/text/analyze", 200, 10*time.Millisecond)
	ObserveScore("text", 72)
	ObserveNullScore("video", "gestures", "insufficient_hand_frames")
	ObserveCollaborator("languagetool", false, time.Second)
	SetBreakerState("languagetool", 1)
	ObserveRateLimitBlock()

	w := httptest.NewRecorder()
	PrometheusHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	for _, name := range []string{
		"expressly_http_requests_total",
		"expressly_score_value",
		"expressly_null_scores_total",
		"expressly_collaborator_requests_total",
		"expressly_circuit_breaker_state",
		"expressly_rate_limit_blocks_total",
	} {
		assert.Contains(t, body, name, fmt.Sprintf("missing %s", name))
	}
}
