package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/resilience"
)

func testOptions(url string) Options {
	return Options{
		BaseURL: url,
		Timeout: 5 * time.Second,
		Breaker: resilience.CircuitBreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Minute},
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func tempMedia(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLanguageToolCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/check", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Their is a problem.", r.PostForm.Get("text"))
		assert.Equal(t, "en-US", r.PostForm.Get("language"))
		assert.Equal(t, "false", r.PostForm.Get("enabledOnly"))

		io.WriteString(w, `{"matches":[{
			"message":"Possible agreement error",
			"offset":0,"length":5,
			"replacements":[{"value":"There"},{"value":"They're"}],
			"context":{"text":"Their is a problem.","offset":0,"length":5},
			"rule":{"id":"THEIR_IS","category":{"id":"GRAMMAR","name":"Grammar"}}
		}]}`)
	}))
	defer srv.Close()

	lt := NewLanguageTool(testOptions(srv.URL), "")
	defer lt.Close()

	matches, err := lt.Check(context.Background(), "Their is a problem.")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "Possible agreement error", m.Message)
	assert.Equal(t, "Their is a problem.", m.Context)
	assert.Equal(t, 5, m.Length)
	assert.Equal(t, "Grammar", m.Category)
	assert.Equal(t, []string{"There", "They're"}, m.Replacements)
}

func TestLanguageToolFailures(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		io.WriteString(w, "bad language")
	}))
	defer srv.Close()

	lt := NewLanguageTool(testOptions(srv.URL), "en-GB")
	defer lt.Close()

	t.Run("non-200 status", func(t *testing.T) {
		_, err := lt.Check(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, errors.IsCollaboratorFailure(err))
		assert.Contains(t, errors.ToAppError(err).Unwrap().Error(), "status 400")
		assert.Equal(t, resilience.StateClosed, lt.Breaker().State(), "client errors do not trip the breaker")
	})

	t.Run("breaker opens on server errors", func(t *testing.T) {
		status.Store(http.StatusServiceUnavailable)
		for i := 0; i < 2; i++ {
			_, err := lt.Check(context.Background(), "hello")
			require.Error(t, err)
		}
		assert.Equal(t, resilience.StateOpen, lt.Breaker().State())

		_, err := lt.Check(context.Background(), "hello")
		var cbErr *resilience.CircuitBreakerError
		assert.ErrorAs(t, err, &cbErr)
		assert.Equal(t, errors.CategoryExternalAPI, errors.ToAppError(err).Category)
	})
}

func TestLanguageToolTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	lt := NewLanguageTool(testOptions(srv.URL), "")
	defer lt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := lt.Check(ctx, "hello")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryTimeout, errors.ToAppError(err).Category)
}

func TestUnreachableCollaborator(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewNLPParser(testOptions(url))
	_, err := p.Parse(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNetwork, errors.ToAppError(err).Category)
	assert.True(t, errors.IsCollaboratorFailure(err))
}

func TestNLPParserParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Cats sleep.", body["text"])

		io.WriteString(w, `{"sentences":[{"text":"Cats sleep.","vector":[0.1,0.2],"tokens":[
			{"text":"Cats","pos":"NOUN","dep":"nsubj","head":1,"is_punct":false,"is_space":false},
			{"text":"sleep","pos":"VERB","dep":"ROOT","head":1,"is_punct":false,"is_space":false},
			{"text":".","pos":"PUNCT","dep":"punct","head":1,"is_punct":true,"is_space":false}
		]}]}`)
	}))
	defer srv.Close()

	p := NewNLPParser(testOptions(srv.URL))
	defer p.Close()

	parse, err := p.Parse(context.Background(), "Cats sleep.")
	require.NoError(t, err)
	require.Len(t, parse.Sentences, 1)

	s := parse.Sentences[0]
	assert.Equal(t, []float64{0.1, 0.2}, s.Vector)
	require.Len(t, s.Tokens, 3)
	assert.Equal(t, "ROOT", s.Tokens[1].Dep)
	assert.Equal(t, 1, s.Tokens[0].Head)
	assert.True(t, s.Tokens[2].IsPunct)
}

func TestPerceptionExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("frame_skip"))

		f, hdr, err := r.FormFile("video")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "clip.mp4", hdr.Filename)
		assert.Equal(t, "fake video bytes", string(data))

		io.WriteString(w, `{"frames":[{"frame_idx":0}],"meta":{"width":640,"height":480,"fps":30,"total_frames":1}}`)
	}))
	defer srv.Close()

	p := NewPerception(testOptions(srv.URL))
	defer p.Close()

	pv, err := p.Extract(context.Background(), tempMedia(t, "clip.mp4", "fake video bytes"), 3)
	require.NoError(t, err)
	assert.Len(t, pv.Frames, 1)
	assert.Equal(t, 640, pv.Meta.Width)
}

func TestFeatureExtractorExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/features", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("chunk_seconds"))
		_, _, err := r.FormFile("audio")
		require.NoError(t, err)

		writeJSON(t, w, map[string]interface{}{
			"duration_seconds": 7.5,
			"chunks": []map[string]interface{}{
				{"chunk_index": 0, "start_time": 0, "end_time": 5, "duration": 5, "pitch_variance": 120.5},
				{"chunk_index": 1, "start_time": 5, "end_time": 7.5, "duration": 2.5, "pitch_variance": 0},
			},
		})
	}))
	defer srv.Close()

	fe := NewFeatureExtractor(testOptions(srv.URL))
	defer fe.Close()

	res, err := fe.Extract(context.Background(), tempMedia(t, "talk.wav", "RIFF"), 0)
	require.NoError(t, err)
	assert.Equal(t, 7.5, res.DurationSeconds)
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, 120.5, res.Chunks[0].PitchVariance)
	assert.Equal(t, 1, res.Chunks[1].ChunkIndex)
}

func TestPostFileMissingFile(t *testing.T) {
	fe := NewFeatureExtractor(testOptions("http://127.0.0.1:1"))
	_, err := fe.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), 5)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryInternal, errors.ToAppError(err).Category)
}

func TestHTTPTranscriber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		_, _, err := r.FormFile("audio")
		require.NoError(t, err)

		io.WriteString(w, `{"text":"hello world","language":"en","segments":[
			{"start":0,"end":1.2,"text":"hello world","words":[
				{"word":"hello","start":0,"end":0.5},{"word":"world","start":0.6,"end":1.2}]}]}`)
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(testOptions(srv.URL))
	defer tr.Close()

	res, err := tr.Transcribe(context.Background(), tempMedia(t, "a.wav", "RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, config.BackendHTTP, res.Backend)
	require.Len(t, res.Segments, 1)
	assert.Len(t, res.Segments[0].Words, 2)
	assert.True(t, tr.Available())
}

func TestNewTranscriber(t *testing.T) {
	tests := []struct {
		backend   string
		want      string
		available bool
		wantErr   bool
	}{
		{config.BackendHTTP, config.BackendHTTP, true, false},
		{config.BackendNone, config.BackendNone, false, false},
		{"carrier-pigeon", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &config.Config{TranscriptionBackend: tt.backend, TranscriptionURL: "http://localhost:9000"}
			tr, err := NewTranscriber(cfg, Options{})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.CategoryConfiguration, errors.ToAppError(err).Category)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.Backend())
			assert.Equal(t, tt.available, tr.Available())
		})
	}
}

func TestUnavailableTranscriber(t *testing.T) {
	var tr UnavailableTranscriber
	_, err := tr.Transcribe(context.Background(), "x.wav")
	require.Error(t, err)
	assert.True(t, errors.IsCollaboratorFailure(err))
	assert.Error(t, tr.HealthCheck(context.Background()))
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/languages" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	assert.NoError(t, NewLanguageTool(testOptions(srv.URL), "").HealthCheck(context.Background()))
	assert.Error(t, NewPerception(testOptions(srv.URL)).HealthCheck(context.Background()))
}

func TestNewSet(t *testing.T) {
	cfg := &config.Config{
		LanguageToolURL:      "http://localhost:8081",
		LanguageToolTimeout:  time.Second,
		TranscriptionBackend: config.BackendNone,
		AudioFeaturesURL:     "http://localhost:9001",
		PerceptionURL:        "http://localhost:9002",
	}
	dm := resilience.NewDegradationManager(resilience.DefaultDegradationConfig())

	s, err := NewSet(cfg, Options{Health: dm})
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Parser)
	assert.Nil(t, s.TextParser())
	assert.False(t, s.Transcriber.Available())

	health := dm.GetAllServiceHealth()
	assert.Contains(t, health, NameLanguageTool)
	assert.Contains(t, health, NameTranscription)
	assert.NotContains(t, health, NameNLP)

	cfg.NLPURL = "http://localhost:9003"
	s2, err := NewSet(cfg, Options{})
	require.NoError(t, err)
	defer s2.Close()
	assert.NotNil(t, s2.TextParser())
}
