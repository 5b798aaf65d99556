// Package clients talks to the collaborators the scorers depend on: the
// LanguageTool grammar server, transcription backends, the audio feature
// extractor, the perception extractor and the NLP parse service.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/resilience"
)

// Collaborator names, used for breakers, health and metrics labels.
const (
	NameLanguageTool  = "languagetool"
	NameTranscription = "transcription"
	NameAudioFeatures = "audio_features"
	NamePerception    = "perception"
	NameNLP           = "nlp"
)

const maxErrorBody = 4 << 10

// Options configures one collaborator client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Breaker resilience.CircuitBreakerConfig
	Pool    resilience.PoolConfig

	Health   *resilience.DegradationManager
	Observer resilience.CallObserver
}

func (o Options) newPool(name string) *resilience.ConnectionPool {
	pool := resilience.NewConnectionPool(name, o.Pool, o.Timeout, resilience.NewCircuitBreaker(name, o.Breaker))
	if o.Health != nil {
		pool.WithHealth(o.Health)
	}
	if o.Observer != nil {
		pool.WithObserver(o.Observer)
	}
	return pool
}

// base is the shared plumbing behind every HTTP collaborator client.
type base struct {
	name    string
	baseURL string
	pool    *resilience.ConnectionPool
}

func newBase(name string, opts Options) base {
	return base{
		name:    name,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		pool:    opts.newPool(name),
	}
}

func (b base) url(path string) string {
	return b.baseURL + path
}

// Name returns the collaborator name
func (b base) Name() string {
	return b.name
}

// Breaker exposes the guarding circuit breaker for readiness checks
func (b base) Breaker() *resilience.CircuitBreaker {
	return b.pool.Breaker()
}

// GetStats returns connection pool statistics
func (b base) GetStats() map[string]interface{} {
	return b.pool.GetStats()
}

// Close releases idle connections
func (b base) Close() error {
	return b.pool.Close()
}

// Ping issues GET path and expects a 2xx answer; used as a health check.
func (b base) Ping(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url(path), nil)
	if err != nil {
		return errors.NewInternalError("failed to build health request", err)
	}
	resp, err := b.pool.Do(req)
	if err != nil {
		return b.fail(ctx, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewExternalAPIError(b.name, fmt.Errorf("health returned %s", resp.Status))
	}
	return nil
}

// do sends req and decodes a 200 JSON answer into out.
func (b base) do(ctx context.Context, req *http.Request, out interface{}) error {
	resp, err := b.pool.Do(req)
	if err != nil {
		return b.fail(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.NewExternalAPIError(b.name,
			fmt.Errorf("status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewExternalAPIError(b.name, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// postJSON marshals payload and POSTs it to path.
func (b base) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewInternalError("failed to encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url(path), bytes.NewReader(body))
	if err != nil {
		return errors.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return b.do(ctx, req, out)
}

// postFile uploads the file at path as multipart field to target.
// The body is streamed through a pipe so large media never sits in memory.
func (b base) postFile(ctx context.Context, target, field, path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.NewInternalError("failed to open upload", err)
	}
	defer errors.SafeClose(f, "upload file")

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile(field, filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url(target), pr)
	if err != nil {
		pr.Close()
		return errors.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	err = b.do(ctx, req, out)
	pr.Close()
	return err
}

// fail maps a transport-level failure onto an AppError.
func (b base) fail(ctx context.Context, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded ||
		(stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.NewTimeoutError(fmt.Sprintf("%s timed out", b.name), err)
	}
	var cbErr *resilience.CircuitBreakerError
	var httpErr *resilience.HTTPError
	if stderrors.As(err, &cbErr) || stderrors.As(err, &httpErr) {
		return errors.NewExternalAPIError(b.name, err)
	}
	return errors.NewNetworkError(fmt.Sprintf("%s unreachable", b.name), err)
}
