package clients

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	restinterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/resilience"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/speech"
)

// Transcriber turns an audio file into a transcript with word timings.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (speech.TranscriptionResult, error)
	// Backend names the strategy: http, deepgram or none.
	Backend() string
	// Available reports whether the backend can take requests at all.
	Available() bool
	HealthCheck(ctx context.Context) error
}

// NewTranscriber picks the strategy named by cfg.TranscriptionBackend.
// opts supplies the shared breaker, health and observer settings.
func NewTranscriber(cfg *config.Config, opts Options) (Transcriber, error) {
	opts.Timeout = cfg.TranscriptionTimeout

	switch cfg.TranscriptionBackend {
	case config.BackendHTTP:
		opts.BaseURL = cfg.TranscriptionURL
		return NewHTTPTranscriber(opts), nil
	case config.BackendDeepgram:
		return NewDeepgramTranscriber(cfg.DeepgramAPIKey, cfg.DeepgramModel, cfg.DeepgramLanguage, opts), nil
	case config.BackendNone, "":
		return UnavailableTranscriber{}, nil
	default:
		return nil, errors.NewConfigurationError(
			fmt.Sprintf("unknown transcription backend %q", cfg.TranscriptionBackend), nil)
	}
}

// HTTPTranscriber posts audio to a whisper-style /transcribe endpoint.
type HTTPTranscriber struct {
	base
}

func NewHTTPTranscriber(opts Options) *HTTPTranscriber {
	return &HTTPTranscriber{base: newBase(NameTranscription, opts)}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, path string) (speech.TranscriptionResult, error) {
	var res speech.TranscriptionResult
	if err := t.postFile(ctx, "/transcribe", "audio", path, &res); err != nil {
		return speech.TranscriptionResult{}, err
	}
	res.Backend = config.BackendHTTP
	return res, nil
}

func (t *HTTPTranscriber) Backend() string { return config.BackendHTTP }

func (t *HTTPTranscriber) Available() bool { return true }

func (t *HTTPTranscriber) HealthCheck(ctx context.Context) error {
	return t.Ping(ctx, "/health")
}

// prerecorded is the slice of the Deepgram REST client we call.
type prerecorded interface {
	FromStream(ctx context.Context, src io.Reader, options *interfaces.PreRecordedTranscriptionOptions) (*restinterfaces.PreRecordedResponse, error)
}

// DeepgramTranscriber uses Deepgram's prerecorded REST API.
type DeepgramTranscriber struct {
	dg      prerecorded
	options *interfaces.PreRecordedTranscriptionOptions
	timeout time.Duration
	breaker *resilience.CircuitBreaker
	health  *resilience.DegradationManager
	observe resilience.CallObserver
}

func NewDeepgramTranscriber(apiKey, model, language string, opts Options) *DeepgramTranscriber {
	dg := api.New(listenClient.NewREST(apiKey, &interfaces.ClientOptions{}))
	return newDeepgramTranscriber(dg, model, language, opts)
}

func newDeepgramTranscriber(dg prerecorded, model, language string, opts Options) *DeepgramTranscriber {
	return &DeepgramTranscriber{
		dg: dg,
		options: &interfaces.PreRecordedTranscriptionOptions{
			Model:       model,
			Language:    language,
			Punctuate:   true,
			SmartFormat: true,
			Utterances:  true,
		},
		timeout: opts.Timeout,
		breaker: resilience.NewCircuitBreaker(NameTranscription, opts.Breaker),
		health:  opts.Health,
		observe: opts.Observer,
	}
}

func (d *DeepgramTranscriber) Transcribe(ctx context.Context, path string) (speech.TranscriptionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return speech.TranscriptionResult{}, errors.NewInternalError("failed to open audio", err)
	}
	defer errors.SafeClose(f, "audio file")

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var res *restinterfaces.PreRecordedResponse
	start := time.Now()
	err = d.breaker.Call(func() error {
		var callErr error
		res, callErr = d.dg.FromStream(ctx, f, d.options)
		return callErr
	})
	d.record(time.Since(start), err)

	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return speech.TranscriptionResult{}, errors.NewTimeoutError("deepgram transcription timed out", err)
		}
		return speech.TranscriptionResult{}, errors.NewExternalAPIError("deepgram", err)
	}
	return fromDeepgram(res), nil
}

func (d *DeepgramTranscriber) record(duration time.Duration, err error) {
	var open *resilience.CircuitBreakerError
	if d.health != nil && !stderrors.As(err, &open) {
		d.health.RecordRequest(NameTranscription, err == nil)
	}
	if d.observe != nil {
		status := 200
		if err != nil {
			status = 0
		}
		d.observe(NameTranscription, status, duration, err)
	}
}

func (d *DeepgramTranscriber) Backend() string { return config.BackendDeepgram }

func (d *DeepgramTranscriber) Available() bool { return true }

// HealthCheck reports the breaker state; Deepgram has no cheap probe.
func (d *DeepgramTranscriber) HealthCheck(ctx context.Context) error {
	if d.breaker.State() == resilience.StateOpen {
		return errors.NewExternalAPIError("deepgram", fmt.Errorf("circuit breaker is open"))
	}
	return nil
}

// fromDeepgram maps the first channel's best alternative. Utterances become
// segments; without them the whole transcript is one segment.
func fromDeepgram(res *restinterfaces.PreRecordedResponse) speech.TranscriptionResult {
	out := speech.TranscriptionResult{Backend: config.BackendDeepgram, Segments: []speech.Segment{}}
	if res == nil || res.Results == nil || len(res.Results.Channels) == 0 {
		return out
	}
	ch := res.Results.Channels[0]
	out.Language = ch.DetectedLanguage
	if len(ch.Alternatives) == 0 {
		return out
	}
	alt := ch.Alternatives[0]
	out.Text = strings.TrimSpace(alt.Transcript)

	if len(res.Results.Utterances) > 0 {
		for _, u := range res.Results.Utterances {
			seg := speech.Segment{Start: u.Start, End: u.End, Text: strings.TrimSpace(u.Transcript)}
			for _, w := range u.Words {
				seg.Words = append(seg.Words, speech.WordTimestamp{Word: w.Word, Start: w.Start, End: w.End})
			}
			out.Segments = append(out.Segments, seg)
		}
		return out
	}

	if len(alt.Words) == 0 {
		return out
	}
	seg := speech.Segment{Start: alt.Words[0].Start, End: alt.Words[len(alt.Words)-1].End, Text: out.Text}
	for _, w := range alt.Words {
		seg.Words = append(seg.Words, speech.WordTimestamp{Word: w.Word, Start: w.Start, End: w.End})
	}
	out.Segments = append(out.Segments, seg)
	return out
}

// UnavailableTranscriber is selected when no backend is configured.
type UnavailableTranscriber struct{}

func (UnavailableTranscriber) Transcribe(context.Context, string) (speech.TranscriptionResult, error) {
	return speech.TranscriptionResult{}, errNoBackend()
}

func (UnavailableTranscriber) Backend() string { return config.BackendNone }

func (UnavailableTranscriber) Available() bool { return false }

func (UnavailableTranscriber) HealthCheck(context.Context) error { return errNoBackend() }

func errNoBackend() error {
	return errors.NewExternalAPIError(NameTranscription, stderrors.New("no transcription backend configured"))
}
