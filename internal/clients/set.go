package clients

import (
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/resilience"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/text"
)

// Set holds one client per collaborator. Parser is nil when NLP_URL is
// empty, which leaves text parsing to the local tagger.
type Set struct {
	Grammar     *LanguageTool
	Transcriber Transcriber
	Features    *FeatureExtractor
	Perception  *Perception
	Parser      *NLPParser
}

// NewSet builds every collaborator client from cfg. common carries the
// health manager, call observer and breaker hooks shared by all clients;
// breaker thresholds come from cfg. Health checks are registered with
// common.Health when it is set.
func NewSet(cfg *config.Config, common Options) (*Set, error) {
	shared := common
	shared.Breaker.FailureThreshold = cfg.CircuitBreakerMaxFailures
	shared.Breaker.RecoveryTimeout = cfg.CircuitBreakerResetTimeout
	if shared.Pool == (resilience.PoolConfig{}) {
		shared.Pool = resilience.DefaultPoolConfig()
	}
	dm := common.Health
	endpoint := func(url string, timeout time.Duration) Options {
		o := shared
		o.BaseURL = url
		o.Timeout = timeout
		return o
	}

	transcriber, err := NewTranscriber(cfg, shared)
	if err != nil {
		return nil, err
	}

	s := &Set{
		Grammar:     NewLanguageTool(endpoint(cfg.LanguageToolURL, cfg.LanguageToolTimeout), cfg.LanguageToolLang),
		Transcriber: transcriber,
		Features:    NewFeatureExtractor(endpoint(cfg.AudioFeaturesURL, cfg.AudioFeaturesTimeout)),
		Perception:  NewPerception(endpoint(cfg.PerceptionURL, cfg.PerceptionTimeout)),
	}
	if cfg.NLPURL != "" {
		s.Parser = NewNLPParser(endpoint(cfg.NLPURL, cfg.NLPTimeout))
	}

	if dm != nil {
		dm.RegisterService(NameLanguageTool, s.Grammar.HealthCheck)
		dm.RegisterService(NameTranscription, transcriber.HealthCheck)
		dm.RegisterService(NameAudioFeatures, s.Features.HealthCheck)
		dm.RegisterService(NamePerception, s.Perception.HealthCheck)
		if s.Parser != nil {
			dm.RegisterService(NameNLP, s.Parser.HealthCheck)
		}
	}

	slog.Info("Collaborator clients ready",
		"transcription_backend", transcriber.Backend(),
		"nlp_parser", s.Parser != nil)
	return s, nil
}

// TextParser returns the parser as a text.Parser, nil when unconfigured.
func (s *Set) TextParser() text.Parser {
	if s.Parser == nil {
		return nil
	}
	return s.Parser
}

// Close releases idle connections on every pool.
func (s *Set) Close() {
	s.Grammar.Close()
	s.Features.Close()
	s.Perception.Close()
	if s.Parser != nil {
		s.Parser.Close()
	}
	if t, ok := s.Transcriber.(*HTTPTranscriber); ok {
		t.Close()
	}
}
