package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Transcription backends selectable at startup.
const (
	BackendHTTP     = "http"
	BackendDeepgram = "deepgram"
	BackendNone     = "none"
)

// Config holds all configuration for the scoring service
type Config struct {
	// Server configuration
	Port           string        `envconfig:"PORT" default:"8080"`
	GinMode        string        `envconfig:"GIN_MODE" default:"release"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"120s"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"104857600"` // 100MB
	MaxTextLength  int           `envconfig:"MAX_TEXT_LENGTH" default:"20000"`
	RateLimitRPM   int           `envconfig:"RATE_LIMIT_RPM" default:"60"`
	TempDir        string        `envconfig:"TEMP_DIR" default:""`

	// Shared rate limit store; empty keeps limits per process
	RedisAddr     string `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Grammar checker (LanguageTool server)
	LanguageToolURL     string        `envconfig:"LANGUAGETOOL_URL" default:"http://localhost:8081"`
	LanguageToolTimeout time.Duration `envconfig:"LANGUAGETOOL_TIMEOUT" default:"20s"`
	LanguageToolLang    string        `envconfig:"LANGUAGETOOL_LANGUAGE" default:"en-US"`

	// Transcription backend: http, deepgram or none
	TranscriptionBackend string        `envconfig:"TRANSCRIPTION_BACKEND" default:"http"`
	TranscriptionURL     string        `envconfig:"TRANSCRIPTION_URL" default:"http://localhost:9000"`
	TranscriptionTimeout time.Duration `envconfig:"TRANSCRIPTION_TIMEOUT" default:"90s"`
	DeepgramAPIKey       string        `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel        string        `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramLanguage     string        `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`

	// Other collaborators
	AudioFeaturesURL     string        `envconfig:"AUDIO_FEATURES_URL" default:"http://localhost:9001"`
	AudioFeaturesTimeout time.Duration `envconfig:"AUDIO_FEATURES_TIMEOUT" default:"60s"`
	PerceptionURL        string        `envconfig:"PERCEPTION_URL" default:"http://localhost:9002"`
	PerceptionTimeout    time.Duration `envconfig:"PERCEPTION_TIMEOUT" default:"180s"`
	NLPURL               string        `envconfig:"NLP_URL" default:""` // empty disables the parse collaborator
	NLPTimeout           time.Duration `envconfig:"NLP_TIMEOUT" default:"15s"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int           `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout time.Duration `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30s"`
	ProbeMaxAttempts           int           `envconfig:"PROBE_MAX_ATTEMPTS" default:"3"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`

	// Scoring thresholds override file (YAML)
	ThresholdsFile string `envconfig:"THRESHOLDS_FILE" default:""`
	// Optional word list replacing the embedded pronunciation vocabulary
	LexiconFile string `envconfig:"LEXICON_FILE" default:""`
}

// Load reads configuration from environment variables.
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that envconfig cannot express.
func (c *Config) Validate() error {
	c.TranscriptionBackend = strings.ToLower(strings.TrimSpace(c.TranscriptionBackend))
	switch c.TranscriptionBackend {
	case BackendHTTP:
		if c.TranscriptionURL == "" {
			return fmt.Errorf("TRANSCRIPTION_URL is required for the http transcription backend")
		}
	case BackendDeepgram:
		if c.DeepgramAPIKey == "" {
			return fmt.Errorf("DEEPGRAM_API_KEY is required for the deepgram transcription backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("unknown TRANSCRIPTION_BACKEND %q", c.TranscriptionBackend)
	}
	if c.LanguageToolTimeout <= 0 {
		return fmt.Errorf("LANGUAGETOOL_TIMEOUT must be positive")
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
