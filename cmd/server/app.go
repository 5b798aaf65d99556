package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/clients"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/lexicon"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/monitoring"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/resilience"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/security"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/text"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/video"
)

const version = "1.0.0"

type featureExtractor interface {
	Extract(ctx context.Context, path string, chunkSeconds float64) (clients.AudioFeatures, error)
}

type videoExtractor interface {
	Extract(ctx context.Context, path string, frameSkip int) (video.ProcessedVideo, error)
}

// App holds everything the HTTP handlers need. Scoring state is read-only
// after construction, so handlers run concurrently without locking.
type App struct {
	cfg        *config.Config
	thresholds config.Thresholds
	lexicon    *lexicon.Lexicon

	grammar        text.GrammarChecker
	grammarBreaker *resilience.CircuitBreaker
	parser         text.Parser
	transcriber    clients.Transcriber
	features       featureExtractor
	perception     videoExtractor

	health   *resilience.DegradationManager
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	system   *monitoring.SystemMonitor
	security *security.SecurityMiddleware
	pools    map[string]func() map[string]interface{}
}

// NewApp wires an App from a collaborator set.
func NewApp(cfg *config.Config, th config.Thresholds, lex *lexicon.Lexicon, set *clients.Set,
	dm *resilience.DegradationManager, metrics *monitoring.Metrics, logger *monitoring.Logger) *App {
	sec := security.NewSecurityMiddleware(security.ConfigFrom(cfg))
	sec.OnBlock = func(ip string) {
		metrics.IncrementRateLimitIPBlock()
		monitoring.ObserveRateLimitBlock()
		logger.SecurityLogger("rate_limit_block", ip, "", nil)
	}
	sec.OnSharedError = func(ip string, err error) {
		metrics.IncrementRateLimitStoreError()
		logger.Warn("Shared rate limit store failed, using in-process limiter", "ip", ip, "error", err)
	}

	return &App{
		cfg:            cfg,
		thresholds:     th,
		lexicon:        lex,
		grammar:        set.Grammar,
		grammarBreaker: set.Grammar.Breaker(),
		parser:         set.TextParser(),
		transcriber:    set.Transcriber,
		features:       set.Features,
		perception:     set.Perception,
		health:         dm,
		metrics:        metrics,
		logger:         logger,
		security:       sec,
		pools: map[string]func() map[string]interface{}{
			clients.NameLanguageTool:  set.Grammar.GetStats,
			clients.NameAudioFeatures: set.Features.GetStats,
			clients.NamePerception:    set.Perception.GetStats,
		},
	}
}

// useRateLimitStore shares rate limits through Redis and reports the
// store alongside the collaborators.
func (a *App) useRateLimitStore(store *security.RedisLimiter) {
	a.security.UseShared(store)
	a.health.RegisterService("redis", store.HealthCheck)
	a.pools["redis"] = store.PoolStats
}

// Router builds the gin engine with the full middleware chain.
func (a *App) Router() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(a.metrics, a.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(a.logger))

	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", monitoring.RequestIDHeader},
		ExposeHeaders:    []string{monitoring.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(a.security.SecurityHeaders)
	r.Use(a.security.RequestTimeout)
	r.Use(a.security.ValidateContentType)

	r.GET("/health", a.handleHealth)
	r.GET("/ready", a.handleReady)
	r.GET("/metrics", gin.WrapH(monitoring.PrometheusHandler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limited := r.Group("/", a.security.RateLimitByIP)
	jsonBody := a.security.JSONLimit()
	upload := a.security.UploadLimit()

	v := limited.Group("/video")
	v.POST("/score", jsonBody, a.handleVideoScore)
	v.POST("/analyze", upload, a.handleVideoAnalyze)

	s := limited.Group("/speech")
	s.POST("/score", jsonBody, a.handleSpeechScore)
	s.POST("/analyze", upload, a.handleSpeechAnalyze)
	s.POST("/evaluate-feature", upload, a.handleEvaluateFeature)
	s.POST("/tone-practice", jsonBody, a.handleTonePractice)

	limited.POST("/text/analyze", jsonBody, a.security.ValidateTextRequest, a.handleTextAnalyze)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "path": c.Request.URL.Path})
	})

	return r
}
