// @title           Expressly Scorer API
// @version         1.0.0
// @description     Rule-based scoring of recorded video, speech and written text.
// @BasePath        /
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/ZanzyTHEbar/expressly-scorer/docs"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/clients"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/lexicon"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/monitoring"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/resilience"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logging setup
	appLogger := monitoring.NewLoggerWithLevel(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(appLogger.Logger)
	gin.SetMode(cfg.GinMode)

	thresholds, err := config.LoadThresholds(cfg.ThresholdsFile)
	if err != nil {
		slog.Error("Failed to load scoring thresholds", "file", cfg.ThresholdsFile, "error", err)
		os.Exit(1)
	}

	lex := lexicon.Default()
	if cfg.LexiconFile != "" {
		if lex, err = lexicon.LoadFile(cfg.LexiconFile); err != nil {
			slog.Error("Failed to load lexicon", "file", cfg.LexiconFile, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("Lexicon loaded", "words", lex.Size())

	appMetrics := monitoring.NewMetrics()
	health := resilience.NewDegradationManager(resilience.DefaultDegradationConfig())

	set, err := clients.NewSet(cfg, clients.Options{
		Health:   health,
		Observer: collaboratorObserver(appMetrics, appLogger),
		Breaker: resilience.CircuitBreakerConfig{
			OnStateChange: breakerObserver(appMetrics, appLogger),
		},
	})
	if err != nil {
		slog.Error("Failed to build collaborator clients", "error", err)
		os.Exit(1)
	}

	app := NewApp(cfg, thresholds, lex, set, health, appMetrics, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RedisAddr != "" {
		store, err := security.NewRedisLimiter(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("Redis unavailable, rate limiting stays in-process", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer store.Close()
			app.useRateLimitStore(store)
		}
	}

	if cfg.MetricsEnabled {
		app.system = monitoring.NewSystemMonitor(15*time.Second, app.tempDir(), appMetrics, appLogger)
		app.system.Start()
	}
	app.security.Cleanup(ctx, 5*time.Minute, 30*time.Minute)

	go health.StartHealthChecks(ctx)
	go probeCollaborators(ctx, health, cfg.ProbeMaxAttempts)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if app.system != nil {
		app.system.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		set.Close()
		os.Exit(1)
	}
	set.Close()

	slog.Info("Server exited")
}

func collaboratorObserver(metrics *monitoring.Metrics, logger *monitoring.Logger) resilience.CallObserver {
	return func(name string, statusCode int, duration time.Duration, err error) {
		success := err == nil
		logger.CollaboratorLogger(name, http.MethodPost, name, statusCode, duration, success)
		metrics.RecordCollaboratorRequest(name, success)
		monitoring.ObserveCollaborator(name, success, duration)
	}
}

func breakerObserver(metrics *monitoring.Metrics, logger *monitoring.Logger) func(string, resilience.CircuitBreakerState, resilience.CircuitBreakerState) {
	return func(name string, from, to resilience.CircuitBreakerState) {
		monitoring.SetBreakerState(name, int(to))
		switch to {
		case resilience.StateOpen:
			metrics.IncrementCircuitBreakerOpen()
		case resilience.StateClosed:
			metrics.IncrementCircuitBreakerClose()
		}
		logger.Warn("Circuit breaker state changed",
			"service", name,
			"from", from.String(),
			"to", to.String())
	}
}

// probeCollaborators runs the health checks once at startup, retrying with
// backoff while any collaborator is still coming up.
func probeCollaborators(ctx context.Context, dm *resilience.DegradationManager, attempts int) {
	err := resilience.RetryWithBackoff(ctx, attempts, time.Second, func() error {
		for name, err := range dm.CheckNow(ctx) {
			if err != nil {
				slog.Warn("Collaborator not ready", "service", name, "error", err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Warn("Starting with unavailable collaborators", "error", err)
		return
	}
	slog.Info("All collaborators ready")
}
