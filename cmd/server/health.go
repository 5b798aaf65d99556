package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/monitoring"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/resilience"
)

// handleHealth godoc
// @Summary      Service health
// @Description  Collaborator health, request metrics, host stats and the active transcription backend.
// @Tags         ops
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (a *App) handleHealth(c *gin.Context) {
	services := a.health.GetAllServiceHealth()

	var system monitoring.SystemStats
	if a.system != nil {
		system = a.system.Latest()
	} else {
		system = monitoring.CollectSystemStats(c.Request.Context(), a.tempDir())
	}

	pools := make(map[string]interface{}, len(a.pools))
	for name, stats := range a.pools {
		pools[name] = stats()
	}

	healthResponse := gin.H{
		"status":                "ok",
		"timestamp":             time.Now().Format(time.RFC3339),
		"version":               version,
		"services":              services,
		"metrics":               a.metrics.GetStats(),
		"system":                system,
		"transcription_backend": a.transcriber.Backend(),
		"pools":                 pools,
	}

	for _, service := range services {
		if service.Level == resilience.LevelEmergency {
			healthResponse["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, healthResponse)
			return
		}
	}

	c.JSON(http.StatusOK, healthResponse)
}

// handleReady godoc
// @Summary      Readiness
// @Description  503 while no transcription backend is usable or the grammar checker's breaker is open.
// @Tags         ops
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /ready [get]
func (a *App) handleReady(c *gin.Context) {
	var problems []string
	if !a.transcriber.Available() {
		problems = append(problems, "transcription backend unavailable")
	}
	if a.grammarBreaker != nil && a.grammarBreaker.State() == resilience.StateOpen {
		problems = append(problems, "grammar checker circuit open")
	}

	if len(problems) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ready":    false,
			"problems": problems,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
