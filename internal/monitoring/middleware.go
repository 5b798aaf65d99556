package monitoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware reuses an inbound X-Request-ID or mints a new one
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// MonitoringMiddleware creates Gin middleware for request monitoring
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(statusCode)
		ObserveHTTP(method, c.FullPath(), statusCode, duration)

		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(c.GetString("request_id"), method, path, ip, userAgent, statusCode, duration)

		for _, err := range c.Errors {
			logger.APIErrorLogger(err.Err, method, path, ip, statusCode)
		}

		// media uploads are expected to be slow; only flag the outliers
		if duration > 30*time.Second {
			logger.PerformanceLogger("slow_request", duration.Seconds(), "seconds")
		}

		if statusCode >= 500 {
			logger.SystemLogger("server_error", fmt.Sprintf("Status %d for %s %s", statusCode, method, path))
		}
	}
}

// SecurityMonitoringMiddleware logs requests that look like scanners
func SecurityMonitoringMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userAgent := c.GetHeader("User-Agent")
		details := make(map[string]interface{})

		if containsInjectionPatterns(c.Request.URL.RawQuery) {
			details["type"] = "potential_injection"
			details["query"] = c.Request.URL.RawQuery
		}

		if containsSuspiciousUserAgent(userAgent) {
			details["type"] = "suspicious_user_agent"
			details["user_agent"] = userAgent
		}

		if len(details) > 0 {
			logger.SecurityLogger("suspicious_activity_detected", c.ClientIP(), userAgent, details)
		}

		c.Next()
	}
}

func containsInjectionPatterns(query string) bool {
	patterns := []string{
		"union select",
		"union all",
		"select * from",
		"drop table",
		"delete from",
		"';--",
		"<script",
		"../",
	}

	lower := strings.ToLower(query)
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func containsSuspiciousUserAgent(userAgent string) bool {
	suspiciousAgents := []string{
		"sqlmap",
		"nmap",
		"masscan",
		"zmap",
		"dirbuster",
		"gobuster",
		"nikto",
		"acunetix",
		"nessus",
	}

	lower := strings.ToLower(userAgent)
	for _, agent := range suspiciousAgents {
		if strings.Contains(lower, agent) {
			return true
		}
	}
	return false
}
