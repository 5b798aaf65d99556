package security

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
)

// SanitizedTextKey holds the cleaned text set by ValidateTextRequest
const SanitizedTextKey = "sanitized_text"

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxTextLength     int           `json:"max_text_length"`
	MaxUploadBytes    int64         `json:"max_upload_bytes"`
	MaxJSONBytes      int64         `json:"max_json_bytes"`
	MaxRequestsPerMin int           `json:"max_requests_per_min"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	EnableHSTS        bool          `json:"enable_hsts"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxTextLength:     20000,
		MaxUploadBytes:    100 << 20,
		MaxJSONBytes:      16 << 20,
		MaxRequestsPerMin: 60,
		RequestTimeout:    120 * time.Second,
	}
}

// ConfigFrom derives the security settings from the service config
func ConfigFrom(cfg *config.Config) SecurityConfig {
	sc := DefaultSecurityConfig()
	if cfg.MaxTextLength > 0 {
		sc.MaxTextLength = cfg.MaxTextLength
	}
	if cfg.MaxUploadBytes > 0 {
		sc.MaxUploadBytes = cfg.MaxUploadBytes
	}
	if cfg.RateLimitRPM > 0 {
		sc.MaxRequestsPerMin = cfg.RateLimitRPM
	}
	if cfg.RequestTimeout > 0 {
		sc.RequestTimeout = cfg.RequestTimeout
	}
	sc.EnableHSTS = config.GetEnv("ENABLE_HSTS", "") == "true"
	return sc
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SecurityMiddleware provides comprehensive security middleware
type SecurityMiddleware struct {
	config SecurityConfig

	mu         sync.Mutex
	ipLimiters map[string]*ipLimiter
	shared     SharedLimiter

	// OnBlock is called for every rejected request, for metrics and logs
	OnBlock func(ip string)
	// OnSharedError is called when the shared store fails and the
	// in-process limiter decides instead
	OnSharedError func(ip string, err error)
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	if config.MaxRequestsPerMin <= 0 {
		config.MaxRequestsPerMin = DefaultSecurityConfig().MaxRequestsPerMin
	}
	return &SecurityMiddleware{
		config:     config,
		ipLimiters: make(map[string]*ipLimiter),
	}
}

var (
	scriptPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	blankRun       = regexp.MustCompile(`[ \t]+`)
)

// ValidateText checks a text submission for size and encoding problems.
// Prose is free-form, so there is no pattern blacklist here.
func (sm *SecurityMiddleware) ValidateText(input string) error {
	if utf8.RuneCountInString(input) > sm.config.MaxTextLength {
		return fmt.Errorf("text exceeds maximum length of %d characters", sm.config.MaxTextLength)
	}

	if strings.Contains(input, "\x00") {
		return fmt.Errorf("text contains invalid characters")
	}

	if !utf8.ValidString(input) {
		return fmt.Errorf("text contains invalid UTF-8 encoding")
	}

	return nil
}

// SanitizeInput strips markup from pasted text and squeezes runs of blanks.
// Line breaks survive; they separate paragraphs.
func (sm *SecurityMiddleware) SanitizeInput(input string) string {
	input = scriptPattern.ReplaceAllString(input, "")
	input = htmlTagPattern.ReplaceAllString(input, "")

	htmlEntities := map[string]string{
		"&lt;":   "<",
		"&gt;":   ">",
		"&quot;": "\"",
		"&#x27;": "'",
		"&#39;":  "'",
		"&nbsp;": " ",
	}
	for entity, char := range htmlEntities {
		input = strings.ReplaceAll(input, entity, char)
	}
	// last, so "&amp;lt;" decodes to "&lt;" and not "<"
	input = strings.ReplaceAll(input, "&amp;", "&")

	input = blankRun.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// UseShared routes rate limit decisions through a store shared across
// replicas. The in-process limiter stays as the fallback.
func (sm *SecurityMiddleware) UseShared(l SharedLimiter) {
	sm.shared = l
}

// RateLimitByIP implements per-IP rate limiting
func (sm *SecurityMiddleware) RateLimitByIP(c *gin.Context) {
	clientIP := c.ClientIP()

	if !sm.allow(c.Request.Context(), clientIP) {
		if sm.OnBlock != nil {
			sm.OnBlock(clientIP)
		}
		c.Header("Retry-After", "60")
		errors.Respond(c, errors.NewRateLimitError("60"))
		return
	}

	c.Next()
}

func (sm *SecurityMiddleware) allow(ctx context.Context, ip string) bool {
	if sm.shared != nil {
		ok, err := sm.shared.Allow(ctx, ip, sm.config.MaxRequestsPerMin)
		if err == nil {
			return ok
		}
		if sm.OnSharedError != nil {
			sm.OnSharedError(ip, err)
		}
	}
	return sm.limiterFor(ip).Allow()
}

func (sm *SecurityMiddleware) limiterFor(ip string) *rate.Limiter {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	entry, ok := sm.ipLimiters[ip]
	if !ok {
		perMin := sm.config.MaxRequestsPerMin
		// burst is half a minute's quota, at least 5
		burst := max(perMin/2, 5)
		entry = &ipLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), burst)}
		sm.ipLimiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// SecurityHeaders adds security headers to responses. The swagger UI
// runs inline scripts, so it is exempt from the API's strict CSP.
func (sm *SecurityMiddleware) SecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("X-XSS-Protection", "1; mode=block")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

	if sm.config.EnableHSTS || c.Request.TLS != nil {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	if !strings.HasPrefix(c.Request.URL.Path, "/swagger") {
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'")
	}

	c.Next()
}

// ValidateContentType validates request content type
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
		c.Next()
		return
	}

	contentType := strings.ToLower(c.GetHeader("Content-Type"))
	allowedTypes := []string{
		"application/json",
		"multipart/form-data",
	}

	if contentType != "" {
		found := false
		for _, allowed := range allowedTypes {
			if strings.Contains(contentType, allowed) {
				found = true
				break
			}
		}

		if !found {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error": "unsupported content type",
			})
			return
		}
	}

	c.Next()
}

// LimitBody caps the request body at n bytes; reads past it fail and the
// handler reports a validation error.
func LimitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			errors.Respond(c, errors.NewValidationError(
				fmt.Sprintf("request body exceeds %d bytes", n)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// UploadLimit caps multipart media uploads
func (sm *SecurityMiddleware) UploadLimit() gin.HandlerFunc {
	return LimitBody(sm.config.MaxUploadBytes)
}

// JSONLimit caps JSON request bodies
func (sm *SecurityMiddleware) JSONLimit() gin.HandlerFunc {
	return LimitBody(sm.config.MaxJSONBytes)
}

// RequestTimeout enforces request timeout
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// TextRequest is the body of a text analysis call
type TextRequest struct {
	Text string `json:"text"`
}

// ValidateTextRequest binds a TextRequest, sanitizes and validates its text
// and stores the result under SanitizedTextKey.
func (sm *SecurityMiddleware) ValidateTextRequest(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.Respond(c, errors.NewValidationError("invalid JSON format", err.Error()))
		return
	}

	if err := sm.ValidateText(req.Text); err != nil {
		errors.Respond(c, errors.NewValidationError(fmt.Sprintf("text validation failed: %v", err)))
		return
	}

	req.Text = sm.SanitizeInput(req.Text)
	if req.Text == "" {
		errors.Respond(c, errors.NewValidationError("Text is required"))
		return
	}

	c.Set(SanitizedTextKey, req.Text)
	c.Next()
}

// Cleanup drops limiters idle for longer than idle, every interval, until ctx is done
func (sm *SecurityMiddleware) Cleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sm.cleanupOldLimiters(idle)
			}
		}
	}()
}

// cleanupOldLimiters removes rate limiters for IPs that haven't been seen recently
func (sm *SecurityMiddleware) cleanupOldLimiters(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for ip, entry := range sm.ipLimiters {
		if entry.lastSeen.Before(cutoff) {
			delete(sm.ipLimiters, ip)
			removed++
		}
	}
	return removed
}

// TrackedIPs returns the number of IPs with a live limiter
func (sm *SecurityMiddleware) TrackedIPs() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.ipLimiters)
}
