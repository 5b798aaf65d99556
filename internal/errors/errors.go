package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryValidation       ErrorCategory = "validation"
	CategoryInsufficientData ErrorCategory = "insufficient_data"
	CategoryNetwork          ErrorCategory = "network"
	CategoryTimeout          ErrorCategory = "timeout"
	CategoryRateLimit        ErrorCategory = "rate_limit"
	CategoryInternal         ErrorCategory = "internal"
	CategoryExternalAPI      ErrorCategory = "external_api"
	CategoryConfiguration    ErrorCategory = "configuration"
)

// AppError wraps errbuilder error with the category used for HTTP rendering
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
	RequestID  string        `json:"request_id,omitempty"`
	StackTrace string        `json:"stack_trace,omitempty"`
}

// Error renders the "[CODE] message" format
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.codeName(), e.ErrBuilder.Msg)
}

func (e *AppError) codeName() string {
	codeStr := "UNKNOWN_ERROR"
	switch e.ErrBuilder.ErrCode() {
	case errbuilder.CodeInvalidArgument:
		codeStr = "VALIDATION_ERROR"
		if e.Category == CategoryInsufficientData {
			codeStr = "INSUFFICIENT_DATA"
		}
	case errbuilder.CodeUnavailable:
		codeStr = "COLLABORATOR_UNAVAILABLE"
	case errbuilder.CodeDeadlineExceeded:
		codeStr = "TIMEOUT_ERROR"
	case errbuilder.CodeResourceExhausted:
		codeStr = "RATE_LIMIT_EXCEEDED"
	case errbuilder.CodeInternal:
		codeStr = "INTERNAL_ERROR"
	case errbuilder.CodeFailedPrecondition:
		codeStr = "CONFIGURATION_ERROR"
	}
	return codeStr
}

// MarshalJSON renders the client-facing error body.
func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error      string        `json:"error"`
		Message    string        `json:"message"`
		Category   ErrorCategory `json:"category"`
		HTTPStatus int           `json:"http_status"`
		Timestamp  time.Time     `json:"timestamp"`
		RequestID  string        `json:"request_id,omitempty"`
		StackTrace string        `json:"stack_trace,omitempty"`
	}{
		Error:      e.codeName(),
		Message:    e.ErrBuilder.Msg,
		Category:   e.Category,
		HTTPStatus: e.HTTPStatus,
		Timestamp:  e.Timestamp,
		RequestID:  e.RequestID,
		StackTrace: e.StackTrace,
	})
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError creates a validation error using errbuilder
func NewValidationError(message string, details ...interface{}) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if len(details) > 0 {
		errorMap := errbuilder.ErrorMap{}
		errorMap.Set("validation_details", errors.New(fmt.Sprintf("%v", details[0])))
		builder = builder.WithDetails(errbuilder.NewErrDetails(errorMap))
	}

	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewInsufficientDataError marks a scorer input that is too sparse to score.
// Handlers never surface it; scorers turn it into a null score with reason.
func NewInsufficientDataError(reason string) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("reason", errors.New(reason))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(reason).
		WithDetails(errbuilder.NewErrDetails(errorMap))

	return NewAppError(builder, CategoryInsufficientData, http.StatusUnprocessableEntity)
}

// NewNetworkError creates a network error using errbuilder
func NewNetworkError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryNetwork, http.StatusBadGateway)
}

// NewTimeoutError creates a timeout error using errbuilder
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryTimeout, http.StatusGatewayTimeout)
}

// NewRateLimitError creates a rate limit error using errbuilder
func NewRateLimitError(retryAfter string) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("retry_after", errors.New(retryAfter))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	return NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
}

// NewExternalAPIError reports a collaborator (grammar server, transcriber,
// perception, audio features, NLP parse) that answered badly or not at all.
func NewExternalAPIError(apiName string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("api_name", errors.New(apiName))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(fmt.Sprintf("%s API error", apiName)).
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryExternalAPI, http.StatusBadGateway)
}

// NewInternalError creates an internal server error using errbuilder
func NewInternalError(message string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("internal_details", errors.New(message))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)

	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}

	return appErr
}

// NewConfigurationError creates a configuration error using errbuilder
func NewConfigurationError(message string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("config_details", errors.New(message))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("Configuration error").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryConfiguration, http.StatusInternalServerError)
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrorHandler is a Gin middleware that renders errors attached with c.Error
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		appErr.RequestID = c.GetString("request_id")
		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
	}
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", err),
			fmt.Errorf("%v", err),
		)
		appErr.StackTrace = captureStackTrace()
		appErr.RequestID = c.GetString("request_id")

		LogError(c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
	})
}

// Respond logs err and writes it as the JSON response.
func Respond(c *gin.Context, err error) {
	appErr := ToAppError(err)
	appErr.RequestID = c.GetString("request_id")
	LogError(c, appErr)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	if errors.Is(err, context.Canceled) {
		return NewTimeoutError("Request cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("Request deadline exceeded", err)
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "network is unreachable") {
		return NewNetworkError("Network connection failed", err)
	}

	if strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") {
		return NewTimeoutError("Request timeout", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// IsInsufficientData reports whether err marks an unscorable input.
func IsInsufficientData(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Category == CategoryInsufficientData
}

// IsCollaboratorFailure reports whether err came from an unreachable or
// misbehaving collaborator, as opposed to bad input or a bug.
func IsCollaboratorFailure(err error) bool {
	if err == nil {
		return false
	}
	switch ToAppError(err).Category {
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI:
		return true
	default:
		return false
	}
}

// LogError logs an error with appropriate level and context
func LogError(c *gin.Context, err *AppError) {
	errorMsg := err.ErrBuilder.Msg
	errorDetails := err.ErrBuilder.Details

	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString("request_id"),
	)

	switch err.Category {
	case CategoryValidation, CategoryRateLimit, CategoryInsufficientData:
		if len(errorDetails.Errors) > 0 {
			logEntry.Warn(errorMsg, "details", errorDetails.Errors)
		} else {
			logEntry.Warn(errorMsg)
		}
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Info(errorMsg, "cause", cause)
		} else {
			logEntry.Info(errorMsg)
		}
	default:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Error(errorMsg, "cause", cause)
		} else {
			logEntry.Error(errorMsg)
		}
	}

	if err.StackTrace != "" && (gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode) {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// IsRetryableError checks if an error should trigger a retry
func IsRetryableError(err error) bool {
	switch ToAppError(err).Category {
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI, CategoryRateLimit:
		return true
	default:
		return false
	}
}

// GetRetryDelay returns appropriate retry delay based on error type
func GetRetryDelay(err error, attempt int) time.Duration {
	baseDelay := time.Duration(100*attempt) * time.Millisecond

	switch ToAppError(err).Category {
	case CategoryRateLimit:
		return time.Duration(attempt*attempt) * time.Second
	case CategoryNetwork, CategoryTimeout:
		return baseDelay * time.Duration(1<<attempt)
	case CategoryExternalAPI:
		return baseDelay * time.Duration(attempt)
	default:
		return baseDelay
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(message, args...), err)
}

// SafeClose safely closes a resource and logs any errors
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}

// NewValidationErrorWithMap creates a validation error carrying one entry per field
func NewValidationErrorWithMap(validationErrors map[string]string) *AppError {
	errMap := errbuilder.ErrorMap{}

	for field, message := range validationErrors {
		errMap.Set(field, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(message))
	}

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("Multiple validation errors").
		WithDetails(errbuilder.NewErrDetails(errMap))

	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}
