package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"

	// Structured generation pipeline
	ErrorTypeGeneration ErrorType = "generation"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeCache      ErrorType = "cache"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeNotFound   ErrorType = "not_found"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewNetworkError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// NewGenerationError reports a failed or timed out call to the text model.
func NewGenerationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeGeneration, code, message, cause)
}

// NewExtractionError reports model output that did not contain parseable JSON.
// The reason is both the error code and a context entry.
func NewExtractionError(reason, message string, cause error) *AppError {
	return newAppError(ErrorTypeExtraction, reason, message, cause).WithContext("reason", reason)
}

// NewCacheError wraps any failure that happened inside a get-or-create.
func NewCacheError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeCache, code, message, cause)
}

func NewStorageError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeStorage, code, message, cause)
}

func NewNotFoundError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNotFound, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// HasType reports whether any AppError in err's chain has the given type.
func HasType(err error, typ ErrorType) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Type == typ {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// As returns the outermost AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// RootCause returns the innermost AppError in err's chain, or nil.
func RootCause(err error) *AppError {
	var last *AppError
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			break
		}
		last = appErr
		err = appErr.Cause
	}
	return last
}

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new structured logger
func NewLogger(level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return &Logger{logger: slog.New(handler)}
}

// NewNopLogger returns a logger that discards everything. Used by tests.
func NewNopLogger() *Logger {
	return &Logger{logger: slog.New(slog.DiscardHandler)}
}

// LogError logs an application error with appropriate level and context
func (l *Logger) LogError(err error, message string, args ...any) {
	appErr, ok := As(err)
	if !ok {
		logArgs := append([]any{"error", err.Error()}, args...)
		l.logger.Error(message, logArgs...)
		return
	}

	logArgs := []any{
		"error_type", appErr.Type,
		"error_code", appErr.Code,
		"error_message", appErr.Message,
	}
	for key, value := range appErr.Context {
		logArgs = append(logArgs, key, value)
	}
	if root := RootCause(appErr); root != nil && root != appErr {
		logArgs = append(logArgs, "root_type", root.Type, "root_code", root.Code)
	}
	if appErr.Cause != nil {
		logArgs = append(logArgs, "cause", appErr.Cause.Error())
	}
	logArgs = append(logArgs, args...)

	l.logger.Error(message, logArgs...)
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// Slog exposes the underlying slog logger for libraries that accept one.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// New creates a new logger instance
func New(level string) (*Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	return NewLogger(slogLevel), nil
}

// Common error codes
const (
	ErrCodeFileNotFound    = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat   = "INVALID_FORMAT"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeMissingAPIKey   = "MISSING_API_KEY"
	ErrCodeInvalidConfig   = "INVALID_CONFIG"
	ErrCodeNetworkFailure  = "NETWORK_FAILURE"

	ErrCodeAIServiceFailed   = "AI_SERVICE_FAILED"
	ErrCodeAITimeout         = "AI_TIMEOUT"
	ErrCodeAIUpstreamStatus  = "AI_UPSTREAM_STATUS"
	ErrCodeAIMalformedOutput = "AI_MALFORMED_ENVELOPE"
	ErrCodeAICircuitOpen     = "AI_CIRCUIT_OPEN"

	// Extraction reasons
	ReasonNoJSONFound = "no-json-found"
	ReasonParseError  = "parse-error"

	ErrCodeSchemaMissingField = "SCHEMA_MISSING_FIELD"
	ErrCodeSchemaInvalidType  = "SCHEMA_INVALID_TYPE"
	ErrCodeSchemaInvalidEnum  = "SCHEMA_INVALID_ENUM"
	ErrCodeSchemaOutOfBounds  = "SCHEMA_OUT_OF_BOUNDS"
	ErrCodeSchemaDecode       = "SCHEMA_DECODE_FAILED"

	ErrCodeCacheLookup     = "CACHE_LOOKUP_FAILED"
	ErrCodeCacheHeal       = "CACHE_HEAL_FAILED"
	ErrCodeCacheGenerate   = "CACHE_GENERATE_FAILED"
	ErrCodeCacheInsert     = "CACHE_INSERT_FAILED"
	ErrCodeCacheResolve    = "CACHE_CONFLICT_UNRESOLVED"
	ErrCodeCacheBadPayload = "CACHE_PAYLOAD_INVALID"

	ErrCodeDatabase     = "DATABASE_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeEmptySession = "EMPTY_SESSION"
	ErrCodeInvalidScale = "INVALID_SCALE"
)
