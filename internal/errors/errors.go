// Package errors defines the closed error taxonomy used across the ingestion pipeline,
// query engine, and analyzer, together with the HTTP status each kind maps to.
package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorType is the closed set of error kinds this system distinguishes.
type ErrorType int

const (
	ErrorTypeParse ErrorType = iota
	ErrorTypeDatabaseConnection
	ErrorTypeDatabaseQuery
	ErrorTypeDatabaseQueryTimeout
	ErrorTypeEmbeddingGeneration
	ErrorTypeRateLimitExceeded
	ErrorTypeInvalidRequest
	ErrorTypeProjectNotFound
	ErrorTypeEntityNotFound
	ErrorTypeFileSizeExceeded
	ErrorTypeSandboxBlocked
	ErrorTypeInternal
)

// Severity represents how critical an error is.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// Error is a structured error carrying an ErrorType, severity, and optional context.
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Cause      error
	Context    map[string]any
	StackTrace string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext attaches a context key/value and returns the same error for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Is reports whether target is an *Error of the same Type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsFatal reports whether this error should stop the current operation entirely.
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// HTTPStatus maps the error's Type to the status code an external HTTP surface would use.
// The mapping is fixed and carried here even though no HTTP transport lives in this repo.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeParse, ErrorTypeInvalidRequest:
		return 400
	case ErrorTypeDatabaseConnection:
		return 503
	case ErrorTypeDatabaseQuery:
		return 500
	case ErrorTypeDatabaseQueryTimeout:
		return 504
	case ErrorTypeRateLimitExceeded:
		return 429
	case ErrorTypeProjectNotFound, ErrorTypeEntityNotFound:
		return 404
	case ErrorTypeFileSizeExceeded:
		return 413
	case ErrorTypeSandboxBlocked:
		return 403
	case ErrorTypeEmbeddingGeneration, ErrorTypeInternal:
		return 500
	default:
		return 500
	}
}

// Code returns the short machine-readable code external callers key errors on.
func (e *Error) Code() string {
	switch e.Type {
	case ErrorTypeParse:
		return "PARSE_ERROR"
	case ErrorTypeDatabaseConnection:
		return "DB_CONNECTION_ERROR"
	case ErrorTypeDatabaseQuery:
		return "DB_QUERY_ERROR"
	case ErrorTypeDatabaseQueryTimeout:
		return "DB_QUERY_TIMEOUT"
	case ErrorTypeEmbeddingGeneration:
		return "EMBEDDING_GENERATION_ERROR"
	case ErrorTypeRateLimitExceeded:
		return "RATE_LIMIT_EXCEEDED"
	case ErrorTypeInvalidRequest:
		return "INVALID_REQUEST"
	case ErrorTypeProjectNotFound:
		return "PROJECT_NOT_FOUND"
	case ErrorTypeEntityNotFound:
		return "ENTITY_NOT_FOUND"
	case ErrorTypeFileSizeExceeded:
		return "FILE_SIZE_EXCEEDED"
	case ErrorTypeSandboxBlocked:
		return "SANDBOX_BLOCKED"
	default:
		return "INTERNAL_ERROR"
	}
}

// DetailedString renders the error with its cause and context, for logs.
func (e *Error) DetailedString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s\n", e.Code(), e.Message))
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("caused by: %v\n", e.Cause))
	}
	for k, v := range e.Context {
		sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
	}
	return sb.String()
}

func captureStackTrace(skip int) string {
	var sb strings.Builder
	for i := skip; i < skip+8; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			break
		}
		sb.WriteString(fmt.Sprintf("  %s:%d %s\n", file, line, fn.Name()))
	}
	return sb.String()
}

// New creates a new Error of the given type/severity.
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{Type: errType, Severity: severity, Message: message, StackTrace: captureStackTrace(2)}
}

// Wrap wraps an existing error, preserving it as Cause. Returns nil if err is nil.
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Type: errType, Severity: severity, Message: message, Cause: err, StackTrace: captureStackTrace(2)}
}

// Convenience constructors, one per error kind.

func ParseError(message string) *Error {
	return New(ErrorTypeParse, SeverityLow, message)
}

func ParseErrorf(format string, args ...any) *Error {
	return New(ErrorTypeParse, SeverityLow, fmt.Sprintf(format, args...))
}

func DatabaseConnectionError(err error, message string) *Error {
	return Wrap(err, ErrorTypeDatabaseConnection, SeverityHigh, message)
}

func DatabaseQueryError(err error, message string) *Error {
	return Wrap(err, ErrorTypeDatabaseQuery, SeverityHigh, message)
}

func DatabaseQueryTimeout(err error, message string) *Error {
	return Wrap(err, ErrorTypeDatabaseQueryTimeout, SeverityMedium, message)
}

func EmbeddingGenerationError(err error, message string) *Error {
	return Wrap(err, ErrorTypeEmbeddingGeneration, SeverityMedium, message)
}

func RateLimitExceeded(message string) *Error {
	return New(ErrorTypeRateLimitExceeded, SeverityLow, message)
}

func InvalidRequest(message string) *Error {
	return New(ErrorTypeInvalidRequest, SeverityLow, message)
}

func InvalidRequestf(format string, args ...any) *Error {
	return New(ErrorTypeInvalidRequest, SeverityLow, fmt.Sprintf(format, args...))
}

func ProjectNotFound(projectID string) *Error {
	return New(ErrorTypeProjectNotFound, SeverityLow, fmt.Sprintf("project not found: %s", projectID))
}

func EntityNotFound(entityID string) *Error {
	return New(ErrorTypeEntityNotFound, SeverityLow, fmt.Sprintf("entity not found: %s", entityID))
}

func FileSizeExceeded(message string) *Error {
	return New(ErrorTypeFileSizeExceeded, SeverityLow, message)
}

func SandboxBlocked(message string) *Error {
	return New(ErrorTypeSandboxBlocked, SeverityMedium, message)
}

func InternalError(message string) *Error {
	return New(ErrorTypeInternal, SeverityCritical, message)
}

func InternalErrorf(format string, args ...any) *Error {
	return New(ErrorTypeInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// IsFatal reports whether err is a fatal *Error.
func IsFatal(err error) bool {
	e, ok := err.(*Error)
	return ok && e.IsFatal()
}

// IsTransient reports whether err should be retried by a store adapter's retry policy.
func IsTransient(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Type == ErrorTypeDatabaseConnection || e.Type == ErrorTypeDatabaseQueryTimeout
}
