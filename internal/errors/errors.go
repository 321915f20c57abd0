// Package errors defines the typed error taxonomy surfaced by this
// module's API layer. Producing components (every component from the metric registry through the chat pipeline) return these
// values directly; only the HTTP/SSE adapters translate them into
// status codes and user-facing messages.
package errors

import "fmt"

// Code is a stable machine-readable error identifier, safe to log and
// to hand back to API callers.
type Code string

const (
	CodeValidationError      Code = "validation_error"
	CodeUnauthorizedMetric   Code = "unauthorized_metric"
	CodeUnsupportedSpec      Code = "unsupported_spec"
	CodeSqlValidationFailure Code = "sql_validation_failure"
	CodeBackendUnavailable   Code = "backend_unavailable"
	CodeTimeout              Code = "timeout"
	CodeToolBusy             Code = "tool_busy"
	CodeRateLimit            Code = "rate_limit"
	CodeEmptyResponse        Code = "empty_response"
	CodePermissionDenied     Code = "permission_denied"
	CodeNotFound             Code = "not_found"
	CodeInternal             Code = "internal_error"
	CodeBadRequest           Code = "bad_request"
)

// AppError is the typed error every component returns instead of a
// bare `error`. HTTPStatus carries the HTTP-status analog named in
// the outer HTTP/SSE API; RetryAfterMs is populated for
// ToolBusy/RateLimit.
type AppError struct {
	Code         Code
	Message      string
	HTTPStatus   int
	RetryAfterMs int
	err          error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/errors.As.
func (e *AppError) Unwrap() error { return e.err }

// WithError attaches a wrapped cause and returns the same error.
func (e *AppError) WithError(err error) *AppError {
	e.err = err
	return e
}

func newErr(code Code, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// NewValidationError — a request field is missing or fails validation.
func NewValidationError(message string) *AppError {
	return newErr(CodeValidationError, 422, message)
}

// NewBadRequestError — malformed request, independent of domain rules.
func NewBadRequestError(message string) *AppError {
	return newErr(CodeBadRequest, 400, message)
}

// NewUnauthorizedMetric — a metric name escaped the whitelist; fatal
// to the SQL path, logged as a security-adjacent event by the caller.
func NewUnauthorizedMetric(metric string) *AppError {
	return newErr(CodeUnauthorizedMetric, 400, fmt.Sprintf("metric %q is not in the whitelist", metric))
}

// NewUnsupportedSpec — QuerySpec incomplete or its column missing.
func NewUnsupportedSpec(message string) *AppError {
	return newErr(CodeUnsupportedSpec, 422, message)
}

// NewSqlValidationFailure — the SQL validator rejected generated SQL; never surface
// the reason verbatim to the end user.
func NewSqlValidationFailure(reason string) *AppError {
	return newErr(CodeSqlValidationFailure, 500, "no pudimos generar tu consulta").WithError(fmt.Errorf("%s", reason))
}

// NewBackendUnavailable — database, vector store, or LLM unreachable.
func NewBackendUnavailable(what string, cause error) *AppError {
	return newErr(CodeBackendUnavailable, 503, fmt.Sprintf("%s is unavailable", what)).WithError(cause)
}

// NewTimeout — a bounded operation exceeded its deadline.
func NewTimeout(what string) *AppError {
	return newErr(CodeTimeout, 504, fmt.Sprintf("%s timed out", what))
}

// NewToolBusy — a tool invocation could not be scheduled right now.
func NewToolBusy(retryAfterMs int) *AppError {
	e := newErr(CodeToolBusy, 429, "tool is busy, retry shortly")
	e.RetryAfterMs = retryAfterMs
	return e
}

// NewRateLimit — the caller exceeded a fixed-window rate limit.
func NewRateLimit(retryAfterMs int) *AppError {
	e := newErr(CodeRateLimit, 429, "rate limit exceeded")
	e.RetryAfterMs = retryAfterMs
	return e
}

// NewPermissionDenied — document/artifact not owned by caller;
// surfaced as a user-visible "not found" to avoid leaking existence.
func NewPermissionDenied() *AppError {
	return newErr(CodePermissionDenied, 404, "not found")
}

// NewNotFoundError — a generic missing-resource error.
func NewNotFoundError(message string) *AppError {
	return newErr(CodeNotFound, 404, message)
}

// NewInternalServerError — anything else; HTTP 500 analog.
func NewInternalServerError(message string) *AppError {
	return newErr(CodeInternal, 500, message)
}

// NewProviderError — an upstream LLM/embedding provider returned a
// domain-level error (bad config, unsupported model, etc).
func NewProviderError(message string) *AppError {
	return newErr(CodeInternal, 502, message)
}
