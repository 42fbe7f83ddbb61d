package errors

import (
	"fmt"
	"maps"
)

// AppError is the one error type the pipeline surfaces. Match broadly
// with AsAppError or by Code with HasCode.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Stage is the pipeline step that failed, if known.
	Stage      Stage          `json:"stage,omitempty"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the cause and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithStage overrides the stage implied by the code.
func (e *AppError) WithStage(stage Stage) *AppError {
	e.Stage = stage
	return e
}

// WithDetails merges details into e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// New builds an AppError whose status, stage and retryability follow from
// code.
func New(code ErrorCode, format string, args ...any) *AppError {
	k := kindOf(code)
	return &AppError{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		Stage:      k.stage,
		Retryable:  k.retryable,
		HTTPStatus: k.status,
	}
}

func InputUnreadable(path string, cause error) *AppError {
	return New(ErrCodeInputUnreadable, "cannot read input %q", path).WithDetail("path", path).WithCause(cause)
}

// UnsupportedFormat rejects an input that is not an audio or video
// container the pipeline handles.
func UnsupportedFormat(path, reason string) *AppError {
	return New(ErrCodeUnsupportedFormat, "unsupported input %q: %s", path, reason).WithDetail("path", path)
}

func AudioExtraction(path string, cause error) *AppError {
	return New(ErrCodeAudioExtraction, "audio optimization failed for %q", path).WithDetail("path", path).WithCause(cause)
}

// UnknownProvider reports a name, or name and mode pair, with no backend.
func UnknownProvider(name, mode string) *AppError {
	return New(ErrCodeUnknownProvider, "unknown provider %q (mode %s)", name, mode).
		WithDetails(map[string]any{"provider": name, "mode": mode})
}

func UnsupportedCapability(name, capability string) *AppError {
	return New(ErrCodeUnsupportedCapability, "provider %q does not support %s", name, capability).
		WithDetails(map[string]any{"provider": name, "capability": capability})
}

// ModelNotAvailable reports a model the provider does not know or has not
// installed. Fallback logic keys on this code.
func ModelNotAvailable(name, model string) *AppError {
	return New(ErrCodeModelNotAvailable, "model %q is not available for provider %q", model, name).
		WithDetails(map[string]any{"provider": name, "model": model})
}

func TranscriptionFailed(name string, cause error) *AppError {
	return New(ErrCodeTranscriptionFailed, "transcription with %q failed", name).WithDetail("provider", name).WithCause(cause)
}

func AnalysisFailed(name string, cause error) *AppError {
	return New(ErrCodeAnalysisFailed, "analysis with %q failed", name).WithDetail("provider", name).WithCause(cause)
}

func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, "%s is temporarily unavailable", service).WithDetail("service", service)
}

func ConnectionFailed(service string) *AppError {
	return New(ErrCodeConnectionFailed, "unable to connect to %s", service).WithDetail("service", service)
}

func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "%s timed out", operation).WithDetail("operation", operation)
}

func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "rate limited by provider")
}

// Unauthorized reports rejected credentials. An empty reason gets a
// generic message.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "credentials rejected"
	}
	return New(ErrCodeUnauthorized, "%s", reason)
}

// NotFound names the missing resource and, when given, its id.
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, "%s not found", resource).WithDetail("resource", resource)
	if id != "" {
		e.Details["id"] = id
	}
	return e
}

// InvalidInput reports a bad request or configuration value. field may be
// empty.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, "invalid input: %s", reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Internal hides cause from the message; it stays reachable via Unwrap.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "unexpected internal error").WithCause(cause)
}

func ExternalServiceError(service string, cause error) *AppError {
	return New(ErrCodeExternalService, "%s returned an error", service).WithDetail("service", service).WithCause(cause)
}

// Wrap returns the AppError in err's chain, or Internal(err).
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
