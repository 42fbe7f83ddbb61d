package errors

import "net/http"

// ErrorCode is the machine-readable kind of an AppError.
type ErrorCode string

// Pipeline failures. Each has its own stage and CLI exit status.
const (
	ErrCodeInputUnreadable       ErrorCode = "INPUT_UNREADABLE"
	ErrCodeUnsupportedFormat     ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeAudioExtraction       ErrorCode = "AUDIO_EXTRACTION_FAILED"
	ErrCodeUnknownProvider       ErrorCode = "UNKNOWN_PROVIDER"
	ErrCodeUnsupportedCapability ErrorCode = "UNSUPPORTED_CAPABILITY"
	ErrCodeModelNotAvailable     ErrorCode = "MODEL_NOT_AVAILABLE"
	// Terminal: retries are exhausted by the time these are raised.
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	ErrCodeAnalysisFailed      ErrorCode = "ANALYSIS_FAILED"
)

// Transport and request failures, mostly raised by provider adapters.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// kind is everything a code implies. Codes missing from kinds are
// internal: status 500, exit 1, no stage, not retryable.
type kind struct {
	status    int
	stage     Stage
	exit      int
	retryable bool
}

var kinds = map[ErrorCode]kind{
	ErrCodeInputUnreadable:       {http.StatusBadRequest, StageFingerprint, ExitInputUnreadable, false},
	ErrCodeUnsupportedFormat:     {http.StatusUnsupportedMediaType, StageValidation, ExitUnsupportedFormat, false},
	ErrCodeAudioExtraction:       {http.StatusUnprocessableEntity, StageOptimization, ExitAudioExtraction, false},
	ErrCodeUnknownProvider:       {http.StatusBadRequest, StageResolution, ExitUnknownProvider, false},
	ErrCodeUnsupportedCapability: {http.StatusBadRequest, StageResolution, ExitUnsupportedCapability, false},
	ErrCodeModelNotAvailable:     {http.StatusNotFound, StageResolution, ExitModelNotAvailable, false},
	ErrCodeTranscriptionFailed:   {http.StatusBadGateway, StageTranscription, ExitTranscriptionFailed, false},
	ErrCodeAnalysisFailed:        {http.StatusBadGateway, StageAnalysis, ExitAnalysisFailed, false},

	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, "", ExitInternal, true},
	ErrCodeConnectionFailed:   {http.StatusServiceUnavailable, "", ExitInternal, true},
	ErrCodeTimeout:            {http.StatusGatewayTimeout, "", ExitInternal, true},
	ErrCodeRateLimited:        {http.StatusTooManyRequests, "", ExitInternal, true},
	ErrCodeExternalService:    {http.StatusBadGateway, "", ExitInternal, true},
	ErrCodeNotFound:           {http.StatusNotFound, "", ExitInvalidInput, false},
	ErrCodeInvalidInput:       {http.StatusBadRequest, StageConfiguration, ExitInvalidInput, false},
	ErrCodeUnauthorized:       {http.StatusUnauthorized, "", ExitInternal, false},
}

func kindOf(code ErrorCode) kind {
	if k, ok := kinds[code]; ok {
		return k
	}
	return kind{status: http.StatusInternalServerError, exit: ExitInternal}
}

// IsRetryableCode reports whether errors of this kind may succeed if
// repeated.
func IsRetryableCode(code ErrorCode) bool { return kindOf(code).retryable }
