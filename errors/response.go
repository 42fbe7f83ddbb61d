package errors

import (
	stderrors "errors"
)

// ErrorResponse is the JSON body returned by the API server for failures.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details sent to clients.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Stage     Stage          `json:"stage,omitempty"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:      e.Code,
			Message:   e.Message,
			Stage:     e.Stage,
			Retryable: e.Retryable,
			Details:   e.Details,
		},
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in err's chain carries code. A
// TranscriptionFailed wrapping a ModelNotAvailable matches both codes.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		appErr, ok := AsAppError(err)
		if !ok {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// IsModelNotAvailable reports whether err is a ModelNotAvailable error.
func IsModelNotAvailable(err error) bool { return HasCode(err, ErrCodeModelNotAvailable) }

// IsUnsupportedFormat reports whether err is an UnsupportedFormat error.
func IsUnsupportedFormat(err error) bool { return HasCode(err, ErrCodeUnsupportedFormat) }

// IsAudioExtraction reports whether err is an AudioExtraction error.
func IsAudioExtraction(err error) bool { return HasCode(err, ErrCodeAudioExtraction) }

// IsTranscriptionFailed reports whether err is a TranscriptionFailed error.
func IsTranscriptionFailed(err error) bool { return HasCode(err, ErrCodeTranscriptionFailed) }

// IsAnalysisFailed reports whether err is an AnalysisFailed error.
func IsAnalysisFailed(err error) bool { return HasCode(err, ErrCodeAnalysisFailed) }
