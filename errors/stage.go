package errors

// Stage names the pipeline step an error originated from. It is the part of
// the user-visible message that tells which step failed.
type Stage string

const (
	StageValidation    Stage = "validation"
	StageFingerprint   Stage = "fingerprinting"
	StageResolution    Stage = "provider resolution"
	StageOptimization  Stage = "optimization"
	StageTranscription Stage = "transcription"
	StageAnalysis      Stage = "analysis"
	StageCache         Stage = "cache"
	StageConfiguration Stage = "configuration"
	StageExport        Stage = "export"
	StageCapture       Stage = "capture"
)

// Exit statuses returned by the CLI. Every pipeline error kind has its own.
const (
	ExitOK                    = 0
	ExitInternal              = 1
	ExitInvalidInput          = 2
	ExitInputUnreadable       = 10
	ExitUnsupportedFormat     = 11
	ExitAudioExtraction       = 12
	ExitUnknownProvider       = 13
	ExitUnsupportedCapability = 14
	ExitModelNotAvailable     = 15
	ExitTranscriptionFailed   = 16
	ExitAnalysisFailed        = 17
)

// ExitCode maps an error chain to a process exit status. A nil error is
// ExitOK; errors without an AppError in the chain are ExitInternal.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	appErr, ok := AsAppError(err)
	if !ok {
		return ExitInternal
	}
	return kindOf(appErr.Code).exit
}

// UserMessage renders err as "<stage>: <message>" for terminal output.
func UserMessage(err error) string {
	appErr, ok := AsAppError(err)
	if !ok {
		return err.Error()
	}
	msg := appErr.Message
	if appErr.Cause != nil {
		msg += ": " + appErr.Cause.Error()
	}
	if appErr.Stage == "" {
		return msg
	}
	return string(appErr.Stage) + ": " + msg
}
