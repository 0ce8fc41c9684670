package errors

// ErrorCode is the application-level code returned in error responses
type ErrorCode int

const (
	ErrorCode_HTTP_OK           ErrorCode = 200
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1007

	// Auth
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2001
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2002

	// Shifts and transcriptions
	ErrorCode_SHIFT_NOT_FOUND         ErrorCode = 3001
	ErrorCode_SHIFT_ALREADY_EXISTS    ErrorCode = 3002
	ErrorCode_SHIFT_INVALID_STATE     ErrorCode = 3003
	ErrorCode_TRANSCRIPTION_NOT_FOUND ErrorCode = 3101
	ErrorCode_TRANSCRIPTION_NOT_READY ErrorCode = 3102
	ErrorCode_TRANSCRIPTION_FAILED    ErrorCode = 3103
	ErrorCode_AUDIO_MISSING           ErrorCode = 3104

	// Analysis
	ErrorCode_ANALYSIS_STAGE_FAILED  ErrorCode = 4001
	ErrorCode_ANALYSIS_MALFORMED     ErrorCode = 4002
	ErrorCode_AI_SERVICE_UNAVAILABLE ErrorCode = 4003

	// Reports
	ErrorCode_REPORT_EXPORT_FAILED ErrorCode = 5001

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED      ErrorCode = 6001
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED ErrorCode = 6003
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                         "HTTP_OK",
	ErrorCode_INTERNAL:                        "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:                "INVALID_ARGUMENT",
	ErrorCode_PERMISSION_DENIED:               "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:                 "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:                 "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:              "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:              "AUTH_TOKEN_EXPIRED",
	ErrorCode_SHIFT_NOT_FOUND:                 "SHIFT_NOT_FOUND",
	ErrorCode_SHIFT_ALREADY_EXISTS:            "SHIFT_ALREADY_EXISTS",
	ErrorCode_SHIFT_INVALID_STATE:             "SHIFT_INVALID_STATE",
	ErrorCode_TRANSCRIPTION_NOT_FOUND:         "TRANSCRIPTION_NOT_FOUND",
	ErrorCode_TRANSCRIPTION_NOT_READY:         "TRANSCRIPTION_NOT_READY",
	ErrorCode_TRANSCRIPTION_FAILED:            "TRANSCRIPTION_FAILED",
	ErrorCode_AUDIO_MISSING:                   "AUDIO_MISSING",
	ErrorCode_ANALYSIS_STAGE_FAILED:           "ANALYSIS_STAGE_FAILED",
	ErrorCode_ANALYSIS_MALFORMED:              "ANALYSIS_MALFORMED",
	ErrorCode_AI_SERVICE_UNAVAILABLE:          "AI_SERVICE_UNAVAILABLE",
	ErrorCode_REPORT_EXPORT_FAILED:            "REPORT_EXPORT_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED:      "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED: "INTEGRATION_EXTERNAL_API_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
