package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the error type returned to HTTP clients
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying error to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrPermissionDenied(action string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_PERMISSION_DENIED,
		Message:  fmt.Sprintf("Permission denied: %s", action),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Authentication Errors
func ErrInvalidToken() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_INVALID_TOKEN,
		Message:  "Invalid authentication token",
	}
}

func ErrTokenExpired() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_TOKEN_EXPIRED,
		Message:  "Authentication token has expired",
	}
}

// Shift Errors
func ErrShiftNotFound(shiftID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_SHIFT_NOT_FOUND,
		Message:  "Shift not found",
	}.WithDetail("shift_id", shiftID)
}

func ErrShiftAlreadyExists(shiftID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_SHIFT_ALREADY_EXISTS,
		Message:  "Shift already exists",
	}.WithDetail("shift_id", shiftID)
}

func ErrShiftInvalidState(shiftID, currentState, requestedState string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_SHIFT_INVALID_STATE,
		Message:  "Shift is in invalid state",
	}.WithDetail("shift_id", shiftID).
		WithDetail("current_state", currentState).
		WithDetail("requested_state", requestedState)
}

// Transcription Errors
func ErrTranscriptionNotFound(shiftID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_TRANSCRIPTION_NOT_FOUND,
		Message:  "Transcription not found",
	}.WithDetail("shift_id", shiftID)
}

func ErrTranscriptionNotReady(shiftID, status string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_TRANSCRIPTION_NOT_READY,
		Message:  "Transcription is not completed yet",
	}.WithDetail("shift_id", shiftID).
		WithDetail("status", status)
}

func ErrTranscriptionFailed(shiftID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_TRANSCRIPTION_FAILED,
		Message:  "Audio transcription failed",
	}.WithDetail("shift_id", shiftID)
}

func ErrAudioMissing(shiftID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_AUDIO_MISSING,
		Message:  "No stored audio for shift",
	}.WithDetail("shift_id", shiftID)
}

// Analysis Errors
func ErrAnalysisStageFailed(shiftID, stage string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_ANALYSIS_STAGE_FAILED,
		Message:  fmt.Sprintf("Analysis stage %s failed", stage),
	}.WithDetail("shift_id", shiftID).
		WithDetail("stage", stage)
}

func ErrAnalysisMalformed(shiftID, stage string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_ANALYSIS_MALFORMED,
		Message:  "Model returned malformed output",
	}.WithDetail("shift_id", shiftID).
		WithDetail("stage", stage)
}

func ErrAIServiceUnavailable(service string) AppError {
	return AppError{
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_AI_SERVICE_UNAVAILABLE,
		Message:  "AI service temporarily unavailable",
	}.WithDetail("service", service)
}

// Report Errors
func ErrReportExportFailed(format string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_REPORT_EXPORT_FAILED,
		Message:  "Failed to export report",
	}.WithDetail("format", format)
}

// Integration Errors
func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_INTEGRATION_STORAGE_FAILED,
		Message:  "Audio storage is unavailable",
	}.WithDetail("operation", operation)
}

// ErrExternalAPIFailed reports a transport failure talking to a model backend
func ErrExternalAPIFailed(service string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_INTEGRATION_EXTERNAL_API_FAILED,
		Message:  fmt.Sprintf("%s backend request failed", service),
	}.WithDetail("service", service)
}
