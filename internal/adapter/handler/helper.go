package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/atc-shift-analyzer/errors"
	"github.com/johnquangdev/atc-shift-analyzer/internal/usecase/analysis"
	usecaseErrors "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/llm"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/validator"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request or the response
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized 200 response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return HandleSuccessWithStatus(logger, c, http.StatusOK, data)
}

// HandleSuccessWithStatus writes a standardized success response with the given status
func HandleSuccessWithStatus(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)
	appErr := toAppError(c, err)

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Any("app_code", appErr.Code),
			zap.Int("status", appErr.HTTPCode),
			zap.Error(err),
		)
	}

	info := ""
	if appErr.Raw != nil {
		info = appErr.Raw.Error()
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Info:    info,
		Details: appErr.Details,
	}

	return c.JSON(appErr.HTTPCode, body)
}

// toAppError maps use case errors onto their HTTP representation
func toAppError(c echo.Context, err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	shiftID := c.Param("shift_id")

	var stageErr *analysis.StageError
	if stdErrors.As(err, &stageErr) {
		switch {
		case stdErrors.Is(err, usecaseErrors.ErrMalformedModelOutput):
			return errors.ErrAnalysisMalformed(stageErr.ShiftID, string(stageErr.Stage), stageErr.Err)
		case stdErrors.Is(err, llm.ErrUnavailable):
			return errors.ErrExternalAPIFailed("llm", stageErr.Err).
				WithDetail("shift_id", stageErr.ShiftID).
				WithDetail("stage", string(stageErr.Stage))
		}
		return errors.ErrAnalysisStageFailed(stageErr.ShiftID, string(stageErr.Stage), stageErr.Err)
	}

	switch {
	case stdErrors.Is(err, usecaseErrors.ErrShiftNotFound):
		return errors.ErrShiftNotFound(shiftID)
	case stdErrors.Is(err, usecaseErrors.ErrShiftAlreadyExists):
		return errors.ErrShiftAlreadyExists(shiftID)
	case stdErrors.Is(err, usecaseErrors.ErrInvalidTransition):
		appErr = errors.ErrShiftInvalidState(shiftID, "", "processing")
		appErr.Raw = err
		return appErr
	case stdErrors.Is(err, usecaseErrors.ErrTranscriptionNotFound):
		return errors.ErrTranscriptionNotFound(shiftID)
	case stdErrors.Is(err, usecaseErrors.ErrTranscriptNotReady):
		appErr = errors.ErrTranscriptionNotReady(shiftID, "")
		appErr.Raw = err
		return appErr
	case stdErrors.Is(err, usecaseErrors.ErrAudioMissing):
		return errors.ErrAudioMissing(shiftID)
	case stdErrors.Is(err, usecaseErrors.ErrEmptyPatch):
		return errors.ErrInvalidArgument("No fields to update")
	case stdErrors.Is(err, usecaseErrors.ErrAudioStore):
		return errors.ErrStorageFailed("put audio", err).WithDetail("shift_id", shiftID)
	case stdErrors.Is(err, usecaseErrors.ErrServiceShuttingDown):
		return errors.ErrAIServiceUnavailable("transcription")
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput):
		appErr = errors.ErrInvalidArgument("Invalid input")
		appErr.Raw = err
		return appErr
	}

	return errors.ErrInternal(err)
}

// validationError converts a validator failure into an AppError with one detail per field
func validationError(err error) errors.AppError {
	appErr := errors.ErrInvalidPayload()
	for field, msg := range validator.Messages(err) {
		appErr = appErr.WithDetail(field, msg)
	}
	return appErr
}

// bindAndValidate binds the request into req and validates it
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		appErr := errors.ErrInvalidPayload()
		appErr.Raw = err
		return appErr
	}
	if err := c.Validate(req); err != nil {
		return validationError(err)
	}
	return nil
}
