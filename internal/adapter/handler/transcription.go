package handler

import (
	stdErrors "errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/atc-shift-analyzer/errors"
	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/dto/shift"
	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/dto/transcription"
	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/presenter"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/errors"
	transcriptionUsecase "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/transcription"
)

// AudioFormField is the multipart field carrying the recording
const AudioFormField = "audio"

// Transcription handles audio ingest and transcription HTTP requests
type Transcription struct {
	service        transcriptionUsecase.Service
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(service transcriptionUsecase.Service, maxUploadBytes int64, logger *zap.Logger) *Transcription {
	return &Transcription{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// IngestShift handles POST /shifts/ingest
// @Summary      Upload shift audio
// @Description  Creates the shift and a pending transcription, stores the recording and starts transcription in the background
// @Tags         Transcriptions
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        audio              formData  file    true   "Shift recording"
// @Param        shift_id           formData  string  true   "Shift ID"
// @Param        controller_id      formData  string  true   "Controller ID"
// @Param        facility           formData  string  false  "Facility"
// @Param        position           formData  string  false  "Position"
// @Param        schedule_type      formData  string  false  "Schedule, e.g. 2-2-1"
// @Param        start_time         formData  string  false  "ISO-8601 start"
// @Param        end_time           formData  string  false  "ISO-8601 end"
// @Param        traffic_count_avg  formData  int     false  "Average traffic count"
// @Success      202                {object}  transcription.IngestResponse
// @Failure      400                {object}  map[string]interface{}  "Validation failed"
// @Failure      409                {object}  map[string]interface{}  "Shift already exists"
// @Failure      413                {object}  map[string]interface{}  "Recording too large"
// @Router       /shifts/ingest [post]
func (h *Transcription) IngestShift(c echo.Context) error {
	var req shift.ShiftMetadataRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	file, err := c.FormFile(AudioFormField)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("audio file is required").WithDetail(AudioFormField, "is required"))
	}
	if file.Size <= 0 {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("audio file is empty").WithDetail(AudioFormField, "is empty"))
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		return HandleError(h.logger, c, errors.AppError{
			HTTPCode: http.StatusRequestEntityTooLarge,
			Code:     errors.ErrorCode_INVALID_ARGUMENT,
			Message:  fmt.Sprintf("audio file exceeds %d bytes", h.maxUploadBytes),
		})
	}

	src, err := file.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	defer src.Close()

	contentType := file.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	s, t, err := h.service.Ingest(c.Request().Context(), transcriptionUsecase.IngestInput{
		Metadata:    req.ToMetadata(),
		Filename:    file.Filename,
		ContentType: contentType,
		Size:        file.Size,
		Audio:       src,
	})
	if err != nil {
		if stdErrors.Is(err, usecaseErrors.ErrShiftAlreadyExists) {
			return HandleError(h.logger, c, errors.ErrShiftAlreadyExists(req.ShiftID))
		}
		return HandleError(h.logger, c, err)
	}

	return HandleSuccessWithStatus(h.logger, c, http.StatusAccepted, &transcription.IngestResponse{
		Shift:         presenter.ToShiftResponse(s),
		Transcription: presenter.ToTranscriptionResponse(t, false),
	})
}

// GetTranscription handles GET /transcriptions/:shift_id
// @Summary      Get a transcription
// @Tags         Transcriptions
// @Produce      json
// @Param        shift_id  path      string  true  "Shift ID"
// @Success      200       {object}  transcription.TranscriptionResponse
// @Failure      404       {object}  map[string]interface{}  "Transcription not found"
// @Router       /transcriptions/{shift_id} [get]
func (h *Transcription) GetTranscription(c echo.Context) error {
	t, err := h.service.Get(c.Request().Context(), c.Param("shift_id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	resp := presenter.ToTranscriptionResponse(t, true)
	if t.Status == entities.StatusError {
		resp.Failure = transcriptionFailure(t)
	}
	return HandleSuccess(h.logger, c, resp)
}

func transcriptionFailure(t *entities.Transcription) *transcription.FailureResponse {
	cause := "transcription failed"
	if t.LastError != nil && *t.LastError != "" {
		cause = *t.LastError
	}
	appErr := errors.ErrTranscriptionFailed(t.ShiftID, stdErrors.New(cause)).
		WithDetail("last_error", cause)
	return &transcription.FailureResponse{
		Code:    appErr.Code.String(),
		Message: appErr.Message,
		Details: appErr.Details,
	}
}

// ListTranscriptions handles GET /transcriptions
// @Summary      List transcriptions
// @Tags         Transcriptions
// @Produce      json
// @Param        controller_id  query     string  false  "Controller ID"
// @Param        status         query     string  false  "Status"  Enums(queued, processing, completed, error)
// @Param        limit          query     int     false  "Page size (max 200)"
// @Param        skip           query     int     false  "Offset"
// @Success      200            {object}  transcription.TranscriptionListResponse
// @Router       /transcriptions [get]
func (h *Transcription) ListTranscriptions(c echo.Context) error {
	var req transcription.ListTranscriptionsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	filters := req.ToFilters()
	filters.Limit = effectiveLimit(filters.Limit)
	items, total, err := h.service.List(c.Request().Context(), filters)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToTranscriptionListResponse(items, total, filters.Limit, req.Skip))
}

// Retranscribe handles POST /transcriptions/:shift_id/retranscribe
// @Summary      Transcribe a stored recording again
// @Tags         Transcriptions
// @Produce      json
// @Security     BearerAuth
// @Param        shift_id  path      string  true  "Shift ID"
// @Success      202       {object}  transcription.TranscriptionResponse
// @Failure      404       {object}  map[string]interface{}  "Transcription not found"
// @Failure      409       {object}  map[string]interface{}  "Already processing or no stored audio"
// @Router       /transcriptions/{shift_id}/retranscribe [post]
func (h *Transcription) Retranscribe(c echo.Context) error {
	t, err := h.service.Retranscribe(c.Request().Context(), c.Param("shift_id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccessWithStatus(h.logger, c, http.StatusAccepted, presenter.ToTranscriptionResponse(t, false))
}

// TranscriptionStats handles GET /stats/transcriptions
// @Summary      Transcription counts per status
// @Tags         Stats
// @Produce      json
// @Success      200  {object}  shift.StatsResponse
// @Router       /stats/transcriptions [get]
func (h *Transcription) TranscriptionStats(c echo.Context) error {
	counts, total, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToStatsResponse(counts, total))
}
