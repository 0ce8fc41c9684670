package handler

import (
	"bytes"
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/atc-shift-analyzer/errors"
	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/dto/shift"
	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/presenter"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/errors"
	shiftUsecase "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/shift"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportExporter renders shift reports
type ReportExporter interface {
	Export(ctx context.Context, filters repositories.ShiftFilters, w io.Writer) (int, error)
}

// Shift handles shift-related HTTP requests
type Shift struct {
	shiftService shiftUsecase.Service
	exporter     ReportExporter
	logger       *zap.Logger
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(shiftService shiftUsecase.Service, exporter ReportExporter, logger *zap.Logger) *Shift {
	return &Shift{
		shiftService: shiftService,
		exporter:     exporter,
		logger:       logger,
	}
}

// CreateShift handles POST /shifts
// @Summary      Register a shift
// @Description  Creates a queued shift from its metadata
// @Tags         Shifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      shift.ShiftMetadataRequest  true  "Shift metadata"
// @Success      201      {object}  shift.ShiftResponse
// @Failure      400      {object}  map[string]interface{}  "Validation failed"
// @Failure      409      {object}  map[string]interface{}  "Shift already exists"
// @Router       /shifts [post]
func (h *Shift) CreateShift(c echo.Context) error {
	var req shift.ShiftMetadataRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	created, err := h.shiftService.Create(c.Request().Context(), req.ToMetadata())
	if err != nil {
		if stdErrors.Is(err, usecaseErrors.ErrShiftAlreadyExists) {
			return HandleError(h.logger, c, errors.ErrShiftAlreadyExists(req.ShiftID))
		}
		return HandleError(h.logger, c, err)
	}

	return HandleSuccessWithStatus(h.logger, c, http.StatusCreated, presenter.ToShiftResponse(created))
}

// GetShift handles GET /shifts/:shift_id
// @Summary      Get a shift
// @Description  Returns the shift with every analysis result produced so far
// @Tags         Shifts
// @Produce      json
// @Param        shift_id  path      string  true  "Shift ID"
// @Success      200       {object}  shift.ShiftResponse
// @Failure      404       {object}  map[string]interface{}  "Shift not found"
// @Router       /shifts/{shift_id} [get]
func (h *Shift) GetShift(c echo.Context) error {
	s, err := h.shiftService.Get(c.Request().Context(), c.Param("shift_id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToShiftResponse(s))
}

// ListShifts handles GET /shifts
// @Summary      List shifts
// @Tags         Shifts
// @Produce      json
// @Param        controller_id       query     string  false  "Controller ID"
// @Param        status              query     string  false  "Status"  Enums(queued, processing, completed, error)
// @Param        priority            query     string  false  "Priority level"
// @Param        requires_attention  query     bool    false  "Only flagged shifts"
// @Param        min_fatigue_score   query     number  false  "Minimum fatigue score"
// @Param        sort_by             query     string  false  "Sort field"  Enums(created_at, updated_at, fatigue_score)
// @Param        sort_order          query     string  false  "Sort order"  Enums(asc, desc)
// @Param        limit               query     int     false  "Page size (max 200)"
// @Param        skip                query     int     false  "Offset"
// @Success      200                 {object}  shift.ShiftListResponse
// @Router       /shifts [get]
func (h *Shift) ListShifts(c echo.Context) error {
	var req shift.ListShiftsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	filters, err := req.ToFilters()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	shifts, total, err := h.shiftService.List(c.Request().Context(), filters)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToShiftListResponse(shifts, total, effectiveLimit(req.Limit), req.Skip))
}

// UpdateShift handles PATCH /shifts/:shift_id
// @Summary      Correct shift metadata
// @Tags         Shifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        shift_id  path      string                    true  "Shift ID"
// @Param        request   body      shift.UpdateShiftRequest  true  "Fields to change"
// @Success      200       {object}  shift.ShiftResponse
// @Failure      400       {object}  map[string]interface{}  "Validation failed"
// @Failure      404       {object}  map[string]interface{}  "Shift not found"
// @Router       /shifts/{shift_id} [patch]
func (h *Shift) UpdateShift(c echo.Context) error {
	var req shift.UpdateShiftRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	updated, err := h.shiftService.UpdateMetadata(c.Request().Context(), c.Param("shift_id"), req.ToPatch())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToShiftResponse(updated))
}

// DeleteShift handles DELETE /shifts/:shift_id
// @Summary      Delete a shift
// @Description  Removes the shift, its transcription and the stored recording
// @Tags         Shifts
// @Produce      json
// @Security     BearerAuth
// @Param        shift_id  path      string  true  "Shift ID"
// @Success      200       {object}  map[string]interface{}
// @Failure      404       {object}  map[string]interface{}  "Shift not found"
// @Router       /shifts/{shift_id} [delete]
func (h *Shift) DeleteShift(c echo.Context) error {
	shiftID := c.Param("shift_id")
	if err := h.shiftService.Delete(c.Request().Context(), shiftID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{"shift_id": shiftID, "deleted": true})
}

// AnalyzeShift handles POST /shifts/:shift_id/analyze
// @Summary      Run shift analysis
// @Description  Runs fatigue, safety and summary analysis over the completed transcription and waits for the result
// @Tags         Analysis
// @Produce      json
// @Security     BearerAuth
// @Param        shift_id  path      string  true  "Shift ID"
// @Success      200       {object}  shift.ShiftResponse
// @Failure      404       {object}  map[string]interface{}  "Shift or transcription not found"
// @Failure      409       {object}  map[string]interface{}  "Transcription not ready or run in progress"
// @Failure      502       {object}  map[string]interface{}  "An analysis stage failed"
// @Router       /shifts/{shift_id}/analyze [post]
func (h *Shift) AnalyzeShift(c echo.Context) error {
	analyzed, err := h.shiftService.Analyze(c.Request().Context(), c.Param("shift_id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToShiftResponse(analyzed))
}

// HighRisk handles GET /shifts/high-risk
// @Summary      High fatigue shifts
// @Tags         Shifts
// @Produce      json
// @Param        fatigue_threshold  query     number  false  "Minimum fatigue score (default 70)"
// @Param        limit              query     int     false  "Page size (max 200)"
// @Param        skip               query     int     false  "Offset"
// @Success      200                {object}  shift.ShiftListResponse
// @Router       /shifts/high-risk [get]
func (h *Shift) HighRisk(c echo.Context) error {
	var req shift.HighRiskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	shifts, total, err := h.shiftService.HighRisk(c.Request().Context(), req.FatigueThreshold, req.Limit, req.Skip)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToShiftListResponse(shifts, total, effectiveLimit(req.Limit), req.Skip))
}

// AttentionRequired handles GET /shifts/attention/required
// @Summary      Shifts flagged for review
// @Tags         Shifts
// @Produce      json
// @Param        limit  query     int  false  "Page size (max 200)"
// @Param        skip   query     int  false  "Offset"
// @Success      200    {object}  shift.ShiftListResponse
// @Router       /shifts/attention/required [get]
func (h *Shift) AttentionRequired(c echo.Context) error {
	var req shift.PageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	shifts, total, err := h.shiftService.AttentionRequired(c.Request().Context(), req.Limit, req.Skip)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToShiftListResponse(shifts, total, effectiveLimit(req.Limit), req.Skip))
}

// ExportShifts handles GET /shifts/export
// @Summary      Export supervisor report
// @Description  Returns an XLSX workbook with one row per shift and one row per safety issue
// @Tags         Reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        controller_id       query  string  false  "Controller ID"
// @Param        status              query  string  false  "Status"
// @Param        requires_attention  query  bool    false  "Only flagged shifts"
// @Param        min_fatigue_score   query  number  false  "Minimum fatigue score"
// @Success      200  {file}    binary
// @Failure      500  {object}  map[string]interface{}  "Export failed"
// @Router       /shifts/export [get]
func (h *Shift) ExportShifts(c echo.Context) error {
	var req shift.ListShiftsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	filters, err := req.ToFilters()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	var buf bytes.Buffer
	if _, err := h.exporter.Export(c.Request().Context(), filters, &buf); err != nil {
		return HandleError(h.logger, c, errors.ErrReportExportFailed("xlsx", err))
	}

	filename := fmt.Sprintf("shift-report-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ShiftStats handles GET /stats/shifts
// @Summary      Shift counts per status
// @Tags         Stats
// @Produce      json
// @Success      200  {object}  shift.StatsResponse
// @Router       /stats/shifts [get]
func (h *Shift) ShiftStats(c echo.Context) error {
	stats, err := h.shiftService.Stats(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToStatsResponse(stats.ByStatus, stats.Total))
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return shiftUsecase.DefaultListLimit
	}
	if limit > shiftUsecase.MaxListLimit {
		return shiftUsecase.MaxListLimit
	}
	return limit
}
