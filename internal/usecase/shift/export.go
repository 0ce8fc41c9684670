package shift

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
)

const (
	shiftsSheet = "Shifts"
	issuesSheet = "Safety Issues"
	exportPage  = MaxListLimit
)

var (
	shiftColumns = []string{
		"Shift ID", "Controller", "Facility", "Position", "Schedule", "Start", "End",
		"Status", "Fatigue Score", "Severity", "Safety Score", "Requires Attention",
		"Priority", "Executive Summary", "Failed Stage", "Updated At",
	}
	issueColumns = []string{"Shift ID", "Type", "Severity", "Timestamp", "Evidence", "Concern"}
)

// Exporter writes supervisor reports as XLSX workbooks
type Exporter struct {
	shiftRepo repositories.ShiftRepository
	logger    *zap.Logger
}

// NewExporter creates an exporter
func NewExporter(shiftRepo repositories.ShiftRepository, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{shiftRepo: shiftRepo, logger: logger}
}

// Export writes every shift matching filters into w. Limit and offset in
// filters are ignored; the whole result set is paged through.
func (e *Exporter) Export(ctx context.Context, filters repositories.ShiftFilters, w io.Writer) (int, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("⚠️ Failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", shiftsSheet); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(issuesSheet); err != nil {
		return 0, fmt.Errorf("add sheet: %w", err)
	}
	if err := writeRow(f, shiftsSheet, 1, toRow(shiftColumns)); err != nil {
		return 0, err
	}
	if err := writeRow(f, issuesSheet, 1, toRow(issueColumns)); err != nil {
		return 0, err
	}
	if err := f.SetPanes(shiftsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return 0, fmt.Errorf("freeze header: %w", err)
	}

	shiftRow, issueRow, exported := 2, 2, 0
	filters.Limit = exportPage
	filters.Offset = 0
	for {
		page, total, err := e.shiftRepo.List(ctx, filters)
		if err != nil {
			return exported, fmt.Errorf("list shifts: %w", err)
		}
		for _, s := range page {
			if err := writeRow(f, shiftsSheet, shiftRow, shiftRowValues(s)); err != nil {
				return exported, err
			}
			shiftRow++
			for _, issue := range entities.SafetyView(s.SafetyAnalysis).IssuesFound {
				if err := writeRow(f, issuesSheet, issueRow, issueRowValues(s.ShiftID, issue)); err != nil {
					return exported, err
				}
				issueRow++
			}
			exported++
		}
		filters.Offset += len(page)
		if len(page) == 0 || int64(filters.Offset) >= total {
			break
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return exported, fmt.Errorf("write workbook: %w", err)
	}

	e.logger.Info("📊 Shift report exported", zap.Int("shifts", exported), zap.Int("issues", issueRow-2))
	return exported, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toRow(cols []string) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func shiftRowValues(s *entities.Shift) []interface{} {
	fatigue := entities.FatigueView(s.FatigueAnalysis)
	safety := entities.SafetyView(s.SafetyAnalysis)
	summary := entities.SummaryView(s.Summary)

	var fatigueScore, safetyScore interface{}
	if s.FatigueScore != nil {
		fatigueScore = *s.FatigueScore
	}
	if s.HasSafety() {
		safetyScore = safety.SafetyScore
	}

	return []interface{}{
		s.ShiftID,
		s.ControllerID,
		s.Facility,
		s.Position,
		s.ScheduleType,
		s.StartTime,
		s.EndTime,
		string(s.Status),
		fatigueScore,
		fatigue.Severity,
		safetyScore,
		s.RequiresAttention,
		s.PriorityLevel,
		summary.ExecutiveSummary,
		s.FailedStage,
		s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func issueRowValues(shiftID string, issue map[string]interface{}) []interface{} {
	return []interface{}{
		shiftID,
		cast.ToString(issue["type"]),
		cast.ToString(issue["severity"]),
		cast.ToString(issue["timestamp"]),
		cast.ToString(issue["evidence"]),
		cast.ToString(issue["concern"]),
	}
}
