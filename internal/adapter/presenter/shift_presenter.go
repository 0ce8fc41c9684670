package presenter

import (
	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/dto/shift"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
)

// ToShiftResponse converts a Shift entity to ShiftResponse DTO
func ToShiftResponse(s *entities.Shift) *shift.ShiftResponse {
	if s == nil {
		return nil
	}

	return &shift.ShiftResponse{
		ID:                s.ID.String(),
		ShiftID:           s.ShiftID,
		ControllerID:      s.ControllerID,
		Facility:          s.Facility,
		Position:          s.Position,
		ScheduleType:      s.ScheduleType,
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		TrafficCountAvg:   s.TrafficCountAvg,
		Status:            string(s.Status),
		FatigueAnalysis:   s.FatigueAnalysis,
		SafetyAnalysis:    s.SafetyAnalysis,
		SupervisorSummary: s.Summary,
		FatigueScore:      s.FatigueScore,
		RequiresAttention: s.RequiresAttention,
		PriorityLevel:     s.PriorityLevel,
		FailedStage:       s.FailedStage,
		LastError:         s.LastError,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// ToShiftListResponse converts a page of shifts
func ToShiftListResponse(shifts []*entities.Shift, total int64, limit, skip int) *shift.ShiftListResponse {
	items := make([]*shift.ShiftResponse, len(shifts))
	for i, s := range shifts {
		items[i] = ToShiftResponse(s)
	}
	return &shift.ShiftListResponse{
		Items: items,
		Total: total,
		Limit: limit,
		Skip:  skip,
	}
}

// ToStatsResponse converts status counts
func ToStatsResponse(counts map[entities.Status]int64, total int64) *shift.StatsResponse {
	byStatus := make(map[string]int64, len(counts))
	for status, n := range counts {
		byStatus[string(status)] = n
	}
	return &shift.StatsResponse{Total: total, ByStatus: byStatus}
}
