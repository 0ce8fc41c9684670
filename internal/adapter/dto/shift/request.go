package shift

import (
	"fmt"
	"strconv"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
)

// ShiftMetadataRequest is the shift metadata accepted as JSON or as multipart form fields
type ShiftMetadataRequest struct {
	ShiftID         string `json:"shift_id" form:"shift_id" validate:"required,max=128"`
	ControllerID    string `json:"controller_id" form:"controller_id" validate:"required,max=128"`
	Facility        string `json:"facility" form:"facility" validate:"max=128"`
	Position        string `json:"position" form:"position" validate:"max=128"`
	ScheduleType    string `json:"schedule_type" form:"schedule_type" validate:"omitempty,schedule"`
	StartTime       string `json:"start_time" form:"start_time" validate:"omitempty,iso8601"`
	EndTime         string `json:"end_time" form:"end_time" validate:"omitempty,iso8601"`
	TrafficCountAvg int    `json:"traffic_count_avg" form:"traffic_count_avg" validate:"gte=0"`
}

// ToMetadata converts the request into domain metadata
func (r *ShiftMetadataRequest) ToMetadata() entities.ShiftMetadata {
	return entities.ShiftMetadata{
		ShiftID:         r.ShiftID,
		ControllerID:    r.ControllerID,
		Facility:        r.Facility,
		Position:        r.Position,
		ScheduleType:    r.ScheduleType,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		TrafficCountAvg: r.TrafficCountAvg,
	}
}

// UpdateShiftRequest corrects shift metadata; omitted fields are kept
type UpdateShiftRequest struct {
	ControllerID    *string `json:"controller_id,omitempty" validate:"omitempty,min=1,max=128"`
	Facility        *string `json:"facility,omitempty" validate:"omitempty,max=128"`
	Position        *string `json:"position,omitempty" validate:"omitempty,max=128"`
	ScheduleType    *string `json:"schedule_type,omitempty" validate:"omitempty,schedule"`
	StartTime       *string `json:"start_time,omitempty" validate:"omitempty,iso8601"`
	EndTime         *string `json:"end_time,omitempty" validate:"omitempty,iso8601"`
	TrafficCountAvg *int    `json:"traffic_count_avg,omitempty" validate:"omitempty,gte=0"`
}

// ToPatch converts the request into a metadata patch
func (r *UpdateShiftRequest) ToPatch() *entities.MetadataPatch {
	return &entities.MetadataPatch{
		ControllerID:    r.ControllerID,
		Facility:        r.Facility,
		Position:        r.Position,
		ScheduleType:    r.ScheduleType,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		TrafficCountAvg: r.TrafficCountAvg,
	}
}

// ListShiftsRequest represents query parameters for listing shifts
type ListShiftsRequest struct {
	ControllerID      string `query:"controller_id"`
	Status            string `query:"status" validate:"omitempty,oneof=queued processing completed error"`
	PriorityLevel     string `query:"priority"`
	RequiresAttention string `query:"requires_attention" validate:"omitempty,oneof=true false"`
	MinFatigueScore   string `query:"min_fatigue_score" validate:"omitempty,numeric"`
	SortBy            string `query:"sort_by" validate:"omitempty,oneof=created_at updated_at fatigue_score"`
	SortOrder         string `query:"sort_order" validate:"omitempty,oneof=asc desc"`
	Limit             int    `query:"limit" validate:"gte=0,lte=200"`
	Skip              int    `query:"skip" validate:"gte=0"`
}

// ToFilters converts the query into repository filters
func (r *ListShiftsRequest) ToFilters() (repositories.ShiftFilters, error) {
	filters := repositories.ShiftFilters{
		ControllerID:  r.ControllerID,
		PriorityLevel: r.PriorityLevel,
		SortBy:        r.SortBy,
		SortOrder:     r.SortOrder,
		Limit:         r.Limit,
		Offset:        r.Skip,
	}
	if r.Status != "" {
		status := entities.Status(r.Status)
		filters.Status = &status
	}
	if r.RequiresAttention != "" {
		flag, err := strconv.ParseBool(r.RequiresAttention)
		if err != nil {
			return filters, fmt.Errorf("requires_attention: %w", err)
		}
		filters.RequiresAttention = &flag
	}
	if r.MinFatigueScore != "" {
		score, err := strconv.ParseFloat(r.MinFatigueScore, 64)
		if err != nil {
			return filters, fmt.Errorf("min_fatigue_score: %w", err)
		}
		filters.MinFatigueScore = &score
	}
	return filters, nil
}

// HighRiskRequest represents query parameters for the high-risk view
type HighRiskRequest struct {
	FatigueThreshold float64 `query:"fatigue_threshold" validate:"gte=0,lte=100"`
	Limit            int     `query:"limit" validate:"gte=0,lte=200"`
	Skip             int     `query:"skip" validate:"gte=0"`
}

// PageRequest represents plain pagination parameters
type PageRequest struct {
	Limit int `query:"limit" validate:"gte=0,lte=200"`
	Skip  int `query:"skip" validate:"gte=0"`
}
