package shift

import (
	"time"
)

// ShiftResponse represents a shift with its analysis results
type ShiftResponse struct {
	ID                string                 `json:"id"`
	ShiftID           string                 `json:"shift_id"`
	ControllerID      string                 `json:"controller_id"`
	Facility          string                 `json:"facility,omitempty"`
	Position          string                 `json:"position,omitempty"`
	ScheduleType      string                 `json:"schedule_type,omitempty"`
	StartTime         string                 `json:"start_time,omitempty"`
	EndTime           string                 `json:"end_time,omitempty"`
	TrafficCountAvg   int                    `json:"traffic_count_avg"`
	Status            string                 `json:"status"`
	FatigueAnalysis   map[string]interface{} `json:"fatigue_analysis,omitempty"`
	SafetyAnalysis    map[string]interface{} `json:"safety_analysis,omitempty"`
	SupervisorSummary map[string]interface{} `json:"supervisor_summary,omitempty"`
	FatigueScore      *float64               `json:"fatigue_score,omitempty"`
	RequiresAttention bool                   `json:"requires_attention"`
	PriorityLevel     string                 `json:"priority_level,omitempty"`
	FailedStage       string                 `json:"failed_stage,omitempty"`
	LastError         *string                `json:"last_error,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// ShiftListResponse represents a page of shifts
type ShiftListResponse struct {
	Items []*ShiftResponse `json:"items"`
	Total int64            `json:"total"`
	Limit int              `json:"limit"`
	Skip  int              `json:"skip"`
}

// StatsResponse represents per-status counts
type StatsResponse struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}
