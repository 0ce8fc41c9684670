package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ShiftMetadata describes a controller shift as submitted by the facility.
// Start and end times are kept as the submitted ISO-8601 strings.
type ShiftMetadata struct {
	ShiftID         string `json:"shift_id" gorm:"type:varchar(128);uniqueIndex;not null"`
	ControllerID    string `json:"controller_id" gorm:"type:varchar(128);not null;index"`
	Facility        string `json:"facility" gorm:"type:varchar(128)"`
	Position        string `json:"position" gorm:"type:varchar(128)"`
	ScheduleType    string `json:"schedule_type" gorm:"type:varchar(64)"`
	StartTime       string `json:"start_time" gorm:"type:varchar(64)"`
	EndTime         string `json:"end_time" gorm:"type:varchar(64)"`
	TrafficCountAvg int    `json:"traffic_count_avg" gorm:"type:integer;default:0"`
}

// MetadataPatch carries a metadata correction; nil fields are left unchanged
type MetadataPatch struct {
	ControllerID    *string
	Facility        *string
	Position        *string
	ScheduleType    *string
	StartTime       *string
	EndTime         *string
	TrafficCountAvg *int
}

// IsEmpty reports whether the patch changes nothing
func (p *MetadataPatch) IsEmpty() bool {
	return p == nil || (p.ControllerID == nil && p.Facility == nil && p.Position == nil &&
		p.ScheduleType == nil && p.StartTime == nil && p.EndTime == nil && p.TrafficCountAvg == nil)
}

// Apply writes the patch onto m
func (p *MetadataPatch) Apply(m *ShiftMetadata) {
	if p == nil {
		return
	}
	if p.ControllerID != nil {
		m.ControllerID = *p.ControllerID
	}
	if p.Facility != nil {
		m.Facility = *p.Facility
	}
	if p.Position != nil {
		m.Position = *p.Position
	}
	if p.ScheduleType != nil {
		m.ScheduleType = *p.ScheduleType
	}
	if p.StartTime != nil {
		m.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		m.EndTime = *p.EndTime
	}
	if p.TrafficCountAvg != nil {
		m.TrafficCountAvg = *p.TrafficCountAvg
	}
}

// Columns returns the column updates for the patch
func (p *MetadataPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p == nil {
		return cols
	}
	if p.ControllerID != nil {
		cols["controller_id"] = *p.ControllerID
	}
	if p.Facility != nil {
		cols["facility"] = *p.Facility
	}
	if p.Position != nil {
		cols["position"] = *p.Position
	}
	if p.ScheduleType != nil {
		cols["schedule_type"] = *p.ScheduleType
	}
	if p.StartTime != nil {
		cols["start_time"] = *p.StartTime
	}
	if p.EndTime != nil {
		cols["end_time"] = *p.EndTime
	}
	if p.TrafficCountAvg != nil {
		cols["traffic_count_avg"] = *p.TrafficCountAvg
	}
	return cols
}

// Shift is the aggregate record for one analysed controller shift
type Shift struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShiftMetadata

	Status Status `json:"status" gorm:"type:varchar(32);not null;index;default:'queued'"`

	// Stage results as returned by the model; empty means the stage has not produced one
	FatigueAnalysis datatypes.JSONMap `json:"fatigue_analysis,omitempty" gorm:"type:jsonb"`
	SafetyAnalysis  datatypes.JSONMap `json:"safety_analysis,omitempty" gorm:"type:jsonb"`
	Summary         datatypes.JSONMap `json:"summary,omitempty" gorm:"column:supervisor_summary;type:jsonb"`

	// Denormalised for filtering
	FatigueScore      *float64 `json:"fatigue_score,omitempty" gorm:"index"`
	RequiresAttention bool     `json:"requires_attention" gorm:"not null;default:false;index"`
	PriorityLevel     string   `json:"priority_level,omitempty" gorm:"type:varchar(32);index"`

	FailedStage string  `json:"failed_stage,omitempty" gorm:"type:varchar(32)"`
	LastError   *string `json:"last_error,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Shift) TableName() string {
	return "shifts"
}

// NewShift creates a queued shift
func NewShift(meta ShiftMetadata) *Shift {
	now := time.Now().UTC()
	return &Shift{
		ID:            uuid.New(),
		ShiftMetadata: meta,
		Status:        StatusQueued,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// HasFatigue reports whether a fatigue result is attached
func (s *Shift) HasFatigue() bool { return len(s.FatigueAnalysis) > 0 }

// HasSafety reports whether a safety result is attached
func (s *Shift) HasSafety() bool { return len(s.SafetyAnalysis) > 0 }

// HasSummary reports whether a supervisor summary is attached
func (s *Shift) HasSummary() bool { return len(s.Summary) > 0 }

// ShiftUpdate is a partial update of a shift. Nil fields are left unchanged.
type ShiftUpdate struct {
	// ExpectedStatus makes the update conditional on the current status
	ExpectedStatus []Status

	Status   *Status
	Metadata *MetadataPatch

	// ClearAnalyses drops all stage results and their derived columns before the
	// other fields are applied
	ClearAnalyses bool

	FatigueAnalysis map[string]interface{}
	SafetyAnalysis  map[string]interface{}
	Summary         map[string]interface{}

	FatigueScore      *float64
	RequiresAttention *bool
	PriorityLevel     *string

	FailedStage *string
	LastError   *string
	ClearError  bool
}

// Apply writes the update onto s and refreshes UpdatedAt
func (u ShiftUpdate) Apply(s *Shift, now time.Time) {
	if u.ClearAnalyses {
		s.FatigueAnalysis = nil
		s.SafetyAnalysis = nil
		s.Summary = nil
		s.FatigueScore = nil
		s.RequiresAttention = false
		s.PriorityLevel = ""
	}
	if u.ClearError {
		s.FailedStage = ""
		s.LastError = nil
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	u.Metadata.Apply(&s.ShiftMetadata)
	if u.FatigueAnalysis != nil {
		s.FatigueAnalysis = datatypes.JSONMap(u.FatigueAnalysis)
	}
	if u.SafetyAnalysis != nil {
		s.SafetyAnalysis = datatypes.JSONMap(u.SafetyAnalysis)
	}
	if u.Summary != nil {
		s.Summary = datatypes.JSONMap(u.Summary)
	}
	if u.FatigueScore != nil {
		score := *u.FatigueScore
		s.FatigueScore = &score
	}
	if u.RequiresAttention != nil {
		s.RequiresAttention = *u.RequiresAttention
	}
	if u.PriorityLevel != nil {
		s.PriorityLevel = *u.PriorityLevel
	}
	if u.FailedStage != nil {
		s.FailedStage = *u.FailedStage
	}
	if u.LastError != nil {
		msg := *u.LastError
		s.LastError = &msg
	}
	s.UpdatedAt = now
}

// Columns returns the column updates for persistence layers that write by column
func (u ShiftUpdate) Columns(now time.Time) map[string]interface{} {
	cols := u.Metadata.Columns()
	if u.ClearAnalyses {
		cols["fatigue_analysis"] = nil
		cols["safety_analysis"] = nil
		cols["supervisor_summary"] = nil
		cols["fatigue_score"] = nil
		cols["requires_attention"] = false
		cols["priority_level"] = ""
	}
	if u.ClearError {
		cols["failed_stage"] = ""
		cols["last_error"] = nil
	}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.FatigueAnalysis != nil {
		cols["fatigue_analysis"] = datatypes.JSONMap(u.FatigueAnalysis)
	}
	if u.SafetyAnalysis != nil {
		cols["safety_analysis"] = datatypes.JSONMap(u.SafetyAnalysis)
	}
	if u.Summary != nil {
		cols["supervisor_summary"] = datatypes.JSONMap(u.Summary)
	}
	if u.FatigueScore != nil {
		cols["fatigue_score"] = *u.FatigueScore
	}
	if u.RequiresAttention != nil {
		cols["requires_attention"] = *u.RequiresAttention
	}
	if u.PriorityLevel != nil {
		cols["priority_level"] = *u.PriorityLevel
	}
	if u.FailedStage != nil {
		cols["failed_stage"] = *u.FailedStage
	}
	if u.LastError != nil {
		cols["last_error"] = *u.LastError
	}
	cols["updated_at"] = now
	return cols
}
