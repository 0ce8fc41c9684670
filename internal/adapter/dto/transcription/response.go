package transcription

import (
	"time"

	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/dto/shift"
)

// SegmentResponse represents one transmission
type SegmentResponse struct {
	ID      int     `json:"id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
}

// TranscriptionResponse represents a transcription document
type TranscriptionResponse struct {
	ID              string             `json:"id"`
	ShiftID         string             `json:"shift_id"`
	ControllerID    string             `json:"controller_id"`
	Facility        string             `json:"facility,omitempty"`
	Position        string             `json:"position,omitempty"`
	ScheduleType    string             `json:"schedule_type,omitempty"`
	StartTime       string             `json:"start_time,omitempty"`
	EndTime         string             `json:"end_time,omitempty"`
	TrafficCountAvg int                `json:"traffic_count_avg"`
	Status          string             `json:"status"`
	OriginalFile    string             `json:"original_file,omitempty"`
	Transcription   string             `json:"transcription"`
	Language        string             `json:"language,omitempty"`
	Segments        []*SegmentResponse `json:"segments,omitempty"`
	SegmentCount    int                `json:"segment_count"`
	ChunkCount      int                `json:"chunk_count"`
	LastError       *string            `json:"last_error,omitempty"`
	Failure         *FailureResponse   `json:"failure,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// FailureResponse describes why the last transcription run ended in error
type FailureResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// TranscriptionListResponse represents a page of transcriptions
type TranscriptionListResponse struct {
	Items []*TranscriptionResponse `json:"items"`
	Total int64                    `json:"total"`
	Limit int                      `json:"limit"`
	Skip  int                      `json:"skip"`
}

// IngestResponse is returned when an upload has been accepted
type IngestResponse struct {
	Shift         *shift.ShiftResponse   `json:"shift"`
	Transcription *TranscriptionResponse `json:"transcription"`
}
