package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Transcription is the stitched transcript of a shift recording
type Transcription struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShiftMetadata

	Status         Status    `json:"status" gorm:"type:varchar(32);not null;index;default:'processing'"`
	OriginalFile   string    `json:"original_file" gorm:"type:varchar(255)"`
	AudioObjectKey string    `json:"audio_object_key,omitempty" gorm:"type:text"`
	FullText       string    `json:"transcription" gorm:"column:full_text;type:text"`
	Language       string    `json:"language,omitempty" gorm:"type:varchar(20)"`
	Segments       []Segment `json:"segments" gorm:"type:jsonb;serializer:json"`
	ChunkCount     int       `json:"chunk_count" gorm:"type:integer;default:0"`
	LastError      *string   `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Transcription) TableName() string {
	return "transcriptions"
}

// NewTranscription creates a transcription that is waiting for its audio to be processed
func NewTranscription(meta ShiftMetadata, originalFile, objectKey string) *Transcription {
	now := time.Now().UTC()
	return &Transcription{
		ID:             uuid.New(),
		ShiftMetadata:  meta,
		Status:         StatusProcessing,
		OriginalFile:   originalFile,
		AudioObjectKey: objectKey,
		Segments:       []Segment{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TranscriptionUpdate is a partial update of a transcription. Nil fields are left unchanged.
type TranscriptionUpdate struct {
	ExpectedStatus []Status

	Status   *Status
	Metadata *MetadataPatch

	FullText   *string
	Language   *string
	Segments   *[]Segment
	ChunkCount *int
	LastError  *string
	ClearError bool
}

// Apply writes the update onto t and refreshes UpdatedAt
func (u TranscriptionUpdate) Apply(t *Transcription, now time.Time) {
	if u.ClearError {
		t.LastError = nil
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	u.Metadata.Apply(&t.ShiftMetadata)
	if u.FullText != nil {
		t.FullText = *u.FullText
	}
	if u.Language != nil {
		t.Language = *u.Language
	}
	if u.Segments != nil {
		t.Segments = append([]Segment(nil), (*u.Segments)...)
	}
	if u.ChunkCount != nil {
		t.ChunkCount = *u.ChunkCount
	}
	if u.LastError != nil {
		msg := *u.LastError
		t.LastError = &msg
	}
	t.UpdatedAt = now
}

// Columns returns the column updates for persistence layers that write by column
func (u TranscriptionUpdate) Columns(now time.Time) map[string]interface{} {
	cols := u.Metadata.Columns()
	if u.ClearError {
		cols["last_error"] = nil
	}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.FullText != nil {
		cols["full_text"] = *u.FullText
	}
	if u.Language != nil {
		cols["language"] = *u.Language
	}
	if u.Segments != nil {
		raw, _ := json.Marshal(*u.Segments)
		cols["segments"] = datatypes.JSON(raw)
	}
	if u.ChunkCount != nil {
		cols["chunk_count"] = *u.ChunkCount
	}
	if u.LastError != nil {
		cols["last_error"] = *u.LastError
	}
	cols["updated_at"] = now
	return cols
}
