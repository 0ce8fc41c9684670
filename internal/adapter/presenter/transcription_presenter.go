package presenter

import (
	"github.com/johnquangdev/atc-shift-analyzer/internal/adapter/dto/transcription"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
)

// ToTranscriptionResponse converts a Transcription entity. Segments are left
// out of list views to keep pages small.
func ToTranscriptionResponse(t *entities.Transcription, withSegments bool) *transcription.TranscriptionResponse {
	if t == nil {
		return nil
	}

	resp := &transcription.TranscriptionResponse{
		ID:              t.ID.String(),
		ShiftID:         t.ShiftID,
		ControllerID:    t.ControllerID,
		Facility:        t.Facility,
		Position:        t.Position,
		ScheduleType:    t.ScheduleType,
		StartTime:       t.StartTime,
		EndTime:         t.EndTime,
		TrafficCountAvg: t.TrafficCountAvg,
		Status:          string(t.Status),
		OriginalFile:    t.OriginalFile,
		Transcription:   t.FullText,
		Language:        t.Language,
		SegmentCount:    len(t.Segments),
		ChunkCount:      t.ChunkCount,
		LastError:       t.LastError,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}

	if withSegments {
		resp.Segments = make([]*transcription.SegmentResponse, len(t.Segments))
		for i, s := range t.Segments {
			resp.Segments[i] = &transcription.SegmentResponse{
				ID:      s.ID,
				Start:   s.Start,
				End:     s.End,
				Speaker: string(s.Speaker),
				Text:    s.Text,
			}
		}
	}
	return resp
}

// ToTranscriptionListResponse converts a page of transcriptions
func ToTranscriptionListResponse(items []*entities.Transcription, total int64, limit, skip int) *transcription.TranscriptionListResponse {
	out := make([]*transcription.TranscriptionResponse, len(items))
	for i, t := range items {
		out[i] = ToTranscriptionResponse(t, false)
	}
	return &transcription.TranscriptionListResponse{
		Items: out,
		Total: total,
		Limit: limit,
		Skip:  skip,
	}
}
