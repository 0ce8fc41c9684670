package transcription

import (
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
)

// ListTranscriptionsRequest represents query parameters for listing transcriptions
type ListTranscriptionsRequest struct {
	ControllerID string `query:"controller_id"`
	Status       string `query:"status" validate:"omitempty,oneof=queued processing completed error"`
	Limit        int    `query:"limit" validate:"gte=0,lte=200"`
	Skip         int    `query:"skip" validate:"gte=0"`
}

// ToFilters converts the query into repository filters
func (r *ListTranscriptionsRequest) ToFilters() repositories.TranscriptionFilters {
	filters := repositories.TranscriptionFilters{
		ControllerID: r.ControllerID,
		Limit:        r.Limit,
		Offset:       r.Skip,
	}
	if r.Status != "" {
		status := entities.Status(r.Status)
		filters.Status = &status
	}
	return filters
}
