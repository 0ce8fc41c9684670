package repositories

import (
	"context"
	"time"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
)

// TranscriptionFilters narrows a transcription listing
type TranscriptionFilters struct {
	ControllerID  string
	Status        *entities.Status
	UpdatedBefore *time.Time
	Limit         int
	Offset        int
}

// TranscriptionRepository defines persistence operations for transcriptions
type TranscriptionRepository interface {
	// Create stores a new transcription; a duplicate shift_id returns entities.ErrTranscriptionAlreadyExists
	Create(ctx context.Context, t *entities.Transcription) error
	// FindByShiftID returns nil, nil when the transcription does not exist
	FindByShiftID(ctx context.Context, shiftID string) (*entities.Transcription, error)
	List(ctx context.Context, filters TranscriptionFilters) ([]*entities.Transcription, int64, error)
	Update(ctx context.Context, shiftID string, update entities.TranscriptionUpdate) (*entities.Transcription, error)
	Delete(ctx context.Context, shiftID string) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[entities.Status]int64, error)
}
