package repositories

import (
	"context"
	"time"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
)

// ShiftFilters narrows a shift listing. Zero values mean "any".
type ShiftFilters struct {
	ControllerID      string
	Status            *entities.Status
	PriorityLevel     string
	RequiresAttention *bool
	MinFatigueScore   *float64
	UpdatedBefore     *time.Time
	SortBy            string // created_at (default), updated_at or fatigue_score
	SortOrder         string // asc or desc (default)
	Limit             int
	Offset            int
}

// ShiftRepository defines persistence operations for shifts
type ShiftRepository interface {
	// Create stores a new shift; a duplicate shift_id returns entities.ErrShiftAlreadyExists
	Create(ctx context.Context, shift *entities.Shift) error
	// FindByShiftID returns nil, nil when the shift does not exist
	FindByShiftID(ctx context.Context, shiftID string) (*entities.Shift, error)
	List(ctx context.Context, filters ShiftFilters) ([]*entities.Shift, int64, error)
	// Update merges the patch and returns the stored record
	Update(ctx context.Context, shiftID string, update entities.ShiftUpdate) (*entities.Shift, error)
	Delete(ctx context.Context, shiftID string) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[entities.Status]int64, error)
}
