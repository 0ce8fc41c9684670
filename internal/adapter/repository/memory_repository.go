package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
)

// MemoryShiftRepository keeps shifts in process memory. Records are copied on
// the way in and out so callers never share state with the store.
type MemoryShiftRepository struct {
	mu     sync.RWMutex
	shifts map[string]*entities.Shift
}

// NewMemoryShiftRepository creates an empty in-memory shift repository
func NewMemoryShiftRepository() *MemoryShiftRepository {
	return &MemoryShiftRepository{shifts: make(map[string]*entities.Shift)}
}

var _ repositories.ShiftRepository = (*MemoryShiftRepository)(nil)

func (r *MemoryShiftRepository) Create(_ context.Context, shift *entities.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.shifts[shift.ShiftID]; exists {
		return entities.ErrShiftAlreadyExists
	}
	r.shifts[shift.ShiftID] = clone(shift)
	return nil
}

func (r *MemoryShiftRepository) FindByShiftID(_ context.Context, shiftID string) (*entities.Shift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.shifts[shiftID]
	if !ok {
		return nil, nil
	}
	return clone(s), nil
}

func (r *MemoryShiftRepository) List(_ context.Context, filters repositories.ShiftFilters) ([]*entities.Shift, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*entities.Shift
	for _, s := range r.shifts {
		if !matchShift(s, filters) {
			continue
		}
		matched = append(matched, s)
	}

	sortShifts(matched, filters.SortBy, filters.SortOrder)
	total := int64(len(matched))
	matched = paginate(matched, filters.Limit, filters.Offset)

	out := make([]*entities.Shift, 0, len(matched))
	for _, s := range matched {
		out = append(out, clone(s))
	}
	return out, total, nil
}

func (r *MemoryShiftRepository) Update(_ context.Context, shiftID string, update entities.ShiftUpdate) (*entities.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shifts[shiftID]
	if !ok {
		return nil, entities.ErrShiftNotFound
	}
	if !statusIn(s.Status, update.ExpectedStatus) {
		return nil, entities.ErrStatusConflict
	}
	update.Apply(s, time.Now().UTC())
	return clone(s), nil
}

func (r *MemoryShiftRepository) Delete(_ context.Context, shiftID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shifts[shiftID]; !ok {
		return entities.ErrShiftNotFound
	}
	delete(r.shifts, shiftID)
	return nil
}

func (r *MemoryShiftRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.shifts)), nil
}

func (r *MemoryShiftRepository) CountByStatus(_ context.Context) (map[entities.Status]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[entities.Status]int64)
	for _, s := range r.shifts {
		counts[s.Status]++
	}
	return counts, nil
}

// MemoryTranscriptionRepository keeps transcriptions in process memory
type MemoryTranscriptionRepository struct {
	mu    sync.RWMutex
	items map[string]*entities.Transcription
}

// NewMemoryTranscriptionRepository creates an empty in-memory transcription repository
func NewMemoryTranscriptionRepository() *MemoryTranscriptionRepository {
	return &MemoryTranscriptionRepository{items: make(map[string]*entities.Transcription)}
}

var _ repositories.TranscriptionRepository = (*MemoryTranscriptionRepository)(nil)

func (r *MemoryTranscriptionRepository) Create(_ context.Context, t *entities.Transcription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[t.ShiftID]; exists {
		return entities.ErrTranscriptionAlreadyExists
	}
	r.items[t.ShiftID] = clone(t)
	return nil
}

func (r *MemoryTranscriptionRepository) FindByShiftID(_ context.Context, shiftID string) (*entities.Transcription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[shiftID]
	if !ok {
		return nil, nil
	}
	return clone(t), nil
}

func (r *MemoryTranscriptionRepository) List(_ context.Context, filters repositories.TranscriptionFilters) ([]*entities.Transcription, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*entities.Transcription
	for _, t := range r.items {
		if filters.ControllerID != "" && t.ControllerID != filters.ControllerID {
			continue
		}
		if filters.Status != nil && t.Status != *filters.Status {
			continue
		}
		if filters.UpdatedBefore != nil && !t.UpdatedAt.Before(*filters.UpdatedBefore) {
			continue
		}
		matched = append(matched, t)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	matched = paginate(matched, filters.Limit, filters.Offset)

	out := make([]*entities.Transcription, 0, len(matched))
	for _, t := range matched {
		out = append(out, clone(t))
	}
	return out, total, nil
}

func (r *MemoryTranscriptionRepository) Update(_ context.Context, shiftID string, update entities.TranscriptionUpdate) (*entities.Transcription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[shiftID]
	if !ok {
		return nil, entities.ErrTranscriptionNotFound
	}
	if !statusIn(t.Status, update.ExpectedStatus) {
		return nil, entities.ErrStatusConflict
	}
	update.Apply(t, time.Now().UTC())
	return clone(t), nil
}

func (r *MemoryTranscriptionRepository) Delete(_ context.Context, shiftID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[shiftID]; !ok {
		return entities.ErrTranscriptionNotFound
	}
	delete(r.items, shiftID)
	return nil
}

func (r *MemoryTranscriptionRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}

func (r *MemoryTranscriptionRepository) CountByStatus(_ context.Context) (map[entities.Status]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[entities.Status]int64)
	for _, t := range r.items {
		counts[t.Status]++
	}
	return counts, nil
}

func matchShift(s *entities.Shift, f repositories.ShiftFilters) bool {
	if f.ControllerID != "" && s.ControllerID != f.ControllerID {
		return false
	}
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	if f.PriorityLevel != "" && s.PriorityLevel != f.PriorityLevel {
		return false
	}
	if f.RequiresAttention != nil && s.RequiresAttention != *f.RequiresAttention {
		return false
	}
	if f.MinFatigueScore != nil && (s.FatigueScore == nil || *s.FatigueScore < *f.MinFatigueScore) {
		return false
	}
	if f.UpdatedBefore != nil && !s.UpdatedAt.Before(*f.UpdatedBefore) {
		return false
	}
	return true
}

func sortShifts(shifts []*entities.Shift, sortBy, sortOrder string) {
	asc := strings.EqualFold(sortOrder, "asc")
	sort.SliceStable(shifts, func(i, j int) bool {
		a, b := shifts[i], shifts[j]
		switch sortBy {
		case "fatigue_score":
			// nulls last in both directions
			if a.FatigueScore == nil || b.FatigueScore == nil {
				return a.FatigueScore != nil && b.FatigueScore == nil
			}
			if asc {
				return *a.FatigueScore < *b.FatigueScore
			}
			return *a.FatigueScore > *b.FatigueScore
		case "updated_at":
			if asc {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
			return a.UpdatedAt.After(b.UpdatedAt)
		default:
			if asc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
}

func statusIn(current entities.Status, expected []entities.Status) bool {
	if len(expected) == 0 {
		return true
	}
	for _, s := range expected {
		if s == current {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// clone deep-copies a record through its JSON form
func clone[T any](v *T) *T {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}
