package repository

import (
	"context"
	"testing"
	"time"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/infrastructure/cache"
)

type countingShiftRepository struct {
	*MemoryShiftRepository
	finds int
	// afterFind runs once the backing read returned
	afterFind func()
}

func (r *countingShiftRepository) FindByShiftID(ctx context.Context, shiftID string) (*entities.Shift, error) {
	r.finds++
	s, err := r.MemoryShiftRepository.FindByShiftID(ctx, shiftID)
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return s, err
}

func TestCachedShiftRepository_ReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	inner := &countingShiftRepository{MemoryShiftRepository: NewMemoryShiftRepository()}
	store := cache.NewMemoryStore()
	defer store.Close()

	repo := NewCachedShiftRepository(inner, store, time.Minute, nil)
	if err := repo.Create(ctx, newShift("S-1", "C-1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if s, err := repo.FindByShiftID(ctx, "S-1"); err != nil || s == nil {
			t.Fatalf("find failed: %v", err)
		}
	}
	if inner.finds != 1 {
		t.Fatalf("expected one backing read got %d", inner.finds)
	}

	level := "high"
	if _, err := repo.Update(ctx, "S-1", entities.ShiftUpdate{PriorityLevel: &level}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	s, _ := repo.FindByShiftID(ctx, "S-1")
	if s.PriorityLevel != "high" {
		t.Fatalf("stale report served after update")
	}
	if inner.finds != 2 {
		t.Fatalf("expected a backing read after invalidation got %d", inner.finds)
	}

	if err := repo.Delete(ctx, "S-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if s, _ := repo.FindByShiftID(ctx, "S-1"); s != nil {
		t.Fatalf("deleted shift still served")
	}
}

func TestCachedShiftRepository_MissingIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	defer store.Close()

	repo := NewCachedShiftRepository(NewMemoryShiftRepository(), store, time.Minute, nil)
	if s, err := repo.FindByShiftID(ctx, "S-9"); s != nil || err != nil {
		t.Fatalf("expected nil, nil got %v, %v", s, err)
	}
	if _, err := store.Get(ctx, "shift:S-9"); err != cache.ErrMiss {
		t.Fatalf("expected miss for absent shift got %v", err)
	}
}

func TestCachedShiftRepository_WriteDuringReadSkipsFill(t *testing.T) {
	ctx := context.Background()
	inner := &countingShiftRepository{MemoryShiftRepository: NewMemoryShiftRepository()}
	store := cache.NewMemoryStore()
	defer store.Close()

	repo := NewCachedShiftRepository(inner, store, time.Minute, nil)
	if err := repo.Create(ctx, newShift("S-1", "C-1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	level := "high"
	inner.afterFind = func() {
		if _, err := repo.Update(ctx, "S-1", entities.ShiftUpdate{PriorityLevel: &level}); err != nil {
			t.Errorf("update failed: %v", err)
		}
	}
	if s, _ := repo.FindByShiftID(ctx, "S-1"); s == nil || s.PriorityLevel != "" {
		t.Fatalf("expected the record as loaded before the update got %+v", s)
	}

	s, _ := repo.FindByShiftID(ctx, "S-1")
	if s == nil || s.PriorityLevel != "high" {
		t.Fatalf("pre-update record was cached: %+v", s)
	}
	if inner.finds != 2 {
		t.Fatalf("expected a second backing read got %d", inner.finds)
	}
}

func TestCachedShiftRepository_ProcessingIsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingShiftRepository{MemoryShiftRepository: NewMemoryShiftRepository()}
	store := cache.NewMemoryStore()
	defer store.Close()

	repo := NewCachedShiftRepository(inner, store, time.Minute, nil)
	if err := repo.Create(ctx, newShift("S-1", "C-1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	processing := entities.StatusProcessing
	if _, err := inner.Update(ctx, "S-1", entities.ShiftUpdate{Status: &processing}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if s, _ := repo.FindByShiftID(ctx, "S-1"); s == nil || s.Status != entities.StatusProcessing {
			t.Fatalf("unexpected record %+v", s)
		}
	}
	if inner.finds != 2 {
		t.Fatalf("processing records should always be read through, got %d reads", inner.finds)
	}
}
