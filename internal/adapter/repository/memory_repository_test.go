package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
)

func newShift(id, controller string) *entities.Shift {
	return entities.NewShift(entities.ShiftMetadata{ShiftID: id, ControllerID: controller})
}

func TestMemoryShiftRepository_CreateDuplicate(t *testing.T) {
	repo := NewMemoryShiftRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newShift("S-1", "C-1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	err := repo.Create(ctx, newShift("S-1", "C-2"))
	if !errors.Is(err, entities.ErrShiftAlreadyExists) {
		t.Fatalf("expected ErrShiftAlreadyExists got %v", err)
	}

	got, _ := repo.FindByShiftID(ctx, "S-1")
	if got.ControllerID != "C-1" {
		t.Fatalf("duplicate create overwrote the stored shift")
	}
}

func TestMemoryShiftRepository_FindMissing(t *testing.T) {
	repo := NewMemoryShiftRepository()
	got, err := repo.FindByShiftID(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil got %v, %v", got, err)
	}
}

func TestMemoryShiftRepository_ConditionalUpdate(t *testing.T) {
	repo := NewMemoryShiftRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, newShift("S-1", "C-1"))

	processing := entities.StatusProcessing
	updated, err := repo.Update(ctx, "S-1", entities.ShiftUpdate{
		ExpectedStatus: []entities.Status{entities.StatusQueued},
		Status:         &processing,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != entities.StatusProcessing {
		t.Fatalf("expected processing got %s", updated.Status)
	}

	_, err = repo.Update(ctx, "S-1", entities.ShiftUpdate{
		ExpectedStatus: []entities.Status{entities.StatusQueued},
		Status:         &processing,
	})
	if !errors.Is(err, entities.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict got %v", err)
	}

	_, err = repo.Update(ctx, "missing", entities.ShiftUpdate{Status: &processing})
	if !errors.Is(err, entities.ErrShiftNotFound) {
		t.Fatalf("expected ErrShiftNotFound got %v", err)
	}
}

func TestMemoryShiftRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryShiftRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, newShift("S-1", "C-1"))

	got, _ := repo.FindByShiftID(ctx, "S-1")
	got.ControllerID = "mutated"

	again, _ := repo.FindByShiftID(ctx, "S-1")
	if again.ControllerID != "C-1" {
		t.Fatalf("stored shift was mutated through a returned copy")
	}
}

func TestMemoryShiftRepository_ClearAnalyses(t *testing.T) {
	repo := NewMemoryShiftRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, newShift("S-1", "C-1"))

	score := 72.0
	attention := true
	_, _ = repo.Update(ctx, "S-1", entities.ShiftUpdate{
		FatigueAnalysis:   map[string]interface{}{"fatigue_score": "72"},
		FatigueScore:      &score,
		RequiresAttention: &attention,
	})

	got, err := repo.Update(ctx, "S-1", entities.ShiftUpdate{ClearAnalyses: true})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.HasFatigue() || got.FatigueScore != nil || got.RequiresAttention {
		t.Fatalf("expected cleared analyses got %+v", got)
	}
}

func TestMemoryShiftRepository_ListFilters(t *testing.T) {
	repo := NewMemoryShiftRepository()
	ctx := context.Background()

	for i, id := range []string{"S-1", "S-2", "S-3"} {
		s := newShift(id, "C-1")
		if i == 2 {
			s.ControllerID = "C-2"
		}
		_ = repo.Create(ctx, s)
	}
	high, low := 85.0, 30.0
	_, _ = repo.Update(ctx, "S-1", entities.ShiftUpdate{FatigueScore: &high})
	_, _ = repo.Update(ctx, "S-2", entities.ShiftUpdate{FatigueScore: &low})

	items, total, err := repo.List(ctx, repositories.ShiftFilters{ControllerID: "C-1"})
	if err != nil || total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 shifts for C-1 got %d (%v)", total, err)
	}

	threshold := 70.0
	items, total, _ = repo.List(ctx, repositories.ShiftFilters{MinFatigueScore: &threshold})
	if total != 1 || items[0].ShiftID != "S-1" {
		t.Fatalf("expected only S-1 above threshold got %d", total)
	}

	items, _, _ = repo.List(ctx, repositories.ShiftFilters{SortBy: "fatigue_score"})
	if items[0].ShiftID != "S-1" || items[2].ShiftID != "S-3" {
		t.Fatalf("unexpected fatigue order %s %s %s", items[0].ShiftID, items[1].ShiftID, items[2].ShiftID)
	}

	items, total, _ = repo.List(ctx, repositories.ShiftFilters{Limit: 1, Offset: 1})
	if total != 3 || len(items) != 1 {
		t.Fatalf("expected one item of three got %d of %d", len(items), total)
	}
}

func TestMemoryTranscriptionRepository_Lifecycle(t *testing.T) {
	repo := NewMemoryTranscriptionRepository()
	ctx := context.Background()

	tr := entities.NewTranscription(entities.ShiftMetadata{ShiftID: "S-1", ControllerID: "C-1"}, "shift.wav", "shifts/S-1/shift.wav")
	if err := repo.Create(ctx, tr); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(ctx, tr); !errors.Is(err, entities.ErrTranscriptionAlreadyExists) {
		t.Fatalf("expected ErrTranscriptionAlreadyExists got %v", err)
	}

	completed := entities.StatusCompleted
	text := "climb and maintain"
	segments := []entities.Segment{{ID: 0, Start: 0, End: 2, Speaker: entities.SpeakerController, Text: text}}
	got, err := repo.Update(ctx, "S-1", entities.TranscriptionUpdate{
		ExpectedStatus: []entities.Status{entities.StatusProcessing},
		Status:         &completed,
		FullText:       &text,
		Segments:       &segments,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.Status != entities.StatusCompleted || len(got.Segments) != 1 || got.FullText != text {
		t.Fatalf("unexpected transcription %+v", got)
	}

	counts, _ := repo.CountByStatus(ctx)
	if counts[entities.StatusCompleted] != 1 {
		t.Fatalf("expected one completed transcription got %v", counts)
	}
}
