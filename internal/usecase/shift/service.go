package shift

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
	ucerrors "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/errors"
)

const (
	DefaultListLimit        = 50
	MaxListLimit            = 200
	DefaultFatigueThreshold = 70.0
)

// Analyzer runs the analysis pipeline for one shift
type Analyzer interface {
	Run(ctx context.Context, shiftID string) (*entities.Shift, error)
}

// AudioRemover deletes stored recordings
type AudioRemover interface {
	Delete(ctx context.Context, key string) error
}

// Options tunes the shift service
type Options struct {
	// StaleAfter is how long a run may stay in processing before the sweeper fails it
	StaleAfter    time.Duration
	SweepInterval time.Duration
}

// Stats is the per-status breakdown of stored records
type Stats struct {
	Total    int64                     `json:"total"`
	ByStatus map[entities.Status]int64 `json:"by_status"`
}

// Service manages shift records and their analysis runs
type Service interface {
	Create(ctx context.Context, meta entities.ShiftMetadata) (*entities.Shift, error)
	Get(ctx context.Context, shiftID string) (*entities.Shift, error)
	List(ctx context.Context, filters repositories.ShiftFilters) ([]*entities.Shift, int64, error)
	UpdateMetadata(ctx context.Context, shiftID string, patch *entities.MetadataPatch) (*entities.Shift, error)
	Delete(ctx context.Context, shiftID string) error
	HighRisk(ctx context.Context, threshold float64, limit, offset int) ([]*entities.Shift, int64, error)
	AttentionRequired(ctx context.Context, limit, offset int) ([]*entities.Shift, int64, error)
	Stats(ctx context.Context) (*Stats, error)
	Analyze(ctx context.Context, shiftID string) (*entities.Shift, error)
	// AnalyzeAsync starts a run in the background; it is the completion hook
	// for finished transcriptions
	AnalyzeAsync(ctx context.Context, shiftID string)
	// Shutdown stops accepting background runs and waits for running ones
	Shutdown(ctx context.Context) error

	SweepStale(ctx context.Context) (int, error)
	StartSweeper(ctx context.Context) error
	StopSweeper() error
}

type shiftService struct {
	shiftRepo         repositories.ShiftRepository
	transcriptionRepo repositories.TranscriptionRepository
	analyzer          Analyzer
	audio             AudioRemover
	opts              Options
	logger            *zap.Logger

	runWg    sync.WaitGroup
	runCtx   context.Context
	stopRuns context.CancelFunc
	runMu    sync.Mutex
	closing  bool

	sweeperStopChan  chan struct{}
	sweeperWg        sync.WaitGroup
	isSweeperRunning bool
	sweeperMutex     sync.Mutex
}

// NewService creates a shift service. audio may be nil when recordings are not kept.
func NewService(
	shiftRepo repositories.ShiftRepository,
	transcriptionRepo repositories.TranscriptionRepository,
	analyzer Analyzer,
	audio AudioRemover,
	opts Options,
	logger *zap.Logger,
) Service {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 30 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 5 * time.Minute
	}
	runCtx, stopRuns := context.WithCancel(context.Background())
	return &shiftService{
		runCtx:            runCtx,
		stopRuns:          stopRuns,
		shiftRepo:         shiftRepo,
		transcriptionRepo: transcriptionRepo,
		analyzer:          analyzer,
		audio:             audio,
		opts:              opts,
		logger:            logger,
	}
}

// Create stores a new queued shift
func (s *shiftService) Create(ctx context.Context, meta entities.ShiftMetadata) (*entities.Shift, error) {
	shift := entities.NewShift(meta)
	if err := s.shiftRepo.Create(ctx, shift); err != nil {
		if errors.Is(err, entities.ErrShiftAlreadyExists) {
			return nil, ucerrors.ErrShiftAlreadyExists
		}
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("✅ Shift created",
			zap.String("shift_id", shift.ShiftID),
			zap.String("controller_id", shift.ControllerID),
		)
	}
	return shift, nil
}

func (s *shiftService) Get(ctx context.Context, shiftID string) (*entities.Shift, error) {
	shift, err := s.shiftRepo.FindByShiftID(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	if shift == nil {
		return nil, ucerrors.ErrShiftNotFound
	}
	return shift, nil
}

func (s *shiftService) List(ctx context.Context, filters repositories.ShiftFilters) ([]*entities.Shift, int64, error) {
	filters.Limit = clampLimit(filters.Limit)
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	shifts, total, err := s.shiftRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, total, nil
}

// UpdateMetadata corrects shift metadata and mirrors it onto the transcription
func (s *shiftService) UpdateMetadata(ctx context.Context, shiftID string, patch *entities.MetadataPatch) (*entities.Shift, error) {
	if patch.IsEmpty() {
		return nil, ucerrors.ErrEmptyPatch
	}

	updated, err := s.shiftRepo.Update(ctx, shiftID, entities.ShiftUpdate{Metadata: patch})
	if err != nil {
		if errors.Is(err, entities.ErrShiftNotFound) {
			return nil, ucerrors.ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to update shift: %w", err)
	}

	if _, err := s.transcriptionRepo.Update(ctx, shiftID, entities.TranscriptionUpdate{Metadata: patch}); err != nil &&
		!errors.Is(err, entities.ErrTranscriptionNotFound) {
		return nil, fmt.Errorf("failed to update transcription metadata: %w", err)
	}
	return updated, nil
}

// Delete removes the shift, its transcription and the stored recording
func (s *shiftService) Delete(ctx context.Context, shiftID string) error {
	tr, err := s.transcriptionRepo.FindByShiftID(ctx, shiftID)
	if err != nil {
		return fmt.Errorf("failed to load transcription: %w", err)
	}

	if err := s.shiftRepo.Delete(ctx, shiftID); err != nil {
		if errors.Is(err, entities.ErrShiftNotFound) {
			return ucerrors.ErrShiftNotFound
		}
		return fmt.Errorf("failed to delete shift: %w", err)
	}

	if tr == nil {
		return nil
	}
	if err := s.transcriptionRepo.Delete(ctx, shiftID); err != nil && !errors.Is(err, entities.ErrTranscriptionNotFound) {
		return fmt.Errorf("failed to delete transcription: %w", err)
	}
	if s.audio != nil && tr.AudioObjectKey != "" {
		if err := s.audio.Delete(ctx, tr.AudioObjectKey); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Failed to delete shift audio",
				zap.String("shift_id", shiftID),
				zap.String("key", tr.AudioObjectKey),
				zap.Error(err),
			)
		}
	}

	if s.logger != nil {
		s.logger.Info("🗑️ Shift deleted", zap.String("shift_id", shiftID))
	}
	return nil
}

// HighRisk lists shifts whose fatigue score is at least threshold, highest first
func (s *shiftService) HighRisk(ctx context.Context, threshold float64, limit, offset int) ([]*entities.Shift, int64, error) {
	if threshold <= 0 {
		threshold = DefaultFatigueThreshold
	}
	return s.List(ctx, repositories.ShiftFilters{
		MinFatigueScore: &threshold,
		SortBy:          "fatigue_score",
		SortOrder:       "desc",
		Limit:           limit,
		Offset:          offset,
	})
}

// AttentionRequired lists shifts flagged for supervisor review
func (s *shiftService) AttentionRequired(ctx context.Context, limit, offset int) ([]*entities.Shift, int64, error) {
	flagged := true
	return s.List(ctx, repositories.ShiftFilters{
		RequiresAttention: &flagged,
		SortBy:            "updated_at",
		Limit:             limit,
		Offset:            offset,
	})
}

func (s *shiftService) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.shiftRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count shifts: %w", err)
	}
	total, err := s.shiftRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count shifts: %w", err)
	}
	return &Stats{Total: total, ByStatus: entities.FillStatusCounts(counts)}, nil
}

// Analyze runs the full pipeline and waits for it
func (s *shiftService) Analyze(ctx context.Context, shiftID string) (*entities.Shift, error) {
	return s.analyzer.Run(ctx, shiftID)
}

// AnalyzeAsync outlives the caller's context; only Shutdown cancels the run
func (s *shiftService) AnalyzeAsync(ctx context.Context, shiftID string) {
	s.runMu.Lock()
	if s.closing {
		s.runMu.Unlock()
		if s.logger != nil {
			s.logger.Warn("⚠️ Skipping automatic analysis during shutdown", zap.String("shift_id", shiftID))
		}
		return
	}
	s.runWg.Add(1)
	s.runMu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stopWatch := context.AfterFunc(s.runCtx, cancel)

	go func() {
		defer s.runWg.Done()
		defer cancel()
		defer stopWatch()

		if _, err := s.analyzer.Run(runCtx, shiftID); err != nil && s.logger != nil {
			s.logger.Error("❌ Automatic analysis failed",
				zap.String("shift_id", shiftID),
				zap.Error(err),
			)
		}
	}()
}

// Shutdown waits for background runs. When ctx ends first the runs are
// cancelled, which fails them through the pipeline.
func (s *shiftService) Shutdown(ctx context.Context) error {
	s.runMu.Lock()
	s.closing = true
	s.runMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.runWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.stopRuns()
		return nil
	case <-ctx.Done():
		s.stopRuns()
		<-done
		return ctx.Err()
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
