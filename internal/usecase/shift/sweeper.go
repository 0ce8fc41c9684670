package shift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
)

// StaleRunError is recorded on runs the sweeper gives up on
const StaleRunError = "stale processing run"

// SweepStale fails shifts and transcriptions that have been processing for
// longer than StaleAfter. It returns how many records were moved to error.
func (s *shiftService) SweepStale(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.opts.StaleAfter)
	processing := entities.StatusProcessing
	failed := entities.StatusError
	msg := StaleRunError
	swept := 0

	shifts, _, err := s.shiftRepo.List(ctx, repositories.ShiftFilters{
		Status:        &processing,
		UpdatedBefore: &cutoff,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list stale shifts: %w", err)
	}
	for _, shift := range shifts {
		_, err := s.shiftRepo.Update(ctx, shift.ShiftID, entities.ShiftUpdate{
			ExpectedStatus: []entities.Status{entities.StatusProcessing},
			Status:         &failed,
			LastError:      &msg,
		})
		if err != nil {
			// finished between list and update
			if errors.Is(err, entities.ErrStatusConflict) || errors.Is(err, entities.ErrShiftNotFound) {
				continue
			}
			return swept, fmt.Errorf("failed to fail stale shift %s: %w", shift.ShiftID, err)
		}
		swept++
		s.logStale("shift", shift.ShiftID, shift.UpdatedAt)
	}

	transcriptions, _, err := s.transcriptionRepo.List(ctx, repositories.TranscriptionFilters{
		Status:        &processing,
		UpdatedBefore: &cutoff,
	})
	if err != nil {
		return swept, fmt.Errorf("failed to list stale transcriptions: %w", err)
	}
	for _, tr := range transcriptions {
		_, err := s.transcriptionRepo.Update(ctx, tr.ShiftID, entities.TranscriptionUpdate{
			ExpectedStatus: []entities.Status{entities.StatusProcessing},
			Status:         &failed,
			LastError:      &msg,
		})
		if err != nil {
			if errors.Is(err, entities.ErrStatusConflict) || errors.Is(err, entities.ErrTranscriptionNotFound) {
				continue
			}
			return swept, fmt.Errorf("failed to fail stale transcription %s: %w", tr.ShiftID, err)
		}
		swept++
		s.logStale("transcription", tr.ShiftID, tr.UpdatedAt)
	}

	return swept, nil
}

func (s *shiftService) logStale(kind, shiftID string, updatedAt time.Time) {
	if s.logger == nil {
		return
	}
	s.logger.Warn("🧹 Failing stale processing run",
		zap.String("kind", kind),
		zap.String("shift_id", shiftID),
		zap.Time("updated_at", updatedAt),
	)
}

// StartSweeper runs SweepStale every SweepInterval until StopSweeper
func (s *shiftService) StartSweeper(ctx context.Context) error {
	s.sweeperMutex.Lock()
	defer s.sweeperMutex.Unlock()

	if s.isSweeperRunning {
		return fmt.Errorf("sweeper already running")
	}
	s.isSweeperRunning = true
	s.sweeperStopChan = make(chan struct{})

	if s.logger != nil {
		s.logger.Info("🚀 Starting stale run sweeper",
			zap.Duration("interval", s.opts.SweepInterval),
			zap.Duration("stale_after", s.opts.StaleAfter),
		)
	}

	s.sweeperWg.Add(1)
	go s.sweepLoop(ctx, s.sweeperStopChan)
	return nil
}

func (s *shiftService) sweepLoop(ctx context.Context, stop <-chan struct{}) {
	defer s.sweeperWg.Done()

	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepStale(ctx)
			if s.logger == nil {
				continue
			}
			if err != nil {
				s.logger.Error("❌ Stale run sweep failed", zap.Error(err))
			} else if n > 0 {
				s.logger.Info("✅ Stale run sweep finished", zap.Int("swept", n))
			}
		}
	}
}

// StopSweeper stops the sweeper and waits for an in-flight sweep
func (s *shiftService) StopSweeper() error {
	s.sweeperMutex.Lock()
	defer s.sweeperMutex.Unlock()

	if !s.isSweeperRunning {
		return fmt.Errorf("sweeper not running")
	}

	close(s.sweeperStopChan)
	s.sweeperWg.Wait()
	s.isSweeperRunning = false

	if s.logger != nil {
		s.logger.Info("✅ Stale run sweeper stopped")
	}
	return nil
}
