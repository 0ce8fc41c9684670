package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
	"github.com/johnquangdev/atc-shift-analyzer/internal/infrastructure/cache"
)

// cachedShiftRepository serves shift reports from a cache and drops the entry
// on every write. Cache failures never fail the call. Records in processing
// are never cached, and a read only fills the cache when no local write to the
// same shift started while it was loading.
type cachedShiftRepository struct {
	repositories.ShiftRepository
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	writes map[string]uint64
}

// NewCachedShiftRepository wraps next with a read-through report cache
func NewCachedShiftRepository(next repositories.ShiftRepository, store cache.Store, ttl time.Duration, logger *zap.Logger) repositories.ShiftRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedShiftRepository{
		ShiftRepository: next,
		store:           store,
		ttl:             ttl,
		logger:          logger,
		writes:          make(map[string]uint64),
	}
}

func reportKey(shiftID string) string {
	return "shift:" + shiftID
}

func (r *cachedShiftRepository) FindByShiftID(ctx context.Context, shiftID string) (*entities.Shift, error) {
	raw, err := r.store.Get(ctx, reportKey(shiftID))
	if err == nil {
		var shift entities.Shift
		if jsonErr := json.Unmarshal([]byte(raw), &shift); jsonErr == nil {
			return &shift, nil
		}
		r.logger.Warn("cache.report.decode_failed", zap.String("shift_id", shiftID))
	} else if !errors.Is(err, cache.ErrMiss) {
		r.logger.Warn("cache.report.get_failed", zap.String("shift_id", shiftID), zap.Error(err))
	}

	gen := r.generation(shiftID)
	shift, err := r.ShiftRepository.FindByShiftID(ctx, shiftID)
	if err != nil || shift == nil {
		return shift, err
	}
	if shift.Status == entities.StatusProcessing || r.generation(shiftID) != gen {
		return shift, nil
	}

	if payload, err := json.Marshal(shift); err == nil {
		if err := r.store.Set(ctx, reportKey(shiftID), string(payload), r.ttl); err != nil {
			r.logger.Warn("cache.report.set_failed", zap.String("shift_id", shiftID), zap.Error(err))
		}
	}
	return shift, nil
}

func (r *cachedShiftRepository) Update(ctx context.Context, shiftID string, update entities.ShiftUpdate) (*entities.Shift, error) {
	r.bump(shiftID)
	defer r.invalidate(ctx, shiftID)
	return r.ShiftRepository.Update(ctx, shiftID, update)
}

func (r *cachedShiftRepository) Delete(ctx context.Context, shiftID string) error {
	r.bump(shiftID)
	defer r.invalidate(ctx, shiftID)
	return r.ShiftRepository.Delete(ctx, shiftID)
}

func (r *cachedShiftRepository) generation(shiftID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes[shiftID]
}

func (r *cachedShiftRepository) bump(shiftID string) {
	r.mu.Lock()
	r.writes[shiftID]++
	r.mu.Unlock()
}

// invalidate bumps the write generation again so reads that loaded the old
// record during the write skip the cache fill
func (r *cachedShiftRepository) invalidate(ctx context.Context, shiftID string) {
	r.bump(shiftID)
	if err := r.store.Delete(context.WithoutCancel(ctx), reportKey(shiftID)); err != nil {
		r.logger.Warn("cache.report.invalidate_failed", zap.String("shift_id", shiftID), zap.Error(err))
	}
}
