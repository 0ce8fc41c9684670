package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
)

type transcriptionRepository struct {
	db *gorm.DB
}

// NewTranscriptionRepository creates a new gorm-backed transcription repository
func NewTranscriptionRepository(db *gorm.DB) repositories.TranscriptionRepository {
	return &transcriptionRepository{db: db}
}

// Create creates a new transcription
func (r *transcriptionRepository) Create(ctx context.Context, t *entities.Transcription) error {
	if t == nil {
		return errors.New("transcription cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if isDuplicateKey(err) {
			return entities.ErrTranscriptionAlreadyExists
		}
		return err
	}
	return nil
}

// FindByShiftID retrieves the transcription of a shift
func (r *transcriptionRepository) FindByShiftID(ctx context.Context, shiftID string) (*entities.Transcription, error) {
	var t entities.Transcription
	if err := r.db.WithContext(ctx).Where("shift_id = ?", shiftID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// List retrieves transcriptions with filters and pagination
func (r *transcriptionRepository) List(ctx context.Context, filters repositories.TranscriptionFilters) ([]*entities.Transcription, int64, error) {
	var items []*entities.Transcription
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Transcription{})
	if filters.ControllerID != "" {
		query = query.Where("controller_id = ?", filters.ControllerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UpdatedBefore != nil {
		query = query.Where("updated_at < ?", *filters.UpdatedBefore)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	err := query.Find(&items).Error
	return items, total, err
}

// Update applies a partial update, optionally guarded by the current status
func (r *transcriptionRepository) Update(ctx context.Context, shiftID string, update entities.TranscriptionUpdate) (*entities.Transcription, error) {
	var updated entities.Transcription
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&entities.Transcription{}).Where("shift_id = ?", shiftID)
		if len(update.ExpectedStatus) > 0 {
			query = query.Where("status IN ?", update.ExpectedStatus)
		}

		result := query.Updates(update.Columns(time.Now().UTC()))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&entities.Transcription{}).Where("shift_id = ?", shiftID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return entities.ErrTranscriptionNotFound
			}
			return entities.ErrStatusConflict
		}

		return tx.Where("shift_id = ?", shiftID).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a transcription
func (r *transcriptionRepository) Delete(ctx context.Context, shiftID string) error {
	result := r.db.WithContext(ctx).Where("shift_id = ?", shiftID).Delete(&entities.Transcription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entities.ErrTranscriptionNotFound
	}
	return nil
}

// Count returns the number of stored transcriptions
func (r *transcriptionRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entities.Transcription{}).Count(&total).Error
	return total, err
}

// CountByStatus returns the number of transcriptions per status
func (r *transcriptionRepository) CountByStatus(ctx context.Context) (map[entities.Status]int64, error) {
	var rows []struct {
		Status entities.Status
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.Transcription{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[entities.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
