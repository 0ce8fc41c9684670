package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/entities"
	"github.com/johnquangdev/atc-shift-analyzer/internal/domain/repositories"
)

type shiftRepository struct {
	db *gorm.DB
}

// NewShiftRepository creates a new gorm-backed shift repository
func NewShiftRepository(db *gorm.DB) repositories.ShiftRepository {
	return &shiftRepository{db: db}
}

// Create creates a new shift
func (r *shiftRepository) Create(ctx context.Context, shift *entities.Shift) error {
	if shift == nil {
		return errors.New("shift cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(shift).Error; err != nil {
		if isDuplicateKey(err) {
			return entities.ErrShiftAlreadyExists
		}
		return err
	}
	return nil
}

// FindByShiftID retrieves a shift by its external shift id
func (r *shiftRepository) FindByShiftID(ctx context.Context, shiftID string) (*entities.Shift, error) {
	var shift entities.Shift
	if err := r.db.WithContext(ctx).Where("shift_id = ?", shiftID).First(&shift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

// List retrieves shifts with filters and pagination
func (r *shiftRepository) List(ctx context.Context, filters repositories.ShiftFilters) ([]*entities.Shift, int64, error) {
	var shifts []*entities.Shift
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Shift{})

	if filters.ControllerID != "" {
		query = query.Where("controller_id = ?", filters.ControllerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PriorityLevel != "" {
		query = query.Where("priority_level = ?", filters.PriorityLevel)
	}
	if filters.RequiresAttention != nil {
		query = query.Where("requires_attention = ?", *filters.RequiresAttention)
	}
	if filters.MinFatigueScore != nil {
		query = query.Where("fatigue_score >= ?", *filters.MinFatigueScore)
	}
	if filters.UpdatedBefore != nil {
		query = query.Where("updated_at < ?", *filters.UpdatedBefore)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(shiftOrder(filters.SortBy, filters.SortOrder))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	err := query.Find(&shifts).Error
	return shifts, total, err
}

// Update applies a partial update, optionally guarded by the current status
func (r *shiftRepository) Update(ctx context.Context, shiftID string, update entities.ShiftUpdate) (*entities.Shift, error) {
	var updated entities.Shift
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&entities.Shift{}).Where("shift_id = ?", shiftID)
		if len(update.ExpectedStatus) > 0 {
			query = query.Where("status IN ?", update.ExpectedStatus)
		}

		result := query.Updates(update.Columns(time.Now().UTC()))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&entities.Shift{}).Where("shift_id = ?", shiftID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return entities.ErrShiftNotFound
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

// Delete removes a shift
func (r *shiftRepository) Delete(ctx context.Context, shiftID string) error {
	result := r.db.WithContext(ctx).Where("shift_id = ?", shiftID).Delete(&entities.Shift{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entities.ErrShiftNotFound
	}
	return nil
}

// Count returns the number of stored shifts
func (r *shiftRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entities.Shift{}).Count(&total).Error
	return total, err
}

// CountByStatus returns the number of shifts per status
func (r *shiftRepository) CountByStatus(ctx context.Context) (map[entities.Status]int64, error) {
	var rows []struct {
		Status entities.Status
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.Shift{}).
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

func shiftOrder(sortBy, sortOrder string) string {
	switch sortBy {
	case "updated_at", "fatigue_score":
	default:
		sortBy = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		order = "ASC"
	}
	if sortBy == "fatigue_score" {
		return fmt.Sprintf("%s %s NULLS LAST", sortBy, order)
	}
	return fmt.Sprintf("%s %s", sortBy, order)
}

// isDuplicateKey detects unique-constraint violations from Postgres
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}
