package repositories

import (
	"context"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/core/domain"

	"gorm.io/gorm"
)

// savingRepository implements SavingRepository over gorm
type savingRepository struct {
	db *gorm.DB
}

// NewSavingRepository creates a new saving repository
func NewSavingRepository(db *gorm.DB) SavingRepository {
	return &savingRepository{db: db}
}

// Create appends a deposit. Savings are append-only; there is no update or
// delete path.
func (r *savingRepository) Create(ctx context.Context, saving *models.Saving) error {
	return r.db.WithContext(ctx).Create(saving).Error
}

// ListByUser lists a member's deposits, newest first
func (r *savingRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Saving, error) {
	var savings []*models.Saving
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&savings).Error
	return savings, err
}

// TotalsByUser sums a member's deposits per saving type
func (r *savingRepository) TotalsByUser(ctx context.Context, userID uint) (map[domain.SavingType]int64, error) {
	type row struct {
		Type  string
		Total int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Saving{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := map[domain.SavingType]int64{
		domain.SavingPokok:    0,
		domain.SavingWajib:    0,
		domain.SavingSukarela: 0,
	}
	for _, r := range rows {
		totals[domain.SavingType(r.Type)] = r.Total
	}
	return totals, nil
}
