package repository

import (
	"context"

	"github.com/stayops/stayops-api/internal/models"
	"gorm.io/gorm"
)

// HistoryRepository defines read access to the status history ledger.
// Writes happen only through ReservationRepository.ApplyTransition so a
// history row can never exist without its matching status update.
type HistoryRepository interface {
	FindByReservation(ctx context.Context, reservationID uint, query *ListQuery) ([]models.StatusHistoryEntry, int64, error)
	FindLatest(ctx context.Context, reservationID uint) (*models.StatusHistoryEntry, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new status history repository
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) FindByReservation(ctx context.Context, reservationID uint, query *ListQuery) ([]models.StatusHistoryEntry, int64, error) {
	var entries []models.StatusHistoryEntry
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.StatusHistoryEntry{}).
		Where("reservation_id = ?", reservationID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("changed_at DESC, id DESC").
		Offset(query.Offset()).
		Limit(query.PerPage).
		Find(&entries).Error
	return entries, total, err
}

func (r *historyRepository) FindLatest(ctx context.Context, reservationID uint) (*models.StatusHistoryEntry, error) {
	var entry models.StatusHistoryEntry
	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("changed_at DESC, id DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
