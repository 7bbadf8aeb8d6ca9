package repository

import (
	"context"
	"time"

	"github.com/stayops/stayops-api/internal/models"
	"gorm.io/gorm"
)

// AuditRepository defines the interface for audit ledger data access.
// The ledger is append-only: there is deliberately no Update or Delete
// on individual entries; only the retention purge removes rows.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	FindByID(ctx context.Context, id uint) (*models.AuditLogEntry, error)
	FindByReservation(ctx context.Context, reservationID uint, query *ListQuery) ([]models.AuditLogEntry, int64, error)
	FindByThread(ctx context.Context, threadID string) ([]models.AuditLogEntry, error)
	FindNoteEntries(ctx context.Context, reservationID uint) ([]models.AuditLogEntry, error)
	FindLatestInThread(ctx context.Context, threadID string) (*models.AuditLogEntry, error)
	PurgeOlderThan(ctx context.Context, propertyID uint, before time.Time) (int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit ledger repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) FindByID(ctx context.Context, id uint) (*models.AuditLogEntry, error) {
	var entry models.AuditLogEntry
	err := r.db.WithContext(ctx).First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *auditRepository) FindByReservation(ctx context.Context, reservationID uint, query *ListQuery) ([]models.AuditLogEntry, int64, error) {
	var entries []models.AuditLogEntry
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.AuditLogEntry{}).
		Where("reservation_id = ?", reservationID)

	if action := query.Filters["action"]; action != "" {
		db = db.Where("action = ?", action)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("changed_at DESC, id DESC").
		Offset(query.Offset()).
		Limit(query.PerPage).
		Find(&entries).Error
	return entries, total, err
}

func (r *auditRepository) FindByThread(ctx context.Context, threadID string) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("changed_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *auditRepository) FindNoteEntries(ctx context.Context, reservationID uint) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	err := r.db.WithContext(ctx).
		Where("reservation_id = ? AND action IN ?", reservationID, []string{
			models.AuditActionNoteAdded,
			models.AuditActionNoteEdited,
			models.AuditActionNoteDeleted,
		}).
		Order("changed_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *auditRepository) FindLatestInThread(ctx context.Context, threadID string) (*models.AuditLogEntry, error) {
	var entry models.AuditLogEntry
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("changed_at DESC, id DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *auditRepository) PurgeOlderThan(ctx context.Context, propertyID uint, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("property_id = ? AND changed_at < ?", propertyID, before).
		Delete(&models.AuditLogEntry{})
	return res.RowsAffected, res.Error
}
