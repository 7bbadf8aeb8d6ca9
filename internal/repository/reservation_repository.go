package repository

import (
	"context"
	"errors"
	"time"

	"github.com/stayops/stayops-api/internal/models"
	"gorm.io/gorm"
)

// ErrStaleStatus is returned by ApplyTransition when the conditional
// status update matches zero rows: another writer changed the status
// between the caller's read and this write.
var ErrStaleStatus = errors.New("reservation status changed concurrently")

// ReservationRepository defines the interface for reservation data access
type ReservationRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Reservation, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Reservation, error)
	Create(ctx context.Context, reservation *models.Reservation) error

	// ApplyTransition atomically writes the status update, the history
	// entry and the audit entry, conditioned on the reservation still
	// holding prevStatus. All three writes commit or none do.
	ApplyTransition(ctx context.Context, reservation *models.Reservation, prevStatus string, history *models.StatusHistoryEntry, audit *models.AuditLogEntry) error

	// Scheduler eligibility queries; all filter by current status so a
	// repeated scan never sees an already-transitioned reservation.
	FindNoShowCandidates(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error)
	FindLateCheckoutCandidates(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error)
	FindExpiredConfirmationPending(ctx context.Context, propertyID uint, timeoutHours int, now time.Time) ([]models.Reservation, error)

	// Day-boundary validator reads.
	FindInHouseWithCheckoutBetween(ctx context.Context, propertyID uint, from, to time.Time) ([]models.Reservation, error)
	FindCheckoutDueBetween(ctx context.Context, propertyID uint, from, to time.Time) ([]models.Reservation, error)
}

type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Joins("Room").
		Joins("Guest").
		Joins("Property").
		First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepository) ApplyTransition(ctx context.Context, reservation *models.Reservation, prevStatus string, history *models.StatusHistoryEntry, audit *models.AuditLogEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", reservation.ID, prevStatus).
			Updates(map[string]interface{}{
				"status":               reservation.Status,
				"status_updated_by":    reservation.StatusUpdatedBy,
				"status_updated_at":    reservation.StatusUpdatedAt,
				"status_change_reason": reservation.StatusChangeReason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		if err := tx.Create(history).Error; err != nil {
			return err
		}

		return tx.Create(audit).Error
	})
}

func (r *reservationRepository) FindNoShowCandidates(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	deadline := now.Add(-time.Duration(graceHours) * time.Hour)
	lookback := now.AddDate(0, 0, -lookbackDays)

	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Where("status IN ?", []string{models.StatusConfirmed, models.StatusCheckinDue}).
		Where("check_in < ? AND check_in >= ?", deadline, lookback).
		Preload("Guest").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepository) FindLateCheckoutCandidates(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	deadline := now.Add(-time.Duration(graceHours) * time.Hour)
	lookback := now.AddDate(0, 0, -lookbackDays)

	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Where("status = ?", models.StatusInHouse).
		Where("check_out < ? AND check_out >= ?", deadline, lookback).
		Preload("Guest").
		Preload("Room").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepository) FindExpiredConfirmationPending(ctx context.Context, propertyID uint, timeoutHours int, now time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	deadline := now.Add(-time.Duration(timeoutHours) * time.Hour)

	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Where("status = ?", models.StatusConfirmationPending).
		Where("created_at < ?", deadline).
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepository) FindInHouseWithCheckoutBetween(ctx context.Context, propertyID uint, from, to time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Where("status = ?", models.StatusInHouse).
		Where("check_out >= ? AND check_out < ?", from, to).
		Preload("Guest").
		Preload("Room").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepository) FindCheckoutDueBetween(ctx context.Context, propertyID uint, from, to time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Where("status = ?", models.StatusCheckoutDue).
		Where("check_out >= ? AND check_out < ?", from, to).
		Preload("Guest").
		Preload("Room").
		Find(&reservations).Error
	return reservations, err
}
