package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/stayops/stayops-api/internal/cache"
	"github.com/stayops/stayops-api/internal/jobs"
	"github.com/stayops/stayops-api/internal/models"
	"github.com/stayops/stayops-api/internal/repository"
	"github.com/stayops/stayops-api/internal/statemachine"
	"github.com/stayops/stayops-api/pkg/logger"
	"gorm.io/gorm"
)

// TransitionService is the only writer of reservation status. Every
// successful call produces exactly one status history entry and one
// audit ledger entry in the same transaction as the status update.
type TransitionService struct {
	reservationRepo repository.ReservationRepository
	historyRepo     repository.HistoryRepository
	cache           *cache.ReservationCache
	notifier        Notifier
	worker          *jobs.Worker
}

// NewTransitionService creates the status transition engine. cache may
// be nil when no redis instance is configured.
func NewTransitionService(
	reservationRepo repository.ReservationRepository,
	historyRepo repository.HistoryRepository,
	reservationCache *cache.ReservationCache,
	notifier Notifier,
	worker *jobs.Worker,
) *TransitionService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TransitionService{
		reservationRepo: reservationRepo,
		historyRepo:     historyRepo,
		cache:           reservationCache,
		notifier:        notifier,
		worker:          worker,
	}
}

// TransitionResult reports the outcome of a transition request
type TransitionResult struct {
	Reservation *models.Reservation
	History     *models.StatusHistoryEntry
	NoOp        bool
}

// Transition validates and executes a status change. propertyID is the
// caller's property scope as resolved by the tenant-context collaborator;
// a reservation outside it is Forbidden. Requesting the current status
// is a no-op that writes nothing.
func (s *TransitionService) Transition(ctx context.Context, propertyID, reservationID uint, targetStatus, reason string, origin TransitionOrigin) (*TransitionResult, error) {
	if !models.IsValidStatus(targetStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, targetStatus)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: a change reason is required", ErrValidation)
	}

	reservation, err := s.reservationRepo.FindByIDWithDetails(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if reservation.PropertyID != propertyID {
		return nil, ErrForbidden
	}

	// Same-status requests short-circuit without touching the ledger.
	if reservation.Status == targetStatus {
		return &TransitionResult{Reservation: reservation, NoOp: true}, nil
	}

	prevStatus := reservation.Status

	event, err := statemachine.EventForTarget(targetStatus, origin.ApprovalGranted())
	if err != nil {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, prevStatus, targetStatus)
	}

	rfsm := statemachine.NewReservationFSM(reservation)
	if err := rfsm.Fire(ctx, event); err != nil {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, prevStatus, targetStatus)
	}

	now := time.Now().UTC()
	changedBy := origin.ChangedBy()

	reservation.StatusUpdatedBy = changedBy
	reservation.StatusUpdatedAt = &now
	reservation.StatusChangeReason = &reason

	history := &models.StatusHistoryEntry{
		ReservationID:     reservation.ID,
		PreviousStatus:    prevStatus,
		NewStatus:         reservation.Status,
		ChangedBy:         changedBy,
		ChangeReason:      reason,
		IsAutomatic:       origin.IsAutomatic(),
		ApprovalRequestID: origin.ApprovalRequestID,
		ChangedAt:         now,
	}

	fieldName := "status"
	audit := &models.AuditLogEntry{
		ReservationID: reservation.ID,
		PropertyID:    reservation.PropertyID,
		Action:        models.AuditActionFieldUpdated,
		FieldName:     &fieldName,
		OldValue:      &prevStatus,
		NewValue:      &reservation.Status,
		Description:   fmt.Sprintf("Status changed from %s to %s: %s", prevStatus, reservation.Status, reason),
		ChangedBy:     changedBy,
		Metadata:      models.EncodeMetadata(map[string]string{"origin": string(origin.Kind)}),
		ChangedAt:     now,
	}

	if err := s.reservationRepo.ApplyTransition(ctx, reservation, prevStatus, history, audit); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}

	// Invalidate the snapshot synchronously so the next read sees the
	// new status; the event fan-out may lag, stale cache may not.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, reservation.ID); err != nil {
			logger.Warn("Failed to invalidate reservation cache", "reservation_id", reservation.ID, "error", err)
		}
	}

	change := StatusChangedEvent{
		ReservationID:  reservation.ID,
		PropertyID:     reservation.PropertyID,
		PreviousStatus: prevStatus,
		NewStatus:      reservation.Status,
		IsAutomatic:    origin.IsAutomatic(),
	}
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notifier.ReservationStatusChanged(ctx, change)
	})

	return &TransitionResult{Reservation: reservation, History: history}, nil
}

// GetStatusHistory returns a reservation's transitions newest-first
func (s *TransitionService) GetStatusHistory(ctx context.Context, propertyID, reservationID uint, query *repository.ListQuery) ([]models.StatusHistoryEntry, int64, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	if reservation.PropertyID != propertyID {
		return nil, 0, ErrForbidden
	}

	entries, total, err := s.historyRepo.FindByReservation(ctx, reservationID, query)
	if err != nil {
		return nil, 0, err
	}

	// Newest first is part of the contract, not just the query.
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ChangedAt.Equal(entries[j].ChangedAt) {
			return entries[i].ChangedAt.After(entries[j].ChangedAt)
		}
		return entries[i].ID > entries[j].ID
	})

	return entries, total, nil
}

// GetReservation returns a reservation snapshot, serving from the cache
// when a fresh copy exists.
func (s *TransitionService) GetReservation(ctx context.Context, propertyID, reservationID uint) (*models.ReservationResponse, error) {
	if s.cache != nil {
		snapshot, err := s.cache.Get(ctx, reservationID)
		if err != nil {
			logger.Warn("Reservation cache read failed", "reservation_id", reservationID, "error", err)
		}
		if snapshot != nil {
			if snapshot.PropertyID != propertyID {
				return nil, ErrForbidden
			}
			return snapshot, nil
		}
	}

	reservation, err := s.reservationRepo.FindByIDWithDetails(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if reservation.PropertyID != propertyID {
		return nil, ErrForbidden
	}

	snapshot := reservation.ToResponse()
	if s.cache != nil {
		if err := s.cache.Set(ctx, snapshot); err != nil {
			logger.Warn("Reservation cache write failed", "reservation_id", reservationID, "error", err)
		}
	}
	return &snapshot, nil
}
