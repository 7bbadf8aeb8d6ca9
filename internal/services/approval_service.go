package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stayops/stayops-api/internal/models"
	"github.com/stayops/stayops-api/internal/repository"
	"github.com/stayops/stayops-api/pkg/logger"
	"gorm.io/gorm"
)

// ApprovalService gates sensitive transitions behind a manager decision.
// The gated transition itself still runs through the transition engine;
// the gate only supplies the approval-granted origin that unlocks it.
type ApprovalService struct {
	approvalRepo    repository.ApprovalRepository
	reservationRepo repository.ReservationRepository
	transitions     *TransitionService
}

// NewApprovalService creates a new approval gate service
func NewApprovalService(
	approvalRepo repository.ApprovalRepository,
	reservationRepo repository.ReservationRepository,
	transitions *TransitionService,
) *ApprovalService {
	return &ApprovalService{
		approvalRepo:    approvalRepo,
		reservationRepo: reservationRepo,
		transitions:     transitions,
	}
}

// RequestApproval opens a PENDING request for a gated transition. The
// target status and reason are frozen into the request's metadata so the
// eventual approval executes exactly what was asked for.
func (s *ApprovalService) RequestApproval(ctx context.Context, propertyID, reservationID, requestedBy uint, requestType, targetStatus, reason string) (*models.ApprovalRequest, error) {
	if requestType != models.ApprovalTypeEarlyCheckin {
		return nil, fmt.Errorf("%w: unknown request type %q", ErrValidation, requestType)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: a request reason is required", ErrValidation)
	}
	if targetStatus != "" && !models.IsValidStatus(targetStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, targetStatus)
	}

	reservation, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if reservation.PropertyID != propertyID {
		return nil, ErrForbidden
	}
	// Early check-in may be requested before confirmation settles, so
	// CONFIRMATION_PENDING is admitted alongside the regular pre-arrival
	// statuses.
	if !reservation.MayCheckIn() && !reservation.MayConfirm() {
		return nil, fmt.Errorf("%w: reservation is %s", ErrInvalidState, reservation.Status)
	}

	metadata := map[string]string{"reason": reason}
	if targetStatus != "" {
		metadata["new_status"] = targetStatus
	}

	request := &models.ApprovalRequest{
		GUID:          uuid.New().String(),
		ReservationID: reservation.ID,
		PropertyID:    reservation.PropertyID,
		RequestType:   requestType,
		RequestReason: reason,
		RequestedBy:   requestedBy,
		Status:        models.ApprovalStatusPending,
		Metadata:      models.EncodeMetadata(metadata),
		RequestedAt:   time.Now().UTC(),
	}
	if err := s.approvalRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Decide settles a pending request. Exactly one decision wins; a second
// decider gets an invalid-state error. On approval the gated transition
// runs immediately with the approver recorded as the change author, but
// a downstream transition failure never reopens the decided request.
func (s *ApprovalService) Decide(ctx context.Context, propertyID, requestID, approverID uint, decision, notes string) (*models.ApprovalRequest, error) {
	if decision != models.DecisionApprove && decision != models.DecisionReject {
		return nil, fmt.Errorf("%w: decision must be APPROVED or REJECTED", ErrValidation)
	}

	request, err := s.approvalRepo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if request.PropertyID != propertyID {
		return nil, ErrForbidden
	}
	if request.IsTerminal() {
		return nil, fmt.Errorf("%w: request is already %s", ErrInvalidState, request.Status)
	}

	decidedAt := time.Now().UTC()
	if err := s.approvalRepo.ClaimDecision(ctx, request.ID, decision, approverID, notes, decidedAt); err != nil {
		if errors.Is(err, repository.ErrAlreadyDecided) {
			return nil, fmt.Errorf("%w: request was decided concurrently", ErrInvalidState)
		}
		return nil, err
	}

	request.Status = decision
	request.ApprovedBy = &approverID
	request.ApprovedAt = &decidedAt
	if notes != "" {
		request.ApprovalNotes = &notes
	}

	if decision == models.DecisionApprove {
		origin := ApprovalOrigin(request.ID, approverID)
		_, err := s.transitions.Transition(ctx, propertyID, request.ReservationID, request.TargetStatus(), request.TargetReason(), origin)
		if err != nil {
			// The decision stands. The reservation may have moved on
			// while the request sat in the queue; operators resolve
			// that manually.
			logger.Error("Approved transition failed to execute",
				"approval_request_id", request.ID,
				"reservation_id", request.ReservationID,
				"target_status", request.TargetStatus(),
				"error", err)
		}
	}

	return request, nil
}

// Get returns one approval request within the caller's property scope
func (s *ApprovalService) Get(ctx context.Context, propertyID, requestID uint) (*models.ApprovalRequest, error) {
	request, err := s.approvalRepo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if request.PropertyID != propertyID {
		return nil, ErrForbidden
	}
	return request, nil
}

// List returns a property's approval requests newest-first, optionally
// narrowed to one status.
func (s *ApprovalService) List(ctx context.Context, propertyID uint, status string, query *repository.ListQuery) ([]models.ApprovalRequest, int64, error) {
	if status != "" && status != models.ApprovalStatusPending &&
		status != models.ApprovalStatusApproved && status != models.ApprovalStatusRejected {
		return nil, 0, fmt.Errorf("%w: unknown approval status %q", ErrValidation, status)
	}
	return s.approvalRepo.List(ctx, propertyID, status, query)
}
