package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stayops/stayops-api/internal/jobs"
	"github.com/stayops/stayops-api/internal/models"
	"github.com/stayops/stayops-api/internal/repository"
	"github.com/stayops/stayops-api/pkg/logger"
	"gorm.io/gorm"
)

// SchedulerService runs the periodic scan that moves reservations past
// their deadlines: unconfirmed bookings expire, no-shows get marked and
// overdue departures become checkout-due. Every transition it makes
// goes through the same engine as a manual one, so the optimistic lock
// protects scans against operators and against overlapping instances.
type SchedulerService struct {
	reservationRepo repository.ReservationRepository
	propertyRepo    repository.PropertyRepository
	settingsRepo    repository.SettingsRepository
	transitions     *TransitionService
	audit           *AuditService
	pricing         PricingCollaborator
	payments        PaymentCollaborator
	worker          *jobs.Worker

	scanning atomic.Bool
}

// NewSchedulerService creates the automatic transition scheduler
func NewSchedulerService(
	reservationRepo repository.ReservationRepository,
	propertyRepo repository.PropertyRepository,
	settingsRepo repository.SettingsRepository,
	transitions *TransitionService,
	audit *AuditService,
	pricing PricingCollaborator,
	payments PaymentCollaborator,
	worker *jobs.Worker,
) *SchedulerService {
	return &SchedulerService{
		reservationRepo: reservationRepo,
		propertyRepo:    propertyRepo,
		settingsRepo:    settingsRepo,
		transitions:     transitions,
		audit:           audit,
		pricing:         pricing,
		payments:        payments,
		worker:          worker,
	}
}

// ScanStats aggregates one scan across all properties
type ScanStats struct {
	PropertiesScanned   int
	NoShowsMarked       int
	ExpiredCancelled    int
	LateCheckoutsMarked int
	Skipped             int
	Failed              int
	StartedAt           time.Time
	Duration            time.Duration
}

// RunScan executes one full scan. A scan that starts while the previous
// one is still running is a logged no-op, never a second concurrent
// pass. Per-reservation failures are counted and skipped; one bad row
// never aborts the batch.
func (s *SchedulerService) RunScan(ctx context.Context) (*ScanStats, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		logger.Warn("Scheduler scan already in progress, skipping")
		return nil, nil
	}
	defer s.scanning.Store(false)

	now := time.Now().UTC()
	stats := &ScanStats{StartedAt: now}

	properties, err := s.propertyRepo.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active properties: %w", err)
	}

	for i := range properties {
		property := &properties[i]
		settings, err := s.propertySettings(ctx, property.ID)
		if err != nil {
			logger.Error("Failed to load automation settings, skipping property",
				"property_id", property.ID, "error", err)
			stats.Failed++
			continue
		}

		s.scanExpiredConfirmations(ctx, property, settings, now, stats)
		s.scanNoShows(ctx, property, settings, now, stats)
		s.scanLateCheckouts(ctx, property, settings, now, stats)
		stats.PropertiesScanned++
	}

	stats.Duration = time.Since(now)
	logger.Info("Scheduler scan completed",
		"properties", stats.PropertiesScanned,
		"no_shows", stats.NoShowsMarked,
		"expired", stats.ExpiredCancelled,
		"late_checkouts", stats.LateCheckoutsMarked,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"duration", stats.Duration.String())
	return stats, nil
}

func (s *SchedulerService) propertySettings(ctx context.Context, propertyID uint) (*models.AutomationSettings, error) {
	settings, err := s.settingsRepo.FindByProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := models.DefaultAutomationSettings(propertyID)
			return &defaults, nil
		}
		return nil, err
	}
	return settings, nil
}

func (s *SchedulerService) scanExpiredConfirmations(ctx context.Context, property *models.Property, settings *models.AutomationSettings, now time.Time, stats *ScanStats) {
	if settings.ConfirmationPendingTimeoutHours <= 0 {
		return
	}

	candidates, err := s.reservationRepo.FindExpiredConfirmationPending(ctx, property.ID, settings.ConfirmationPendingTimeoutHours, now)
	if err != nil {
		logger.Error("Expired confirmation scan failed", "property_id", property.ID, "error", err)
		stats.Failed++
		return
	}

	for i := range candidates {
		reservation := &candidates[i]
		if !reservation.MayCancel() {
			stats.Skipped++
			continue
		}
		reason := fmt.Sprintf("Automatically cancelled: unconfirmed for more than %d hours", settings.ConfirmationPendingTimeoutHours)
		switch s.autoTransition(ctx, property.ID, reservation.ID, models.StatusCancelled, reason) {
		case scanApplied:
			stats.ExpiredCancelled++
		case scanSkipped:
			stats.Skipped++
		case scanFailed:
			stats.Failed++
		}
	}
}

func (s *SchedulerService) scanNoShows(ctx context.Context, property *models.Property, settings *models.AutomationSettings, now time.Time, stats *ScanStats) {
	candidates, err := s.reservationRepo.FindNoShowCandidates(ctx, property.ID, settings.NoShowGraceHours, settings.NoShowLookbackDays, now)
	if err != nil {
		logger.Error("No-show scan failed", "property_id", property.ID, "error", err)
		stats.Failed++
		return
	}

	for i := range candidates {
		reservation := &candidates[i]
		if !reservation.MayMarkNoShow() {
			stats.Skipped++
			continue
		}
		reason := fmt.Sprintf("Automatically marked as no-show: guest did not arrive within %d hours of check-in", settings.NoShowGraceHours)
		switch s.autoTransition(ctx, property.ID, reservation.ID, models.StatusNoShow, reason) {
		case scanApplied:
			stats.NoShowsMarked++
		case scanSkipped:
			stats.Skipped++
		case scanFailed:
			stats.Failed++
		}
	}
}

func (s *SchedulerService) scanLateCheckouts(ctx context.Context, property *models.Property, settings *models.AutomationSettings, now time.Time, stats *ScanStats) {
	candidates, err := s.reservationRepo.FindLateCheckoutCandidates(ctx, property.ID, settings.LateCheckoutGraceHours, settings.LateCheckoutLookbackDays, now)
	if err != nil {
		logger.Error("Late checkout scan failed", "property_id", property.ID, "error", err)
		stats.Failed++
		return
	}

	for i := range candidates {
		reservation := &candidates[i]
		hoursLate := int(now.Sub(reservation.CheckOut).Hours())
		if hoursLate < 1 {
			hoursLate = 1
		}
		reason := fmt.Sprintf("Automatically marked checkout due: %d hours past scheduled checkout", hoursLate)
		switch s.autoTransition(ctx, property.ID, reservation.ID, models.StatusCheckoutDue, reason) {
		case scanApplied:
			stats.LateCheckoutsMarked++
			s.chargeLateFee(ctx, reservation, settings, hoursLate)
		case scanSkipped:
			stats.Skipped++
		case scanFailed:
			stats.Failed++
		}
	}
}

// chargeLateFee computes and applies the late checkout fee for a
// reservation that just became checkout-due. The charge runs on the
// worker pool; the status transition has already committed and is never
// rolled back over a billing failure.
func (s *SchedulerService) chargeLateFee(ctx context.Context, reservation *models.Reservation, settings *models.AutomationSettings, hoursLate int) {
	if s.pricing == nil || s.payments == nil {
		return
	}

	fee, err := s.pricing.LateCheckoutFee(ctx, reservation, settings, hoursLate)
	if err != nil {
		logger.Error("Late checkout fee calculation failed",
			"reservation_id", reservation.ID, "error", err)
		return
	}
	if !fee.IsPositive() {
		return
	}

	description := fmt.Sprintf("Late checkout fee (%d hours past checkout)", hoursLate)
	amount := fee
	reservationID := reservation.ID
	propertyID := reservation.PropertyID

	s.worker.Enqueue(func(ctx context.Context) error {
		if err := s.payments.ChargeLateFee(ctx, reservationID, amount, description); err != nil {
			return fmt.Errorf("late fee charge for reservation %d: %w", reservationID, err)
		}
		feeStr := amount.StringFixed(2)
		return s.audit.Log(ctx, &models.AuditLogEntry{
			ReservationID: reservationID,
			PropertyID:    propertyID,
			Action:        models.AuditActionPaymentMade,
			NewValue:      &feeStr,
			Description:   description,
			Metadata: models.EncodeMetadata(map[string]string{
				"fee_type":   settings.LateCheckoutFeeType,
				"hours_late": fmt.Sprintf("%d", hoursLate),
			}),
		})
	})
}

// RunRetentionPurge trims every active property's audit ledger to its
// configured retention window.
func (s *SchedulerService) RunRetentionPurge(ctx context.Context) error {
	properties, err := s.propertyRepo.FindAllActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active properties: %w", err)
	}

	now := time.Now().UTC()
	var purged int64
	for i := range properties {
		n, err := s.audit.PurgeExpired(ctx, properties[i].ID, now)
		if err != nil {
			logger.Error("Audit retention purge failed", "property_id", properties[i].ID, "error", err)
			continue
		}
		purged += n
	}
	logger.Info("Audit retention purge completed", "entries_removed", purged)
	return nil
}

type scanOutcome int

const (
	scanApplied scanOutcome = iota
	scanSkipped
	scanFailed
)

// autoTransition applies one scheduler-driven transition, retrying once
// when an operator won the optimistic lock race. A reservation that
// moved out of reach between candidate query and transition is skipped,
// not failed: the next scan simply will not see it.
func (s *SchedulerService) autoTransition(ctx context.Context, propertyID, reservationID uint, target, reason string) scanOutcome {
	for attempt := 0; attempt < 2; attempt++ {
		_, err := s.transitions.Transition(ctx, propertyID, reservationID, target, reason, AutomaticOrigin())
		if err == nil {
			return scanApplied
		}
		if errors.Is(err, ErrConcurrentModification) {
			continue
		}
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound) {
			return scanSkipped
		}
		logger.Error("Automatic transition failed",
			"reservation_id", reservationID, "target", target, "error", err)
		return scanFailed
	}
	// Lost the race twice; whoever is mutating this reservation is in
	// charge of it now.
	return scanSkipped
}

// StandardLateFeeCalculator implements the pricing collaborator using
// the property's configured fee type.
type StandardLateFeeCalculator struct{}

// LateCheckoutFee computes the fee owed for an overdue departure
func (StandardLateFeeCalculator) LateCheckoutFee(ctx context.Context, reservation *models.Reservation, settings *models.AutomationSettings, hoursLate int) (decimal.Decimal, error) {
	base := decimal.NewFromFloat(settings.LateCheckoutFee)

	switch settings.LateCheckoutFeeType {
	case models.FeeTypeFlatRate:
		return base, nil
	case models.FeeTypeHourly:
		return base.Mul(decimal.NewFromInt(int64(hoursLate))), nil
	case models.FeeTypePercentRoomRate:
		if reservation.Room.Rate == nil {
			return decimal.Zero, nil
		}
		rate := decimal.NewFromFloat(*reservation.Room.Rate)
		return rate.Mul(base).Div(decimal.NewFromInt(100)), nil
	case models.FeeTypePercentTotalBill:
		if reservation.Room.Rate == nil {
			return decimal.Zero, nil
		}
		nights := int64(reservation.CheckOut.Sub(reservation.CheckIn).Hours() / 24)
		if nights < 1 {
			nights = 1
		}
		total := decimal.NewFromFloat(*reservation.Room.Rate).Mul(decimal.NewFromInt(nights))
		return total.Mul(base).Div(decimal.NewFromInt(100)), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown late checkout fee type %q", settings.LateCheckoutFeeType)
	}
}
