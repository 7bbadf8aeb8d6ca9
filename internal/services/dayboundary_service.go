package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/stayops/stayops-api/internal/models"
	"github.com/stayops/stayops-api/internal/repository"
	"gorm.io/gorm"
)

// Day-boundary issue codes
const (
	IssuePartialPayment          = "PARTIAL_PAYMENT"
	IssueCheckoutDueNotCompleted = "CHECKOUT_DUE_NOT_COMPLETED"
	IssueCheckoutDueToday        = "CHECKOUT_DUE_TODAY"
)

// Issue severities
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// DayBoundaryIssue flags one reservation needing attention before the
// operational day can roll over cleanly.
type DayBoundaryIssue struct {
	Code          string    `json:"code"`
	Severity      string    `json:"severity"`
	ReservationID uint      `json:"reservation_id"`
	RoomNumber    string    `json:"room_number"`
	GuestName     string    `json:"guest_name"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	CheckOut      time.Time `json:"check_out"`
	Description   string    `json:"description"`
}

// DayBoundaryResult is the outcome of one validation run
type DayBoundaryResult struct {
	PropertyID    uint               `json:"property_id"`
	CanTransition bool               `json:"can_transition"`
	Issues        []DayBoundaryIssue `json:"issues"`
	CheckedAt     time.Time          `json:"checked_at"`
}

// DayBoundaryService validates a property's reservations against the
// operational day rollover. It is a pure read: running it changes
// nothing, so operators can re-check as often as they like.
type DayBoundaryService struct {
	reservationRepo repository.ReservationRepository
	propertyRepo    repository.PropertyRepository
	settingsRepo    repository.SettingsRepository
	historyRepo     repository.HistoryRepository
}

// NewDayBoundaryService creates a new day-boundary validator
func NewDayBoundaryService(
	reservationRepo repository.ReservationRepository,
	propertyRepo repository.PropertyRepository,
	settingsRepo repository.SettingsRepository,
	historyRepo repository.HistoryRepository,
) *DayBoundaryService {
	return &DayBoundaryService{
		reservationRepo: reservationRepo,
		propertyRepo:    propertyRepo,
		settingsRepo:    settingsRepo,
		historyRepo:     historyRepo,
	}
}

// operationalWindows computes the current and previous operational day
// in the property's timezone. A day runs from dayStartHour local time
// to the same hour the next calendar day; before the start hour, "today"
// is still the day that began yesterday.
func operationalWindows(now time.Time, loc *time.Location, dayStartHour int) (todayStart, yesterdayStart time.Time) {
	local := now.In(loc)
	todayStart = time.Date(local.Year(), local.Month(), local.Day(), dayStartHour, 0, 0, 0, loc)
	if local.Before(todayStart) {
		todayStart = todayStart.AddDate(0, 0, -1)
	}
	yesterdayStart = todayStart.AddDate(0, 0, -1)
	return todayStart, yesterdayStart
}

// Validate inspects the property's reservations around the day boundary
// and reports everything blocking or worth flagging for the rollover.
// Any issue, warning or critical, makes CanTransition false. The result
// is advisory; severity only drives the ordering and the UI treatment.
func (s *DayBoundaryService) Validate(ctx context.Context, propertyID uint, now time.Time) (*DayBoundaryResult, error) {
	property, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	settings, err := s.settingsRepo.FindByProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := models.DefaultAutomationSettings(propertyID)
			settings = &defaults
		} else {
			return nil, err
		}
	}

	loc := property.Location()
	todayStart, yesterdayStart := operationalWindows(now, loc, settings.DayStartHour)
	tomorrowStart := todayStart.AddDate(0, 0, 1)

	var issues []DayBoundaryIssue

	// Guests still in house whose stay ended during the previous
	// operational day. A partial payment is a warning; the front desk
	// settles the bill at checkout. Still being IN_HOUSE at all past the
	// boundary is handled by the scheduler, not flagged here.
	overdue, err := s.reservationRepo.FindInHouseWithCheckoutBetween(ctx, propertyID, yesterdayStart, todayStart)
	if err != nil {
		return nil, err
	}
	for i := range overdue {
		r := &overdue[i]
		if r.PaymentStatus == models.PaymentStatusPartiallyPaid {
			issues = append(issues, DayBoundaryIssue{
				Code:          IssuePartialPayment,
				Severity:      SeverityWarning,
				ReservationID: r.ID,
				RoomNumber:    r.Room.Number,
				GuestName:     r.Guest.FullName,
				Status:        r.Status,
				PaymentStatus: r.PaymentStatus,
				CheckOut:      r.CheckOut,
				Description:   fmt.Sprintf("Room %s: outstanding balance for a stay that ended on the previous operational day", r.Room.Number),
			})
		}
	}

	// Checkout-due reservations left over from the previous operational
	// day block the rollover: the room's real state is unknown.
	stale, err := s.reservationRepo.FindCheckoutDueBetween(ctx, propertyID, yesterdayStart, todayStart)
	if err != nil {
		return nil, err
	}
	for i := range stale {
		r := &stale[i]
		// An operator may have resolved the reservation between the
		// query and this read.
		if !r.MayCheckOut() {
			continue
		}
		description := fmt.Sprintf("Room %s: checkout was due on the previous operational day and was never completed", r.Room.Number)
		if latest, err := s.historyRepo.FindLatest(ctx, r.ID); err == nil && latest != nil {
			description = fmt.Sprintf("%s (in %s since %s)", description, r.Status, latest.ChangedAt.In(loc).Format("Jan 2 15:04"))
		}
		issues = append(issues, DayBoundaryIssue{
			Code:          IssueCheckoutDueNotCompleted,
			Severity:      SeverityCritical,
			ReservationID: r.ID,
			RoomNumber:    r.Room.Number,
			GuestName:     r.Guest.FullName,
			Status:        r.Status,
			PaymentStatus: r.PaymentStatus,
			CheckOut:      r.CheckOut,
			Description:   description,
		})
	}

	// Departures due within the current operational day, surfaced so the
	// front desk sees them before the boundary, not after.
	dueToday, err := s.reservationRepo.FindCheckoutDueBetween(ctx, propertyID, todayStart, tomorrowStart)
	if err != nil {
		return nil, err
	}
	for i := range dueToday {
		r := &dueToday[i]
		issues = append(issues, DayBoundaryIssue{
			Code:          IssueCheckoutDueToday,
			Severity:      SeverityWarning,
			ReservationID: r.ID,
			RoomNumber:    r.Room.Number,
			GuestName:     r.Guest.FullName,
			Status:        r.Status,
			PaymentStatus: r.PaymentStatus,
			CheckOut:      r.CheckOut,
			Description:   fmt.Sprintf("Room %s: checkout due today", r.Room.Number),
		})
	}

	// Critical issues first, then alphabetical by guest so the list
	// reads like a front-desk worksheet.
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Severity != issues[j].Severity {
			return issues[i].Severity == SeverityCritical
		}
		return issues[i].GuestName < issues[j].GuestName
	})

	return &DayBoundaryResult{
		PropertyID:    propertyID,
		CanTransition: len(issues) == 0,
		Issues:        issues,
		CheckedAt:     now.UTC(),
	}, nil
}
