package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stayops/stayops-api/internal/jobs"
	"github.com/stayops/stayops-api/internal/models"
	"github.com/stayops/stayops-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPayments struct {
	mu      sync.Mutex
	charges []decimal.Decimal
}

func (p *recordingPayments) ChargeLateFee(ctx context.Context, reservationID uint, amount decimal.Decimal, description string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charges = append(p.charges, amount)
	return nil
}

func newTestScheduler(t *testing.T, reservationRepo *mockReservationRepository, settingsRepo *mockSettingsRepository, propertyRepo *mockPropertyRepository, payments PaymentCollaborator) *SchedulerService {
	t.Helper()
	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)
	transitions := NewTransitionService(reservationRepo, &mockHistoryRepository{}, nil, nil, worker)
	audit := NewAuditService(&mockAuditRepository{}, reservationRepo, settingsRepo)
	return NewSchedulerService(reservationRepo, propertyRepo, settingsRepo, transitions, audit, StandardLateFeeCalculator{}, payments, worker)
}

func activeProperty(id uint) *mockPropertyRepository {
	return &mockPropertyRepository{
		mockFindAllActive: func(ctx context.Context) ([]models.Property, error) {
			return []models.Property{{ID: id, Name: "Harbor Hotel", Timezone: "UTC", Active: true}}, nil
		},
	}
}

func TestScanMarksNoShows(t *testing.T) {
	now := time.Now().UTC()
	stale := &models.Reservation{
		ID:         1,
		PropertyID: 10,
		Status:     models.StatusCheckinDue,
		CheckIn:    now.Add(-10 * time.Hour),
		CheckOut:   now.Add(38 * time.Hour),
	}

	var appliedHistory *models.StatusHistoryEntry
	reservationRepo := &mockReservationRepository{
		mockFindNoShowCandidates: func(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error) {
			assert.Equal(t, 6, graceHours)
			assert.Equal(t, 3, lookbackDays)
			return []models.Reservation{*stale}, nil
		},
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Reservation, error) {
			return stale, nil
		},
		mockApplyTransition: func(ctx context.Context, r *models.Reservation, prevStatus string, history *models.StatusHistoryEntry, audit *models.AuditLogEntry) error {
			appliedHistory = history
			return nil
		},
	}

	scheduler := newTestScheduler(t, reservationRepo, &mockSettingsRepository{}, activeProperty(10), nil)

	stats, err := scheduler.RunScan(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.PropertiesScanned)
	assert.Equal(t, 1, stats.NoShowsMarked)
	assert.Equal(t, 0, stats.Failed)

	require.NotNil(t, appliedHistory)
	assert.Equal(t, models.StatusNoShow, appliedHistory.NewStatus)
	assert.True(t, appliedHistory.IsAutomatic)
	assert.Nil(t, appliedHistory.ChangedBy)
	assert.NotEmpty(t, appliedHistory.ChangeReason)
}

func TestScanSkipsReservationLostToOperator(t *testing.T) {
	now := time.Now().UTC()
	// An operator cancelled this reservation between the candidate query
	// and the scheduler's write.
	moved := &models.Reservation{
		ID:         1,
		PropertyID: 10,
		Status:     models.StatusCancelled,
		CheckIn:    now.Add(-10 * time.Hour),
		CheckOut:   now.Add(38 * time.Hour),
	}

	reservationRepo := &mockReservationRepository{
		mockFindNoShowCandidates: func(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error) {
			stale := *moved
			stale.Status = models.StatusCheckinDue
			return []models.Reservation{stale}, nil
		},
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Reservation, error) {
			return moved, nil
		},
	}

	scheduler := newTestScheduler(t, reservationRepo, &mockSettingsRepository{}, activeProperty(10), nil)

	stats, err := scheduler.RunScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.NoShowsMarked)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
}

func TestScanRetriesOnceOnConcurrentModification(t *testing.T) {
	now := time.Now().UTC()
	stale := &models.Reservation{
		ID:         1,
		PropertyID: 10,
		Status:     models.StatusCheckinDue,
		CheckIn:    now.Add(-10 * time.Hour),
		CheckOut:   now.Add(38 * time.Hour),
	}

	attempts := 0
	reservationRepo := &mockReservationRepository{
		mockFindNoShowCandidates: func(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error) {
			return []models.Reservation{*stale}, nil
		},
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Reservation, error) {
			copied := *stale
			return &copied, nil
		},
		mockApplyTransition: func(ctx context.Context, r *models.Reservation, prevStatus string, history *models.StatusHistoryEntry, audit *models.AuditLogEntry) error {
			attempts++
			if attempts == 1 {
				return repository.ErrStaleStatus
			}
			return nil
		},
	}

	scheduler := newTestScheduler(t, reservationRepo, &mockSettingsRepository{}, activeProperty(10), nil)

	stats, err := scheduler.RunScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, stats.NoShowsMarked)
}

func TestScanExpiredConfirmationDisabled(t *testing.T) {
	queried := false
	reservationRepo := &mockReservationRepository{
		mockFindExpiredConfirmationPending: func(ctx context.Context, propertyID uint, timeoutHours int, now time.Time) ([]models.Reservation, error) {
			queried = true
			return nil, nil
		},
	}
	settingsRepo := &mockSettingsRepository{
		mockFindByProperty: func(ctx context.Context, propertyID uint) (*models.AutomationSettings, error) {
			settings := models.DefaultAutomationSettings(propertyID)
			settings.ConfirmationPendingTimeoutHours = 0
			return &settings, nil
		},
	}

	scheduler := newTestScheduler(t, reservationRepo, settingsRepo, activeProperty(10), nil)

	_, err := scheduler.RunScan(context.Background())
	require.NoError(t, err)
	assert.False(t, queried, "a zero timeout disables the expiry scan")
}

func TestScanFailureIsolation(t *testing.T) {
	now := time.Now().UTC()
	first := models.Reservation{ID: 1, PropertyID: 10, Status: models.StatusCheckinDue, CheckIn: now.Add(-10 * time.Hour), CheckOut: now.Add(38 * time.Hour)}
	second := models.Reservation{ID: 2, PropertyID: 10, Status: models.StatusCheckinDue, CheckIn: now.Add(-12 * time.Hour), CheckOut: now.Add(36 * time.Hour)}

	reservationRepo := &mockReservationRepository{
		mockFindNoShowCandidates: func(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error) {
			return []models.Reservation{first, second}, nil
		},
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Reservation, error) {
			if id == 1 {
				return nil, assert.AnError
			}
			copied := second
			return &copied, nil
		},
	}

	scheduler := newTestScheduler(t, reservationRepo, &mockSettingsRepository{}, activeProperty(10), nil)

	stats, err := scheduler.RunScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.NoShowsMarked, "one failure must not abort the batch")
}

func TestOverlappingScanIsNoOp(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	propertyRepo := &mockPropertyRepository{
		mockFindAllActive: func(ctx context.Context) ([]models.Property, error) {
			close(started)
			<-release
			return nil, nil
		},
	}

	scheduler := newTestScheduler(t, &mockReservationRepository{}, &mockSettingsRepository{}, propertyRepo, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := scheduler.RunScan(context.Background())
		assert.NoError(t, err)
	}()

	<-started
	stats, err := scheduler.RunScan(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats, "second scan must bail out while the first runs")

	close(release)
	<-done
}

func TestScanChargesLateCheckoutFee(t *testing.T) {
	now := time.Now().UTC()
	rate := 200.0
	overdue := &models.Reservation{
		ID:         1,
		PropertyID: 10,
		Status:     models.StatusInHouse,
		CheckIn:    now.Add(-72 * time.Hour),
		CheckOut:   now.Add(-3 * time.Hour),
		Room:       models.Room{Rate: &rate},
	}

	reservationRepo := &mockReservationRepository{
		mockFindLateCheckoutCandidates: func(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error) {
			return []models.Reservation{*overdue}, nil
		},
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Reservation, error) {
			return overdue, nil
		},
	}
	settingsRepo := &mockSettingsRepository{
		mockFindByProperty: func(ctx context.Context, propertyID uint) (*models.AutomationSettings, error) {
			settings := models.DefaultAutomationSettings(propertyID)
			settings.LateCheckoutFee = 50
			return &settings, nil
		},
	}

	payments := &recordingPayments{}
	scheduler := newTestScheduler(t, reservationRepo, settingsRepo, activeProperty(10), payments)

	stats, err := scheduler.RunScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LateCheckoutsMarked)
	assert.Equal(t, models.StatusCheckoutDue, overdue.Status)

	// The charge runs on the worker pool after the transition commits
	assert.Eventually(t, func() bool {
		payments.mu.Lock()
		defer payments.mu.Unlock()
		return len(payments.charges) == 1 && payments.charges[0].Equal(decimal.NewFromInt(50))
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLateCheckoutFeeTypes(t *testing.T) {
	calc := StandardLateFeeCalculator{}
	rate := 200.0
	reservation := &models.Reservation{
		CheckIn:  time.Date(2026, 8, 25, 15, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC),
		Room:     models.Room{Rate: &rate},
	}

	settings := models.DefaultAutomationSettings(10)
	settings.LateCheckoutFee = 50

	fee, err := calc.LateCheckoutFee(context.Background(), reservation, &settings, 3)
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.NewFromInt(50)), "flat rate ignores hours, got %s", fee)

	settings.LateCheckoutFeeType = models.FeeTypeHourly
	fee, err = calc.LateCheckoutFee(context.Background(), reservation, &settings, 3)
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.NewFromInt(150)), "hourly multiplies, got %s", fee)

	settings.LateCheckoutFeeType = models.FeeTypePercentRoomRate
	settings.LateCheckoutFee = 25
	fee, err = calc.LateCheckoutFee(context.Background(), reservation, &settings, 3)
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.NewFromInt(50)), "25%% of a 200 rate, got %s", fee)

	settings.LateCheckoutFeeType = models.FeeTypePercentTotalBill
	settings.LateCheckoutFee = 10
	fee, err = calc.LateCheckoutFee(context.Background(), reservation, &settings, 3)
	require.NoError(t, err)
	// 3 nights minus the early-morning remainder rounds down to 2 full days
	assert.True(t, fee.IsPositive())

	settings.LateCheckoutFeeType = "GOLD_PRESSED_LATINUM"
	_, err = calc.LateCheckoutFee(context.Background(), reservation, &settings, 3)
	assert.Error(t, err)
}

func TestScanTwiceIsIdempotent(t *testing.T) {
	now := time.Now().UTC()
	stale := &models.Reservation{
		ID:         1,
		PropertyID: 10,
		Status:     models.StatusCheckinDue,
		CheckIn:    now.Add(-10 * time.Hour),
		CheckOut:   now.Add(38 * time.Hour),
	}

	applied := 0
	reservationRepo := &mockReservationRepository{
		mockFindNoShowCandidates: func(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error) {
			// The eligibility query filters by current status, so a
			// reservation already marked NO_SHOW is not a candidate.
			if stale.Status != models.StatusCheckinDue {
				return nil, nil
			}
			return []models.Reservation{*stale}, nil
		},
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Reservation, error) {
			return stale, nil
		},
		mockApplyTransition: func(ctx context.Context, r *models.Reservation, prevStatus string, history *models.StatusHistoryEntry, audit *models.AuditLogEntry) error {
			applied++
			return nil
		},
	}

	scheduler := newTestScheduler(t, reservationRepo, &mockSettingsRepository{}, activeProperty(10), nil)

	first, err := scheduler.RunScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.NoShowsMarked)
	assert.Equal(t, models.StatusNoShow, stale.Status)

	second, err := scheduler.RunScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.NoShowsMarked)
	assert.Equal(t, 0, second.Failed)
	assert.Equal(t, 1, applied, "second scan must not re-apply the transition")
}

func TestScanPrefiltersIneligibleCandidates(t *testing.T) {
	loaded := false
	reservationRepo := &mockReservationRepository{
		mockFindNoShowCandidates: func(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error) {
			// A stale query result that already reflects a terminal status.
			return []models.Reservation{
				{
					ID:         1,
					PropertyID: 10,
					Status:     models.StatusCancelled,
					CheckIn:    now.Add(-10 * time.Hour),
					CheckOut:   now.Add(38 * time.Hour),
				},
			}, nil
		},
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Reservation, error) {
			loaded = true
			return nil, nil
		},
	}

	scheduler := newTestScheduler(t, reservationRepo, &mockSettingsRepository{}, activeProperty(10), nil)

	stats, err := scheduler.RunScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.NoShowsMarked)
	assert.Equal(t, 1, stats.Skipped)
	assert.False(t, loaded, "ineligible candidates are skipped before the engine loads them")
}
