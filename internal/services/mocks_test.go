package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stayops/stayops-api/internal/models"
	"github.com/stayops/stayops-api/internal/repository"
	"github.com/stayops/stayops-api/pkg/logger"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Setup("test")
	os.Exit(m.Run())
}

// Mock ReservationRepository
type mockReservationRepository struct {
	repository.ReservationRepository
	mockFindByID                       func(ctx context.Context, id uint) (*models.Reservation, error)
	mockFindByIDWithDetails            func(ctx context.Context, id uint) (*models.Reservation, error)
	mockApplyTransition                func(ctx context.Context, reservation *models.Reservation, prevStatus string, history *models.StatusHistoryEntry, audit *models.AuditLogEntry) error
	mockFindNoShowCandidates           func(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error)
	mockFindLateCheckoutCandidates     func(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error)
	mockFindExpiredConfirmationPending func(ctx context.Context, propertyID uint, timeoutHours int, now time.Time) ([]models.Reservation, error)
	mockFindInHouseWithCheckoutBetween func(ctx context.Context, propertyID uint, from, to time.Time) ([]models.Reservation, error)
	mockFindCheckoutDueBetween         func(ctx context.Context, propertyID uint, from, to time.Time) ([]models.Reservation, error)
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Reservation, error) {
	if m.mockFindByIDWithDetails != nil {
		return m.mockFindByIDWithDetails(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	return nil
}

func (m *mockReservationRepository) ApplyTransition(ctx context.Context, reservation *models.Reservation, prevStatus string, history *models.StatusHistoryEntry, audit *models.AuditLogEntry) error {
	if m.mockApplyTransition != nil {
		return m.mockApplyTransition(ctx, reservation, prevStatus, history, audit)
	}
	return nil
}

func (m *mockReservationRepository) FindNoShowCandidates(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error) {
	if m.mockFindNoShowCandidates != nil {
		return m.mockFindNoShowCandidates(ctx, propertyID, graceHours, lookbackDays, now)
	}
	return nil, nil
}

func (m *mockReservationRepository) FindLateCheckoutCandidates(ctx context.Context, propertyID uint, graceHours, lookbackDays int, now time.Time) ([]models.Reservation, error) {
	if m.mockFindLateCheckoutCandidates != nil {
		return m.mockFindLateCheckoutCandidates(ctx, propertyID, graceHours, lookbackDays, now)
	}
	return nil, nil
}

func (m *mockReservationRepository) FindExpiredConfirmationPending(ctx context.Context, propertyID uint, timeoutHours int, now time.Time) ([]models.Reservation, error) {
	if m.mockFindExpiredConfirmationPending != nil {
		return m.mockFindExpiredConfirmationPending(ctx, propertyID, timeoutHours, now)
	}
	return nil, nil
}

func (m *mockReservationRepository) FindInHouseWithCheckoutBetween(ctx context.Context, propertyID uint, from, to time.Time) ([]models.Reservation, error) {
	if m.mockFindInHouseWithCheckoutBetween != nil {
		return m.mockFindInHouseWithCheckoutBetween(ctx, propertyID, from, to)
	}
	return nil, nil
}

func (m *mockReservationRepository) FindCheckoutDueBetween(ctx context.Context, propertyID uint, from, to time.Time) ([]models.Reservation, error) {
	if m.mockFindCheckoutDueBetween != nil {
		return m.mockFindCheckoutDueBetween(ctx, propertyID, from, to)
	}
	return nil, nil
}

// Mock HistoryRepository
type mockHistoryRepository struct {
	repository.HistoryRepository
	mockFindByReservation func(ctx context.Context, reservationID uint, query *repository.ListQuery) ([]models.StatusHistoryEntry, int64, error)
	mockFindLatest        func(ctx context.Context, reservationID uint) (*models.StatusHistoryEntry, error)
}

func (m *mockHistoryRepository) FindByReservation(ctx context.Context, reservationID uint, query *repository.ListQuery) ([]models.StatusHistoryEntry, int64, error) {
	if m.mockFindByReservation != nil {
		return m.mockFindByReservation(ctx, reservationID, query)
	}
	return nil, 0, nil
}

func (m *mockHistoryRepository) FindLatest(ctx context.Context, reservationID uint) (*models.StatusHistoryEntry, error) {
	if m.mockFindLatest != nil {
		return m.mockFindLatest(ctx, reservationID)
	}
	return nil, gorm.ErrRecordNotFound
}

// Mock AuditRepository
type mockAuditRepository struct {
	repository.AuditRepository
	mockCreate             func(ctx context.Context, entry *models.AuditLogEntry) error
	mockFindByThread       func(ctx context.Context, threadID string) ([]models.AuditLogEntry, error)
	mockFindNoteEntries    func(ctx context.Context, reservationID uint) ([]models.AuditLogEntry, error)
	mockFindLatestInThread func(ctx context.Context, threadID string) (*models.AuditLogEntry, error)
	mockPurgeOlderThan     func(ctx context.Context, propertyID uint, before time.Time) (int64, error)
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, entry)
	}
	return nil
}

func (m *mockAuditRepository) FindByThread(ctx context.Context, threadID string) ([]models.AuditLogEntry, error) {
	if m.mockFindByThread != nil {
		return m.mockFindByThread(ctx, threadID)
	}
	return nil, nil
}

func (m *mockAuditRepository) FindNoteEntries(ctx context.Context, reservationID uint) ([]models.AuditLogEntry, error) {
	if m.mockFindNoteEntries != nil {
		return m.mockFindNoteEntries(ctx, reservationID)
	}
	return nil, nil
}

func (m *mockAuditRepository) FindLatestInThread(ctx context.Context, threadID string) (*models.AuditLogEntry, error) {
	if m.mockFindLatestInThread != nil {
		return m.mockFindLatestInThread(ctx, threadID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAuditRepository) PurgeOlderThan(ctx context.Context, propertyID uint, before time.Time) (int64, error) {
	if m.mockPurgeOlderThan != nil {
		return m.mockPurgeOlderThan(ctx, propertyID, before)
	}
	return 0, nil
}

// Mock ApprovalRepository
type mockApprovalRepository struct {
	repository.ApprovalRepository
	mockCreate        func(ctx context.Context, request *models.ApprovalRequest) error
	mockFindByID      func(ctx context.Context, id uint) (*models.ApprovalRequest, error)
	mockClaimDecision func(ctx context.Context, id uint, decision string, approverID uint, notes string, decidedAt time.Time) error
}

func (m *mockApprovalRepository) Create(ctx context.Context, request *models.ApprovalRequest) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, request)
	}
	return nil
}

func (m *mockApprovalRepository) FindByID(ctx context.Context, id uint) (*models.ApprovalRequest, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApprovalRepository) ClaimDecision(ctx context.Context, id uint, decision string, approverID uint, notes string, decidedAt time.Time) error {
	if m.mockClaimDecision != nil {
		return m.mockClaimDecision(ctx, id, decision, approverID, notes, decidedAt)
	}
	return nil
}

// Mock SettingsRepository
type mockSettingsRepository struct {
	repository.SettingsRepository
	mockFindByProperty func(ctx context.Context, propertyID uint) (*models.AutomationSettings, error)
	mockUpsert         func(ctx context.Context, settings *models.AutomationSettings) error
}

func (m *mockSettingsRepository) FindByProperty(ctx context.Context, propertyID uint) (*models.AutomationSettings, error) {
	if m.mockFindByProperty != nil {
		return m.mockFindByProperty(ctx, propertyID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSettingsRepository) Upsert(ctx context.Context, settings *models.AutomationSettings) error {
	if m.mockUpsert != nil {
		return m.mockUpsert(ctx, settings)
	}
	return nil
}

// Mock PropertyRepository
type mockPropertyRepository struct {
	repository.PropertyRepository
	mockFindByID      func(ctx context.Context, id uint) (*models.Property, error)
	mockFindAllActive func(ctx context.Context) ([]models.Property, error)
}

func (m *mockPropertyRepository) FindByID(ctx context.Context, id uint) (*models.Property, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPropertyRepository) FindAllActive(ctx context.Context) ([]models.Property, error) {
	if m.mockFindAllActive != nil {
		return m.mockFindAllActive(ctx)
	}
	return nil, nil
}
