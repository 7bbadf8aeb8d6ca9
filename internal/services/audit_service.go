package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stayops/stayops-api/internal/models"
	"github.com/stayops/stayops-api/internal/repository"
	"gorm.io/gorm"
)

// AuditService owns the append-only ledger. Ledger rows are never
// updated or deleted; a note edit or deletion appends a new entry tied
// to the note's thread, so the full history of every note survives.
type AuditService struct {
	auditRepo       repository.AuditRepository
	reservationRepo repository.ReservationRepository
	settingsRepo    repository.SettingsRepository
}

// NewAuditService creates a new audit ledger service
func NewAuditService(
	auditRepo repository.AuditRepository,
	reservationRepo repository.ReservationRepository,
	settingsRepo repository.SettingsRepository,
) *AuditService {
	return &AuditService{
		auditRepo:       auditRepo,
		reservationRepo: reservationRepo,
		settingsRepo:    settingsRepo,
	}
}

// Note is the current state of one note thread
type Note struct {
	ThreadID  string    `json:"thread_id"`
	Text      string    `json:"text"`
	CreatedBy *uint     `json:"created_by"`
	UpdatedBy *uint     `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *AuditService) scopedReservation(ctx context.Context, propertyID, reservationID uint) (*models.Reservation, error) {
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
	return reservation, nil
}

// Log appends a free-form ledger entry for a reservation mutation that
// happens outside the transition engine, such as a payment or add-on.
func (s *AuditService) Log(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	return s.auditRepo.Create(ctx, entry)
}

// AddNote opens a new note thread and appends its first entry
func (s *AuditService) AddNote(ctx context.Context, propertyID, reservationID, actorID uint, text string) (*models.AuditLogEntry, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: note text is required", ErrValidation)
	}
	reservation, err := s.scopedReservation(ctx, propertyID, reservationID)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditLogEntry{
		ReservationID: reservation.ID,
		PropertyID:    reservation.PropertyID,
		Action:        models.AuditActionNoteAdded,
		NewValue:      &text,
		Description:   "Note added",
		ChangedBy:     &actorID,
		ThreadID:      uuid.New().String(),
		ChangedAt:     time.Now().UTC(),
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// EditNote appends a NOTE_EDITED entry to an existing thread. The
// original entry is left untouched.
func (s *AuditService) EditNote(ctx context.Context, propertyID, reservationID, actorID uint, threadID, text string) (*models.AuditLogEntry, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: note text is required", ErrValidation)
	}
	latest, err := s.currentThreadEntry(ctx, propertyID, reservationID, threadID)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditLogEntry{
		ReservationID: reservationID,
		PropertyID:    propertyID,
		Action:        models.AuditActionNoteEdited,
		OldValue:      latest.NewValue,
		NewValue:      &text,
		Description:   "Note edited",
		ChangedBy:     &actorID,
		ThreadID:      threadID,
		ChangedAt:     time.Now().UTC(),
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteNote appends a NOTE_DELETED entry closing the thread. Nothing
// is removed from the ledger.
func (s *AuditService) DeleteNote(ctx context.Context, propertyID, reservationID, actorID uint, threadID string) (*models.AuditLogEntry, error) {
	latest, err := s.currentThreadEntry(ctx, propertyID, reservationID, threadID)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditLogEntry{
		ReservationID: reservationID,
		PropertyID:    propertyID,
		Action:        models.AuditActionNoteDeleted,
		OldValue:      latest.NewValue,
		Description:   "Note deleted",
		ChangedBy:     &actorID,
		ThreadID:      threadID,
		ChangedAt:     time.Now().UTC(),
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// currentThreadEntry resolves the latest entry of a note thread and
// validates that the thread belongs to the caller's reservation and is
// still live. Editing or deleting an already deleted note is an
// invalid-state error, not a not-found, because the thread exists.
func (s *AuditService) currentThreadEntry(ctx context.Context, propertyID, reservationID uint, threadID string) (*models.AuditLogEntry, error) {
	if _, err := s.scopedReservation(ctx, propertyID, reservationID); err != nil {
		return nil, err
	}

	latest, err := s.auditRepo.FindLatestInThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if latest.ReservationID != reservationID {
		return nil, ErrNotFound
	}
	if latest.Action == models.AuditActionNoteDeleted {
		return nil, fmt.Errorf("%w: note has been deleted", ErrInvalidState)
	}
	return latest, nil
}

// GetNotes reconstructs the live notes of a reservation from the
// ledger: per thread, the latest entry wins and deleted threads are
// dropped.
func (s *AuditService) GetNotes(ctx context.Context, propertyID, reservationID uint) ([]Note, error) {
	if _, err := s.scopedReservation(ctx, propertyID, reservationID); err != nil {
		return nil, err
	}

	entries, err := s.auditRepo.FindNoteEntries(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	// Entries arrive oldest-first, so replaying them in order leaves
	// each thread holding its latest state.
	byThread := map[string]*Note{}
	order := []string{}
	for i := range entries {
		entry := &entries[i]
		switch entry.Action {
		case models.AuditActionNoteAdded:
			byThread[entry.ThreadID] = &Note{
				ThreadID:  entry.ThreadID,
				Text:      derefString(entry.NewValue),
				CreatedBy: entry.ChangedBy,
				UpdatedBy: entry.ChangedBy,
				CreatedAt: entry.ChangedAt,
				UpdatedAt: entry.ChangedAt,
			}
			order = append(order, entry.ThreadID)
		case models.AuditActionNoteEdited:
			if note, ok := byThread[entry.ThreadID]; ok {
				note.Text = derefString(entry.NewValue)
				note.UpdatedBy = entry.ChangedBy
				note.UpdatedAt = entry.ChangedAt
			}
		case models.AuditActionNoteDeleted:
			delete(byThread, entry.ThreadID)
		}
	}

	notes := make([]Note, 0, len(byThread))
	for _, threadID := range order {
		if note, ok := byThread[threadID]; ok {
			notes = append(notes, *note)
		}
	}
	return notes, nil
}

// GetAuditLog returns a reservation's ledger newest-first. An "action"
// filter in the query narrows to one action type.
func (s *AuditService) GetAuditLog(ctx context.Context, propertyID, reservationID uint, query *repository.ListQuery) ([]models.AuditLogEntry, int64, error) {
	if _, err := s.scopedReservation(ctx, propertyID, reservationID); err != nil {
		return nil, 0, err
	}
	return s.auditRepo.FindByReservation(ctx, reservationID, query)
}

// GetNoteHistory returns every entry of one note thread oldest-first
func (s *AuditService) GetNoteHistory(ctx context.Context, propertyID, reservationID uint, threadID string) ([]models.AuditLogEntry, error) {
	if _, err := s.scopedReservation(ctx, propertyID, reservationID); err != nil {
		return nil, err
	}
	entries, err := s.auditRepo.FindByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 || entries[0].ReservationID != reservationID {
		return nil, ErrNotFound
	}
	return entries, nil
}

// PurgeExpired deletes ledger rows older than the property's retention
// window. A retention of zero days keeps entries forever.
func (s *AuditService) PurgeExpired(ctx context.Context, propertyID uint, now time.Time) (int64, error) {
	settings, err := s.settingsRepo.FindByProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := models.DefaultAutomationSettings(propertyID)
			settings = &defaults
		} else {
			return 0, err
		}
	}
	if settings.AuditLogRetentionDays <= 0 {
		return 0, nil
	}

	before := now.AddDate(0, 0, -settings.AuditLogRetentionDays)
	return s.auditRepo.PurgeOlderThan(ctx, propertyID, before)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
