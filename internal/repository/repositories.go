package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Reservation ReservationRepository
	History     HistoryRepository
	Audit       AuditRepository
	Approval    ApprovalRepository
	Settings    SettingsRepository
	Property    PropertyRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Reservation: NewReservationRepository(db),
		History:     NewHistoryRepository(db),
		Audit:       NewAuditRepository(db),
		Approval:    NewApprovalRepository(db),
		Settings:    NewSettingsRepository(db),
		Property:    NewPropertyRepository(db),
	}
}
