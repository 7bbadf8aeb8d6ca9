package models

import (
	"time"
)

// StatusHistoryEntry records one reservation status transition.
// Rows are written only by the transition engine, inside the same
// transaction as the status update, and are never updated or deleted.
type StatusHistoryEntry struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ReservationID     uint      `gorm:"not null;index" json:"reservation_id"`
	PreviousStatus    string    `gorm:"not null" json:"previous_status"`
	NewStatus         string    `gorm:"not null" json:"new_status"`
	ChangedBy         *uint     `gorm:"index" json:"changed_by"` // nil means the system acted
	ChangeReason      string    `gorm:"type:text" json:"change_reason"`
	IsAutomatic       bool      `gorm:"default:false;index" json:"is_automatic"`
	ApprovalRequestID *uint     `gorm:"index" json:"approval_request_id,omitempty"`
	ChangedAt         time.Time `gorm:"not null;index" json:"changed_at"`
	CreatedAt         time.Time `json:"created_at"`

	// Associations
	Reservation *Reservation `gorm:"foreignKey:ReservationID" json:"-"`
}

// TableName specifies the table name for StatusHistoryEntry
func (StatusHistoryEntry) TableName() string {
	return "status_history_entries"
}

// StatusHistoryResponse is the JSON response format for history entries
type StatusHistoryResponse struct {
	ID                uint      `json:"id"`
	ReservationID     uint      `json:"reservation_id"`
	PreviousStatus    string    `json:"previous_status"`
	NewStatus         string    `json:"new_status"`
	ChangedBy         *uint     `json:"changed_by"`
	ChangeReason      string    `json:"change_reason"`
	IsAutomatic       bool      `json:"is_automatic"`
	ApprovalRequestID *uint     `json:"approval_request_id,omitempty"`
	ChangedAt         time.Time `json:"changed_at"`
}

// ToResponse converts StatusHistoryEntry to StatusHistoryResponse
func (e *StatusHistoryEntry) ToResponse() StatusHistoryResponse {
	return StatusHistoryResponse{
		ID:                e.ID,
		ReservationID:     e.ReservationID,
		PreviousStatus:    e.PreviousStatus,
		NewStatus:         e.NewStatus,
		ChangedBy:         e.ChangedBy,
		ChangeReason:      e.ChangeReason,
		IsAutomatic:       e.IsAutomatic,
		ApprovalRequestID: e.ApprovalRequestID,
		ChangedAt:         e.ChangedAt,
	}
}
