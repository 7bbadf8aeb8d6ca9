package models

import (
	"encoding/json"
	"time"
)

// ApprovalRequest is a pending sensitive transition awaiting a manager
// decision. Once approved or rejected the request is terminal.
type ApprovalRequest struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	GUID          string `gorm:"size:36;uniqueIndex" json:"guid"`
	ReservationID uint   `gorm:"not null;index" json:"reservation_id"`
	PropertyID    uint   `gorm:"not null;index" json:"property_id"`
	RequestType   string `gorm:"size:32;not null;index" json:"request_type"`
	RequestReason string `gorm:"type:text;not null" json:"request_reason"`
	RequestedBy   uint   `gorm:"not null;index" json:"requested_by"`

	Status        string     `gorm:"size:16;not null;default:PENDING;index" json:"status"`
	ApprovedBy    *uint      `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ApprovalNotes *string    `gorm:"type:text" json:"approval_notes,omitempty"`

	// Metadata carries the target status and reason to apply on approval.
	Metadata string `gorm:"type:jsonb" json:"metadata,omitempty"`

	RequestedAt time.Time `gorm:"not null" json:"requested_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations
	Reservation *Reservation `gorm:"foreignKey:ReservationID" json:"reservation,omitempty"`
}

// TableName specifies the table name for ApprovalRequest
func (ApprovalRequest) TableName() string {
	return "approval_requests"
}

// Approval request status constants
const (
	ApprovalStatusPending  = "PENDING"
	ApprovalStatusApproved = "APPROVED"
	ApprovalStatusRejected = "REJECTED"
)

// Approval request type constants
const (
	ApprovalTypeEarlyCheckin = "EARLY_CHECKIN"
)

// Approval decision constants
const (
	DecisionApprove = "APPROVED"
	DecisionReject  = "REJECTED"
)

// IsTerminal reports whether the request has already been decided
func (a *ApprovalRequest) IsTerminal() bool {
	return a.Status != ApprovalStatusPending
}

// MetadataMap decodes the jsonb metadata payload
func (a *ApprovalRequest) MetadataMap() map[string]string {
	out := map[string]string{}
	if a.Metadata == "" {
		return out
	}
	_ = json.Unmarshal([]byte(a.Metadata), &out)
	return out
}

// TargetStatus returns the status to apply when the request is approved.
// Early check-in defaults to IN_HOUSE when metadata carries no override.
func (a *ApprovalRequest) TargetStatus() string {
	if s := a.MetadataMap()["new_status"]; s != "" {
		return s
	}
	if a.RequestType == ApprovalTypeEarlyCheckin {
		return StatusInHouse
	}
	return ""
}

// TargetReason returns the transition reason recorded with the request
func (a *ApprovalRequest) TargetReason() string {
	if r := a.MetadataMap()["reason"]; r != "" {
		return r
	}
	return a.RequestReason
}

// ApprovalRequestResponse is the JSON response format for approval requests
type ApprovalRequestResponse struct {
	ID            uint              `json:"id"`
	GUID          string            `json:"guid"`
	ReservationID uint              `json:"reservation_id"`
	PropertyID    uint              `json:"property_id"`
	RequestType   string            `json:"request_type"`
	RequestReason string            `json:"request_reason"`
	RequestedBy   uint              `json:"requested_by"`
	RequestedAt   time.Time         `json:"requested_at"`
	Status        string            `json:"status"`
	ApprovedBy    *uint             `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time        `json:"approved_at,omitempty"`
	ApprovalNotes *string           `json:"approval_notes,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ToResponse converts ApprovalRequest to ApprovalRequestResponse
func (a *ApprovalRequest) ToResponse() ApprovalRequestResponse {
	return ApprovalRequestResponse{
		ID:            a.ID,
		GUID:          a.GUID,
		ReservationID: a.ReservationID,
		PropertyID:    a.PropertyID,
		RequestType:   a.RequestType,
		RequestReason: a.RequestReason,
		RequestedBy:   a.RequestedBy,
		RequestedAt:   a.RequestedAt,
		Status:        a.Status,
		ApprovedBy:    a.ApprovedBy,
		ApprovedAt:    a.ApprovedAt,
		ApprovalNotes: a.ApprovalNotes,
		Metadata:      a.MetadataMap(),
	}
}
