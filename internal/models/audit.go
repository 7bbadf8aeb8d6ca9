package models

import (
	"encoding/json"
	"time"
)

// AuditLogEntry is the append-only ledger covering every reservation
// mutation: status changes, field edits, notes, payments and add-ons.
// Entries are never updated or deleted by application code; note edits
// and deletions append new entries referencing the note's ThreadID.
type AuditLogEntry struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	ReservationID uint    `gorm:"not null;index" json:"reservation_id"`
	PropertyID    uint    `gorm:"not null;index" json:"property_id"`
	Action        string  `gorm:"size:32;not null;index" json:"action"`
	FieldName     *string `gorm:"size:64" json:"field_name,omitempty"`
	OldValue      *string `gorm:"type:text" json:"old_value,omitempty"`
	NewValue      *string `gorm:"type:text" json:"new_value,omitempty"`
	Description   string  `gorm:"type:text;not null" json:"description"`
	ChangedBy     *uint   `gorm:"index" json:"changed_by"` // nil means the system acted

	// ThreadID groups the entries of one note across add/edit/delete.
	// Empty for non-note actions.
	ThreadID string `gorm:"size:36;index" json:"thread_id,omitempty"`

	// Metadata is an opaque key/value payload stored as jsonb.
	Metadata string `gorm:"type:jsonb" json:"metadata,omitempty"`

	ChangedAt time.Time `gorm:"not null;index" json:"changed_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditLogEntry
func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}

// Audit action constants
const (
	AuditActionCreated      = "CREATED"
	AuditActionFieldUpdated = "FIELD_UPDATED"
	AuditActionNoteAdded    = "NOTE_ADDED"
	AuditActionNoteEdited   = "NOTE_EDITED"
	AuditActionNoteDeleted  = "NOTE_DELETED"
	AuditActionPaymentMade  = "PAYMENT_MADE"
	AuditActionAddonAdded   = "ADDON_ADDED"
	AuditActionAddonRemoved = "ADDON_REMOVED"
)

// MetadataMap decodes the jsonb metadata payload. Returns an empty map
// when no metadata was recorded.
func (e *AuditLogEntry) MetadataMap() map[string]string {
	out := map[string]string{}
	if e.Metadata == "" {
		return out
	}
	_ = json.Unmarshal([]byte(e.Metadata), &out)
	return out
}

// EncodeMetadata serializes a key/value payload for storage
func EncodeMetadata(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

// AuditLogResponse is the JSON response format for audit entries
type AuditLogResponse struct {
	ID            uint              `json:"id"`
	ReservationID uint              `json:"reservation_id"`
	PropertyID    uint              `json:"property_id"`
	Action        string            `json:"action"`
	FieldName     *string           `json:"field_name,omitempty"`
	OldValue      *string           `json:"old_value,omitempty"`
	NewValue      *string           `json:"new_value,omitempty"`
	Description   string            `json:"description"`
	ChangedBy     *uint             `json:"changed_by"`
	ThreadID      string            `json:"thread_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	ChangedAt     time.Time         `json:"changed_at"`
}

// ToResponse converts AuditLogEntry to AuditLogResponse
func (e *AuditLogEntry) ToResponse() AuditLogResponse {
	return AuditLogResponse{
		ID:            e.ID,
		ReservationID: e.ReservationID,
		PropertyID:    e.PropertyID,
		Action:        e.Action,
		FieldName:     e.FieldName,
		OldValue:      e.OldValue,
		NewValue:      e.NewValue,
		Description:   e.Description,
		ChangedBy:     e.ChangedBy,
		ThreadID:      e.ThreadID,
		Metadata:      e.MetadataMap(),
		ChangedAt:     e.ChangedAt,
	}
}
