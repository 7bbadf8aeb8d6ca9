package models

import (
	"time"
)

// Reservation represents one guest stay for one room at one property
type Reservation struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	PropertyID uint `gorm:"not null;index" json:"property_id"`
	RoomID     uint `gorm:"not null;index" json:"room_id"`
	GuestID    uint `gorm:"not null;index" json:"guest_id"`

	CheckIn  time.Time `gorm:"not null;index" json:"check_in"`
	CheckOut time.Time `gorm:"not null;index" json:"check_out"`

	// Status is mutated exclusively by the transition engine.
	Status string `gorm:"not null;default:CONFIRMATION_PENDING;index" json:"status"`

	// PaymentStatus is owned by the payment collaborator; read-only here.
	PaymentStatus string `gorm:"not null;default:UNPAID;index" json:"payment_status"`

	// Denormalized snapshot of the last transition for fast reads.
	StatusUpdatedBy    *uint      `json:"status_updated_by"`
	StatusUpdatedAt    *time.Time `json:"status_updated_at"`
	StatusChangeReason *string    `gorm:"type:text" json:"status_change_reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Property Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Room     Room     `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Guest    Guest    `gorm:"foreignKey:GuestID" json:"guest,omitempty"`
}

// TableName specifies the table name for Reservation
func (Reservation) TableName() string {
	return "reservations"
}

// Reservation status constants, ordered by typical lifecycle
const (
	StatusConfirmationPending = "CONFIRMATION_PENDING"
	StatusConfirmed           = "CONFIRMED"
	StatusCheckinDue          = "CHECKIN_DUE"
	StatusInHouse             = "IN_HOUSE"
	StatusCheckoutDue         = "CHECKOUT_DUE"
	StatusCheckedOut          = "CHECKED_OUT"
	StatusNoShow              = "NO_SHOW"
	StatusCancelled           = "CANCELLED"
)

// AllStatuses lists every legal reservation status
var AllStatuses = []string{
	StatusConfirmationPending,
	StatusConfirmed,
	StatusCheckinDue,
	StatusInHouse,
	StatusCheckoutDue,
	StatusCheckedOut,
	StatusNoShow,
	StatusCancelled,
}

// Payment status constants (owned by the payment collaborator)
const (
	PaymentStatusUnpaid        = "UNPAID"
	PaymentStatusPartiallyPaid = "PARTIALLY_PAID"
	PaymentStatusPaid          = "PAID"
	PaymentStatusRefunded      = "REFUNDED"
)

// IsValidStatus reports whether s is one of the finite status values
func IsValidStatus(s string) bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the reservation is in a terminal state
func (r *Reservation) IsTerminal() bool {
	switch r.Status {
	case StatusCheckedOut, StatusNoShow, StatusCancelled:
		return true
	}
	return false
}

// MayConfirm returns true if the reservation can transition to confirmed
func (r *Reservation) MayConfirm() bool {
	return r.Status == StatusConfirmationPending
}

// MayCheckIn returns true if the reservation can transition to in-house
func (r *Reservation) MayCheckIn() bool {
	return r.Status == StatusConfirmed || r.Status == StatusCheckinDue
}

// MayCheckOut returns true if the reservation can transition to checked-out
func (r *Reservation) MayCheckOut() bool {
	return r.Status == StatusInHouse || r.Status == StatusCheckoutDue
}

// MayMarkNoShow returns true if the reservation can be marked a no-show
func (r *Reservation) MayMarkNoShow() bool {
	return r.Status == StatusConfirmed || r.Status == StatusCheckinDue
}

// MayCancel returns true if the reservation can still be cancelled
func (r *Reservation) MayCancel() bool {
	switch r.Status {
	case StatusConfirmationPending, StatusConfirmed, StatusCheckinDue:
		return true
	}
	return false
}

// Validate enforces base invariants on the stay window and status
func (r *Reservation) Validate() bool {
	return r.CheckOut.After(r.CheckIn) && IsValidStatus(r.Status)
}

// ReservationResponse is the JSON response format for reservations
type ReservationResponse struct {
	ID                 uint       `json:"id"`
	PropertyID         uint       `json:"property_id"`
	RoomID             uint       `json:"room_id"`
	RoomNumber         string     `json:"room_number"`
	GuestID            uint       `json:"guest_id"`
	GuestName          string     `json:"guest_name"`
	CheckIn            time.Time  `json:"check_in"`
	CheckOut           time.Time  `json:"check_out"`
	Status             string     `json:"status"`
	PaymentStatus      string     `json:"payment_status"`
	StatusUpdatedBy    *uint      `json:"status_updated_by"`
	StatusUpdatedAt    *time.Time `json:"status_updated_at"`
	StatusChangeReason *string    `json:"status_change_reason"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToResponse converts Reservation to ReservationResponse
func (r *Reservation) ToResponse() ReservationResponse {
	return ReservationResponse{
		ID:                 r.ID,
		PropertyID:         r.PropertyID,
		RoomID:             r.RoomID,
		RoomNumber:         r.Room.Number,
		GuestID:            r.GuestID,
		GuestName:          r.Guest.FullName,
		CheckIn:            r.CheckIn,
		CheckOut:           r.CheckOut,
		Status:             r.Status,
		PaymentStatus:      r.PaymentStatus,
		StatusUpdatedBy:    r.StatusUpdatedBy,
		StatusUpdatedAt:    r.StatusUpdatedAt,
		StatusChangeReason: r.StatusChangeReason,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
