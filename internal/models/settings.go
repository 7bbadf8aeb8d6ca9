package models

import (
	"time"
)

// AutomationSettings holds the per-property configuration consumed by the
// automatic transition scheduler and the day-boundary validator.
type AutomationSettings struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	PropertyID uint `gorm:"not null;uniqueIndex" json:"property_id"`

	CheckInTime  string `gorm:"size:5;not null" json:"check_in_time"`  // "15:04" local
	CheckOutTime string `gorm:"size:5;not null" json:"check_out_time"` // "15:04" local

	NoShowGraceHours   int `gorm:"not null" json:"no_show_grace_hours"`
	NoShowLookbackDays int `gorm:"not null" json:"no_show_lookback_days"`

	LateCheckoutGraceHours   int     `gorm:"not null" json:"late_checkout_grace_hours"`
	LateCheckoutLookbackDays int     `gorm:"not null" json:"late_checkout_lookback_days"`
	LateCheckoutFee          float64 `gorm:"type:decimal;not null" json:"late_checkout_fee"`
	LateCheckoutFeeType      string  `gorm:"size:32;not null" json:"late_checkout_fee_type"`

	// Zero disables the confirmation-pending expiry for the property.
	ConfirmationPendingTimeoutHours int `gorm:"not null" json:"confirmation_pending_timeout_hours"`

	AuditLogRetentionDays int `gorm:"not null" json:"audit_log_retention_days"`

	// DayStartHour is the local hour at which the operational day rolls
	// over; the day spans this hour to the same hour next calendar day.
	DayStartHour int `gorm:"not null" json:"day_start_hour"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for AutomationSettings
func (AutomationSettings) TableName() string {
	return "automation_settings"
}

// Late checkout fee type constants
const (
	FeeTypeFlatRate         = "FLAT_RATE"
	FeeTypeHourly           = "HOURLY"
	FeeTypePercentRoomRate  = "PERCENTAGE_OF_ROOM_RATE"
	FeeTypePercentTotalBill = "PERCENTAGE_OF_TOTAL_BILL"
)

// DefaultAutomationSettings returns the immutable defaults applied to
// properties without an explicit override.
func DefaultAutomationSettings(propertyID uint) AutomationSettings {
	return AutomationSettings{
		PropertyID:                      propertyID,
		CheckInTime:                     "15:00",
		CheckOutTime:                    "11:00",
		NoShowGraceHours:                6,
		NoShowLookbackDays:              3,
		LateCheckoutGraceHours:          1,
		LateCheckoutLookbackDays:        2,
		LateCheckoutFee:                 0,
		LateCheckoutFeeType:             FeeTypeFlatRate,
		ConfirmationPendingTimeoutHours: 6,
		AuditLogRetentionDays:           90,
		DayStartHour:                    6,
	}
}

// IsValidFeeType reports whether t is a known late-checkout fee type
func IsValidFeeType(t string) bool {
	switch t {
	case FeeTypeFlatRate, FeeTypeHourly, FeeTypePercentRoomRate, FeeTypePercentTotalBill:
		return true
	}
	return false
}
