package models

import (
	"time"
)

// Property represents a single hotel or rental property within an organization
type Property struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	Timezone       string    `gorm:"not null;default:UTC" json:"timezone"` // IANA name, e.g. "America/New_York"
	Active         bool      `gorm:"default:true;index" json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Associations
	Rooms []Room `gorm:"foreignKey:PropertyID" json:"rooms,omitempty"`
}

// TableName specifies the table name for Property
func (Property) TableName() string {
	return "properties"
}

// Location resolves the property timezone, falling back to UTC when the
// stored name does not parse.
func (p *Property) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Room represents a bookable room within a property
type Room struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PropertyID uint      `gorm:"not null;index" json:"property_id"`
	Number     string    `gorm:"not null" json:"number"`
	RoomType   string    `json:"room_type"`
	Rate       *float64  `gorm:"type:decimal" json:"rate"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for Room
func (Room) TableName() string {
	return "rooms"
}

// Guest represents the person a reservation is booked for
type Guest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"not null;index" json:"full_name"`
	Email     string    `gorm:"index" json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Guest
func (Guest) TableName() string {
	return "guests"
}
