package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification audiences.
const (
	NotificationAudienceAdmin   = "admin"
	NotificationAudienceStudent = "student"
)

// Notification is an internal message surfaced to administrators, produced by
// workflow send_notification actions and certificate issuance.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Audience  string            `gorm:"size:32;index;not null;default:admin" json:"audience"`
	Type      string            `gorm:"size:64" json:"type"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Read      bool              `gorm:"not null;default:false" json:"read"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
