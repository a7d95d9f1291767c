package models

import (
	"slices"
)

// User is the minimal surface the scan and notification pipeline needs.
// Registration, credentials and profile handling live in an external
// service; this table only mirrors what the email gate and the session
// middleware have to know.
type User struct {
	Model
	Email string `json:"email" gorm:"type:text;uniqueIndex;not null"`
	// opaque bearer token issued by the external auth service
	APIToken string `json:"-" gorm:"type:text;uniqueIndex"`

	EmailNotifications bool `json:"emailNotifications" gorm:"default:true"`
	// notification types the user muted for email delivery. In-app
	// notifications are always stored regardless.
	MutedEmailTypes []string `json:"mutedEmailTypes" gorm:"type:jsonb;default:'[]';serializer:json"`
}

func (u User) TableName() string {
	return "users"
}

// WantsEmailFor implements the per-type email opt-in gate.
func (u User) WantsEmailFor(notificationType NotificationType) bool {
	if !u.EmailNotifications {
		return false
	}
	return !slices.Contains(u.MutedEmailTypes, string(notificationType))
}
