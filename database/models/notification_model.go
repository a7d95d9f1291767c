package models

import (
	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeSecurity      NotificationType = "security"
	NotificationTypeScan          NotificationType = "scan"
	NotificationTypeSystem        NotificationType = "system"
	NotificationTypeCollaboration NotificationType = "collaboration"
)

// Notification is durably stored before any delivery attempt. Read only
// ever transitions false -> true; rows are deleted exclusively by the
// retention cleanup daemon (read AND older than the cutoff).
type Notification struct {
	Model
	UserID   uuid.UUID        `json:"userId" gorm:"type:uuid;not null;index"`
	Message  string           `json:"message" gorm:"type:text;not null"`
	Type     NotificationType `json:"type" gorm:"type:text;not null;default:'system'"`
	Metadata map[string]any   `json:"metadata" gorm:"type:jsonb;default:'{}';serializer:json"`
	Read     bool             `json:"read" gorm:"not null;default:false;index"`
}

func (n Notification) TableName() string {
	return "notifications"
}
