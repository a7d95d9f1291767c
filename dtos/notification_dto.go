package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/l3montree-dev/vulnwatch/database/models"
)

type NotificationDTO struct {
	ID        uuid.UUID               `json:"id"`
	Message   string                  `json:"message"`
	Type      models.NotificationType `json:"type"`
	Metadata  map[string]any          `json:"metadata"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"createdAt"`
}

func NotificationDTOFromModel(notification models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        notification.ID,
		Message:   notification.Message,
		Type:      notification.Type,
		Metadata:  notification.Metadata,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}
