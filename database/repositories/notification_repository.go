// Copyright (C) 2025 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/shared"
)

type notificationRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.Notification]
}

func NewNotificationRepository(db *gorm.DB) *notificationRepository {
	return &notificationRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.Notification](db),
	}
}

// MarkRead sets read = true on a notification owned by userID. The update is
// idempotent: marking an already read notification again is not an error.
// ErrRecordNotFound means the notification does not exist or belongs to a
// different user.
func (r *notificationRepository) MarkRead(id uuid.UUID, userID uuid.UUID) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(userID uuid.UUID) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Update("read", true).Error
}

func (r *notificationRepository) ListPaged(userID uuid.UUID, pageInfo shared.PageInfo, typeFilter *models.NotificationType) (shared.Paged[models.Notification], error) {
	query := r.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if typeFilter != nil {
		query = query.Where("type = ?", *typeFilter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paged[models.Notification]{}, err
	}

	var notifications []models.Notification
	err := pageInfo.ApplyOnDB(query.Order("created_at DESC")).Find(&notifications).Error
	if err != nil {
		return shared.Paged[models.Notification]{}, err
	}

	return shared.NewPaged(pageInfo, total, notifications), nil
}

func (r *notificationRepository) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Count(&count).Error
	return count, err
}

// DeleteReadOlderThan removes read notifications created before the cutoff.
// Unread rows are never deleted automatically.
func (r *notificationRepository) DeleteReadOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("read = true AND created_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
