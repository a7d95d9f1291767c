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

package controllers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/dtos"
	"github.com/l3montree-dev/vulnwatch/shared"
)

type NotificationController struct {
	notificationService shared.NotificationService
	dispatcher          shared.RealtimeDispatcher
}

func NewNotificationController(notificationService shared.NotificationService, dispatcher shared.RealtimeDispatcher) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		dispatcher:          dispatcher,
	}
}

func (n *NotificationController) List(c shared.Context) error {
	session := shared.GetSession(c)
	pageInfo := shared.GetPageInfo(c)

	var typeFilter *models.NotificationType
	if t := c.QueryParam("type"); t != "" {
		notificationType := models.NotificationType(t)
		typeFilter = &notificationType
	}

	paged, err := n.notificationService.ListPaged(session.GetUserID(), pageInfo, typeFilter)
	if err != nil {
		return echo.NewHTTPError(500, "could not list notifications").WithInternal(err)
	}

	return c.JSON(200, paged.Map(func(notification models.Notification) any {
		return dtos.NotificationDTOFromModel(notification)
	}))
}

func (n *NotificationController) MarkRead(c shared.Context) error {
	session := shared.GetSession(c)

	notificationID, err := uuid.Parse(shared.SanitizeParam(c.Param("notificationID")))
	if err != nil {
		return echo.NewHTTPError(400, "invalid notification id").WithInternal(err)
	}

	if err := n.notificationService.MarkRead(notificationID, session.GetUserID()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(404, "could not find notification")
		}
		return echo.NewHTTPError(500, "could not mark notification as read").WithInternal(err)
	}

	return c.NoContent(200)
}

func (n *NotificationController) MarkAllRead(c shared.Context) error {
	session := shared.GetSession(c)

	if err := n.notificationService.MarkAllRead(session.GetUserID()); err != nil {
		return echo.NewHTTPError(500, "could not mark notifications as read").WithInternal(err)
	}

	return c.NoContent(200)
}

func (n *NotificationController) UnreadCount(c shared.Context) error {
	session := shared.GetSession(c)

	count, err := n.notificationService.UnreadCount(session.GetUserID())
	if err != nil {
		return echo.NewHTTPError(500, "could not count unread notifications").WithInternal(err)
	}

	return c.JSON(200, map[string]int64{"count": count})
}

// Stream is the server sent events endpoint. The handler blocks until the
// client disconnects or the connection is replaced by a newer one of the
// same user.
func (n *NotificationController) Stream(c shared.Context) error {
	session := shared.GetSession(c)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(200)
	res.Flush()

	sink := newSSESink(c.Request().Context(), res)
	done, unsubscribe := n.dispatcher.Subscribe(session.GetUserID(), sink)

	select {
	case <-c.Request().Context().Done():
		// only ever tears down THIS connection, a replacement that took
		// over in the meantime stays registered
		unsubscribe()
	case <-done:
		// replaced by a newer connection or torn down on shutdown
	}

	return nil
}
