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

package dtos

type EventType string

const (
	EventTypeConnected       EventType = "connected"
	EventTypeNewNotification EventType = "new_notification"
	EventTypeUnreadCount     EventType = "unread_count"
	EventTypeHeartbeat       EventType = "heartbeat"
)

// Event is one frame on the realtime push channel. The type field is the
// discriminator; consumers must ignore unknown types instead of failing, so
// the protocol stays forward compatible.
type Event struct {
	Type         EventType        `json:"type"`
	Message      string           `json:"message,omitempty"`
	Notification *NotificationDTO `json:"notification,omitempty"`
	Count        *int64           `json:"count,omitempty"`
}

func NewConnectedEvent() Event {
	return Event{Type: EventTypeConnected, Message: "realtime connection established"}
}

func NewNotificationEvent(notification NotificationDTO) Event {
	return Event{Type: EventTypeNewNotification, Notification: &notification}
}

func NewUnreadCountEvent(count int64) Event {
	return Event{Type: EventTypeUnreadCount, Count: &count}
}

func NewHeartbeatEvent() Event {
	return Event{Type: EventTypeHeartbeat}
}
