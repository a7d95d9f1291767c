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

// Package client consumes the server sent notification stream. It keeps a
// small local view (recent notifications, unread count) in sync and
// reconnects with a fixed delay whenever the stream drops.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/l3montree-dev/vulnwatch/dtos"
)

// reconnectDelay is deliberately a fixed 5s, no backoff: the stream carries
// low-value notifications and a single client per user, so hammering the
// server is not a concern.
const reconnectDelay = 5 * time.Second

const maxLocalNotifications = 50

type Subscriber struct {
	httpClient *http.Client

	apiURL string
	token  string

	mu            sync.Mutex
	notifications []dtos.NotificationDTO
	unreadCount   int64
	connected     bool

	// optional hook invoked for every decoded event
	OnEvent func(event dtos.Event)
}

func NewSubscriber(apiURL, token string) *Subscriber {
	return &Subscriber{
		// no overall timeout - the stream is long lived
		httpClient: &http.Client{},
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		token:      token,
	}
}

// Run connects to the notification stream and blocks until ctx is cancelled,
// reconnecting after every disconnect.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		if err := s.consumeStream(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("notification stream disconnected, reconnecting", "delay", reconnectDelay, "err", err)
		}

		s.setConnected(false)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *Subscriber) consumeStream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/api/v1/notifications/stream/", nil)
	if err != nil {
		return errors.Wrap(err, "could not create stream request")
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "text/event-stream")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "could not connect to stream")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("stream endpoint returned status %d", res.StatusCode)
	}

	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := scanner.Text()
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			// comments, empty keep-alive lines and unknown fields are
			// skipped per the SSE contract
			continue
		}

		var event dtos.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			slog.Warn("could not decode stream event", "err", err)
			continue
		}

		s.handleEvent(event)
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "stream read failed")
	}
	return errors.New("stream closed by server")
}

func (s *Subscriber) handleEvent(event dtos.Event) {
	s.mu.Lock()
	switch event.Type {
	case dtos.EventTypeConnected:
		s.connected = true
	case dtos.EventTypeNewNotification:
		if event.Notification != nil {
			s.notifications = append([]dtos.NotificationDTO{*event.Notification}, s.notifications...)
			if len(s.notifications) > maxLocalNotifications {
				s.notifications = s.notifications[:maxLocalNotifications]
			}
			// every push is unread until the server says otherwise
			s.unreadCount++
		}
	case dtos.EventTypeUnreadCount:
		if event.Count != nil {
			// the server count is authoritative - overwrite, never add
			s.unreadCount = *event.Count
		}
	case dtos.EventTypeHeartbeat:
		// nothing to do, the read itself keeps the connection alive
	default:
		slog.Debug("ignoring unknown event type", "type", event.Type)
	}
	s.mu.Unlock()

	if s.OnEvent != nil {
		s.OnEvent(event)
	}
}

func (s *Subscriber) setConnected(connected bool) {
	s.mu.Lock()
	s.connected = connected
	s.mu.Unlock()
}

func (s *Subscriber) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Subscriber) UnreadCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadCount
}

// Notifications returns the locally cached notifications, newest first.
func (s *Subscriber) Notifications() []dtos.NotificationDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	notifications := make([]dtos.NotificationDTO, len(s.notifications))
	copy(notifications, s.notifications)
	return notifications
}

func (s *Subscriber) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("subscriber{connected: %t, unread: %d, cached: %d}", s.connected, s.unreadCount, len(s.notifications))
}
