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

// Package realtime holds the in-process push connection registry. State is
// process local: a user connected to another instance would not receive
// events from this one.
package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/l3montree-dev/vulnwatch/dtos"
	"github.com/l3montree-dev/vulnwatch/monitoring"
	"github.com/l3montree-dev/vulnwatch/shared"
)

const heartbeatInterval = 30 * time.Second

// connection pairs a sink with its teardown signal. close is idempotent so
// the heartbeat goroutine, a failed dispatch and an explicit unsubscribe can
// race on it safely.
type connection struct {
	sink shared.EventSink
	done chan struct{}
	once sync.Once
}

func (c *connection) close() {
	c.once.Do(func() {
		close(c.done)
		c.sink.Close()
	})
}

type registry struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*connection

	notificationRepository shared.NotificationRepository
}

func NewRegistry(notificationRepository shared.NotificationRepository) *registry {
	return &registry{
		connections:            make(map[uuid.UUID]*connection),
		notificationRepository: notificationRepository,
	}
}

// Subscribe registers the sink as the single connection of userID. A prior
// connection of the same user is torn down - last write wins. The new
// connection immediately receives a connected frame and the current unread
// count, then heartbeats every 30 seconds. The returned channel closes when
// the connection is deregistered; the returned func deregisters exactly
// this connection, so a stale caller cannot tear down a replacement.
func (r *registry) Subscribe(userID uuid.UUID, sink shared.EventSink) (<-chan struct{}, func()) {
	conn := &connection{sink: sink, done: make(chan struct{})}
	unsubscribe := func() { r.drop(userID, conn) }

	r.mu.Lock()
	old := r.connections[userID]
	r.connections[userID] = conn
	monitoring.RealtimeConnections.Set(float64(len(r.connections)))
	r.mu.Unlock()

	if old != nil {
		old.close()
	}

	if err := conn.sink.Send(dtos.NewConnectedEvent()); err != nil {
		r.drop(userID, conn)
		return conn.done, unsubscribe
	}

	// the initial count is best effort - the connection stays up even if
	// the database read fails.
	if count, err := r.notificationRepository.UnreadCount(userID); err != nil {
		slog.Error("could not read unread count for new realtime connection", "userID", userID, "err", err)
	} else if err := conn.sink.Send(dtos.NewUnreadCountEvent(count)); err != nil {
		r.drop(userID, conn)
		return conn.done, unsubscribe
	}

	go r.heartbeat(userID, conn)

	return conn.done, unsubscribe
}

// Dispatch pushes an event to the user's connection if one exists. Users
// without a connection are silently skipped. A failed write deregisters the
// connection - the client is expected to reconnect and resynchronize.
func (r *registry) Dispatch(userID uuid.UUID, event dtos.Event) {
	r.mu.RLock()
	conn := r.connections[userID]
	r.mu.RUnlock()

	if conn == nil {
		return
	}

	if err := conn.sink.Send(event); err != nil {
		slog.Debug("realtime write failed, dropping connection", "userID", userID, "err", err)
		r.drop(userID, conn)
	}
}

// DispatchUnreadCount reads the current unread count and pushes it. The read
// is skipped entirely when the user has no connection.
func (r *registry) DispatchUnreadCount(userID uuid.UUID) {
	r.mu.RLock()
	_, connected := r.connections[userID]
	r.mu.RUnlock()

	if !connected {
		return
	}

	count, err := r.notificationRepository.UnreadCount(userID)
	if err != nil {
		slog.Error("could not read unread count", "userID", userID, "err", err)
		return
	}

	r.Dispatch(userID, dtos.NewUnreadCountEvent(count))
}

// Shutdown tears down every registered connection.
func (r *registry) Shutdown() {
	r.mu.Lock()
	connections := r.connections
	r.connections = make(map[uuid.UUID]*connection)
	monitoring.RealtimeConnections.Set(0)
	r.mu.Unlock()

	for _, conn := range connections {
		conn.close()
	}
}

func (r *registry) heartbeat(userID uuid.UUID, conn *connection) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.done:
			return
		case <-ticker.C:
			if err := conn.sink.Send(dtos.NewHeartbeatEvent()); err != nil {
				r.drop(userID, conn)
				return
			}
		}
	}
}

// drop deregisters conn only if it is still the user's current connection,
// so a stale heartbeat failure cannot kill a replacement connection.
func (r *registry) drop(userID uuid.UUID, conn *connection) {
	r.mu.Lock()
	if r.connections[userID] == conn {
		delete(r.connections, userID)
		monitoring.RealtimeConnections.Set(float64(len(r.connections)))
	}
	r.mu.Unlock()

	conn.close()
}
