package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/dtos"
)

func TestHandleEvent(t *testing.T) {
	t.Run("should prepend new notifications", func(t *testing.T) {
		subscriber := NewSubscriber("http://localhost:8080", "token")

		subscriber.handleEvent(dtos.NewNotificationEvent(dtos.NotificationDTO{Message: "first"}))
		subscriber.handleEvent(dtos.NewNotificationEvent(dtos.NotificationDTO{Message: "second"}))

		notifications := subscriber.Notifications()
		require.Len(t, notifications, 2)
		assert.Equal(t, "second", notifications[0].Message)
		assert.Equal(t, "first", notifications[1].Message)
	})

	t.Run("should count each pushed notification as unread", func(t *testing.T) {
		subscriber := NewSubscriber("http://localhost:8080", "token")

		subscriber.handleEvent(dtos.NewNotificationEvent(dtos.NotificationDTO{Message: "first"}))
		subscriber.handleEvent(dtos.NewNotificationEvent(dtos.NotificationDTO{Message: "second"}))

		assert.Equal(t, int64(2), subscriber.UnreadCount())
	})

	t.Run("should overwrite the unread count instead of accumulating", func(t *testing.T) {
		subscriber := NewSubscriber("http://localhost:8080", "token")

		subscriber.handleEvent(dtos.NewUnreadCountEvent(5))
		subscriber.handleEvent(dtos.NewUnreadCountEvent(2))

		assert.Equal(t, int64(2), subscriber.UnreadCount())
	})

	t.Run("should mark connected on the connected frame", func(t *testing.T) {
		subscriber := NewSubscriber("http://localhost:8080", "token")
		assert.False(t, subscriber.Connected())

		subscriber.handleEvent(dtos.NewConnectedEvent())

		assert.True(t, subscriber.Connected())
	})

	t.Run("should ignore unknown event types", func(t *testing.T) {
		subscriber := NewSubscriber("http://localhost:8080", "token")

		subscriber.handleEvent(dtos.Event{Type: "someday_a_new_type"})

		assert.Empty(t, subscriber.Notifications())
		assert.Equal(t, int64(0), subscriber.UnreadCount())
	})

	t.Run("should invoke the event hook", func(t *testing.T) {
		subscriber := NewSubscriber("http://localhost:8080", "token")
		var seen []dtos.EventType
		subscriber.OnEvent = func(event dtos.Event) {
			seen = append(seen, event.Type)
		}

		subscriber.handleEvent(dtos.NewConnectedEvent())
		subscriber.handleEvent(dtos.NewHeartbeatEvent())

		assert.Equal(t, []dtos.EventType{dtos.EventTypeConnected, dtos.EventTypeHeartbeat}, seen)
	})

	t.Run("should cap the local notification cache", func(t *testing.T) {
		subscriber := NewSubscriber("http://localhost:8080", "token")

		for i := 0; i < maxLocalNotifications+10; i++ {
			subscriber.handleEvent(dtos.NewNotificationEvent(dtos.NotificationDTO{Message: fmt.Sprintf("n%d", i)}))
		}

		assert.Len(t, subscriber.Notifications(), maxLocalNotifications)
	})
}

func TestConsumeStream(t *testing.T) {
	t.Run("should decode frames and report the server closing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"type\":\"connected\",\"message\":\"realtime connection established\"}\n\n")
			fmt.Fprint(w, ": a comment line\n")
			fmt.Fprint(w, "data: {\"type\":\"new_notification\",\"notification\":{\"message\":\"scan done\",\"type\":\"scan\"}}\n\n")
			fmt.Fprint(w, "data: {\"type\":\"unread_count\",\"count\":4}\n\n")
		}))
		defer srv.Close()

		subscriber := NewSubscriber(srv.URL, "token")

		err := subscriber.consumeStream(context.Background())

		assert.Error(t, err) // the server closing the stream is an error to trigger reconnect
		assert.True(t, subscriber.Connected())
		notifications := subscriber.Notifications()
		require.Len(t, notifications, 1)
		assert.Equal(t, "scan done", notifications[0].Message)
		assert.Equal(t, models.NotificationTypeScan, notifications[0].Type)
		assert.Equal(t, int64(4), subscriber.UnreadCount())
	})

	t.Run("should fail on a non 200 response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		subscriber := NewSubscriber(srv.URL, "bad-token")

		err := subscriber.consumeStream(context.Background())

		assert.ErrorContains(t, err, "401")
	})
}

func TestRun(t *testing.T) {
	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		subscriber := NewSubscriber("http://127.0.0.1:1", "token")

		err := subscriber.Run(ctx)

		assert.ErrorIs(t, err, context.Canceled)
	})
}
