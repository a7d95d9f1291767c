package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/dtos"
	"github.com/l3montree-dev/vulnwatch/shared"
)

type fakeSink struct {
	mu      sync.Mutex
	events  []dtos.Event
	failing bool
	closed  bool
}

func (f *fakeSink) Send(event dtos.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("broken pipe")
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSink) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSink) Events() []dtos.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]dtos.Event, len(f.events))
	copy(events, f.events)
	return events
}

func (f *fakeSink) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSink) setFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

// countingRepository only serves UnreadCount, which is all the registry uses.
type countingRepository struct {
	mu    sync.Mutex
	count int64
	calls int
}

func (c *countingRepository) UnreadCount(userID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.count, nil
}

func (c *countingRepository) Create(tx shared.DB, notification *models.Notification) error {
	return nil
}
func (c *countingRepository) Read(id uuid.UUID) (models.Notification, error) {
	return models.Notification{}, nil
}
func (c *countingRepository) MarkRead(id uuid.UUID, userID uuid.UUID) error { return nil }
func (c *countingRepository) MarkAllRead(userID uuid.UUID) error            { return nil }
func (c *countingRepository) ListPaged(userID uuid.UUID, pageInfo shared.PageInfo, typeFilter *models.NotificationType) (shared.Paged[models.Notification], error) {
	return shared.Paged[models.Notification]{}, nil
}
func (c *countingRepository) DeleteReadOlderThan(cutoff time.Time) (int64, error) { return 0, nil }

func (c *countingRepository) lookupCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func assertClosed(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected channel to be closed")
	}
}

func assertOpen(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
		t.Fatal("expected channel to be open")
	default:
	}
}

func TestSubscribe(t *testing.T) {
	t.Run("should send connected and the current unread count", func(t *testing.T) {
		registry := NewRegistry(&countingRepository{count: 7})
		sink := &fakeSink{}

		done, _ := registry.Subscribe(uuid.New(), sink)

		assertOpen(t, done)
		events := sink.Events()
		require.Len(t, events, 2)
		assert.Equal(t, dtos.EventTypeConnected, events[0].Type)
		assert.Equal(t, dtos.EventTypeUnreadCount, events[1].Type)
		require.NotNil(t, events[1].Count)
		assert.Equal(t, int64(7), *events[1].Count)
	})

	t.Run("should replace an existing connection of the same user", func(t *testing.T) {
		registry := NewRegistry(&countingRepository{})
		userID := uuid.New()
		first := &fakeSink{}
		second := &fakeSink{}

		done1, _ := registry.Subscribe(userID, first)
		done2, _ := registry.Subscribe(userID, second)

		assertClosed(t, done1)
		assertOpen(t, done2)
		assert.True(t, first.Closed())

		registry.Dispatch(userID, dtos.NewHeartbeatEvent())
		assert.Len(t, first.Events(), 2) // only the initial frames
		assert.Len(t, second.Events(), 3)
	})

	t.Run("should drop the connection when the initial write fails", func(t *testing.T) {
		registry := NewRegistry(&countingRepository{})
		sink := &fakeSink{failing: true}

		done, _ := registry.Subscribe(uuid.New(), sink)

		assertClosed(t, done)
		assert.True(t, sink.Closed())
	})
}

func TestDispatch(t *testing.T) {
	t.Run("should silently skip users without a connection", func(t *testing.T) {
		registry := NewRegistry(&countingRepository{})

		registry.Dispatch(uuid.New(), dtos.NewHeartbeatEvent())
	})

	t.Run("should deregister a connection on write failure", func(t *testing.T) {
		registry := NewRegistry(&countingRepository{})
		userID := uuid.New()
		sink := &fakeSink{}

		done, _ := registry.Subscribe(userID, sink)
		sink.setFailing(true)

		registry.Dispatch(userID, dtos.NewHeartbeatEvent())

		assertClosed(t, done)
		assert.True(t, sink.Closed())

		// a later dispatch finds no connection anymore
		sink.setFailing(false)
		registry.Dispatch(userID, dtos.NewHeartbeatEvent())
		assert.Len(t, sink.Events(), 2)
	})
}

func TestDispatchUnreadCount(t *testing.T) {
	t.Run("should skip the database read when the user is offline", func(t *testing.T) {
		repository := &countingRepository{}
		registry := NewRegistry(repository)

		registry.DispatchUnreadCount(uuid.New())

		assert.Equal(t, 0, repository.lookupCalls())
	})

	t.Run("should push the current count to a connected user", func(t *testing.T) {
		repository := &countingRepository{count: 2}
		registry := NewRegistry(repository)
		userID := uuid.New()
		sink := &fakeSink{}
		_, _ = registry.Subscribe(userID, sink)

		registry.DispatchUnreadCount(userID)

		events := sink.Events()
		require.Len(t, events, 3)
		assert.Equal(t, dtos.EventTypeUnreadCount, events[2].Type)
		require.NotNil(t, events[2].Count)
		assert.Equal(t, int64(2), *events[2].Count)
	})
}

func TestUnsubscribe(t *testing.T) {
	t.Run("should tear down the connection", func(t *testing.T) {
		registry := NewRegistry(&countingRepository{})
		userID := uuid.New()
		sink := &fakeSink{}

		done, unsubscribe := registry.Subscribe(userID, sink)
		unsubscribe()

		assertClosed(t, done)
		assert.True(t, sink.Closed())
	})

	t.Run("should not tear down a replacement connection", func(t *testing.T) {
		registry := NewRegistry(&countingRepository{})
		userID := uuid.New()
		first := &fakeSink{}
		second := &fakeSink{}

		_, unsubscribeFirst := registry.Subscribe(userID, first)
		done2, _ := registry.Subscribe(userID, second)

		// the stale handler of the first connection wakes up late
		unsubscribeFirst()

		assertOpen(t, done2)
		assert.False(t, second.Closed())

		registry.Dispatch(userID, dtos.NewHeartbeatEvent())
		assert.Len(t, second.Events(), 3)
	})
}

func TestShutdown(t *testing.T) {
	registry := NewRegistry(&countingRepository{})
	first := &fakeSink{}
	second := &fakeSink{}

	done1, _ := registry.Subscribe(uuid.New(), first)
	done2, _ := registry.Subscribe(uuid.New(), second)

	registry.Shutdown()

	assertClosed(t, done1)
	assertClosed(t, done2)
	assert.True(t, first.Closed())
	assert.True(t, second.Closed())
}
