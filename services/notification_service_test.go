package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/dtos"
	"github.com/l3montree-dev/vulnwatch/shared"
	"github.com/l3montree-dev/vulnwatch/utils"
)

type fakeNotificationRepository struct {
	createErr     error
	notifications []models.Notification
	cleanupCutoff *time.Time
	unreadCount   int64
}

func (f *fakeNotificationRepository) Create(tx shared.DB, notification *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	notification.ID = uuid.New()
	notification.CreatedAt = time.Now()
	f.notifications = append(f.notifications, *notification)
	return nil
}

func (f *fakeNotificationRepository) Read(id uuid.UUID) (models.Notification, error) {
	for _, notification := range f.notifications {
		if notification.ID == id {
			return notification, nil
		}
	}
	return models.Notification{}, gorm.ErrRecordNotFound
}

func (f *fakeNotificationRepository) MarkRead(id uuid.UUID, userID uuid.UUID) error {
	for i, notification := range f.notifications {
		if notification.ID == id && notification.UserID == userID {
			f.notifications[i].Read = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeNotificationRepository) MarkAllRead(userID uuid.UUID) error {
	for i := range f.notifications {
		if f.notifications[i].UserID == userID {
			f.notifications[i].Read = true
		}
	}
	return nil
}

func (f *fakeNotificationRepository) ListPaged(userID uuid.UUID, pageInfo shared.PageInfo, typeFilter *models.NotificationType) (shared.Paged[models.Notification], error) {
	return shared.NewPaged(pageInfo, int64(len(f.notifications)), f.notifications), nil
}

func (f *fakeNotificationRepository) UnreadCount(userID uuid.UUID) (int64, error) {
	return f.unreadCount, nil
}

func (f *fakeNotificationRepository) DeleteReadOlderThan(cutoff time.Time) (int64, error) {
	f.cleanupCutoff = &cutoff
	return 3, nil
}

type fakeUserRepository struct {
	user models.User
}

func (f *fakeUserRepository) Read(id uuid.UUID) (models.User, error) {
	return f.user, nil
}

func (f *fakeUserRepository) ReadByAPIToken(token string) (models.User, error) {
	if token == f.user.APIToken {
		return f.user, nil
	}
	return models.User{}, gorm.ErrRecordNotFound
}

type fakeDispatcher struct {
	events      []dtos.Event
	countPushes []uuid.UUID
}

func (f *fakeDispatcher) Subscribe(userID uuid.UUID, sink shared.EventSink) (<-chan struct{}, func()) {
	return make(chan struct{}), func() {}
}

func (f *fakeDispatcher) Dispatch(userID uuid.UUID, event dtos.Event) {
	f.events = append(f.events, event)
}

func (f *fakeDispatcher) DispatchUnreadCount(userID uuid.UUID) {
	f.countPushes = append(f.countPushes, userID)
}

type fakeMailer struct {
	sendErr  error
	to       []string
	subjects []string
	bodies   []string
}

func (f *fakeMailer) Send(ctx context.Context, to string, subject string, body string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.to = append(f.to, to)
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return nil
}

func setupNotificationService(user models.User) (*notificationService, *fakeNotificationRepository, *fakeDispatcher, *fakeMailer) {
	notificationRepository := &fakeNotificationRepository{}
	dispatcher := &fakeDispatcher{}
	mailer := &fakeMailer{}

	service := NewNotificationService(notificationRepository, &fakeUserRepository{user: user}, dispatcher, mailer, utils.SyncFireAndForgetSynchronizer{})
	return service, notificationRepository, dispatcher, mailer
}

func TestNotify(t *testing.T) {
	userID := uuid.New()
	user := models.User{Model: models.Model{ID: userID}, Email: "dev@example.com", EmailNotifications: true}

	t.Run("should persist first and then deliver to all channels", func(t *testing.T) {
		service, notificationRepository, dispatcher, mailer := setupNotificationService(user)

		notification, err := service.Notify(userID, "a message", models.NotificationTypeScan, nil)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, notification.ID)
		require.Len(t, notificationRepository.notifications, 1)

		require.Len(t, dispatcher.events, 1)
		assert.Equal(t, dtos.EventTypeNewNotification, dispatcher.events[0].Type)
		assert.Equal(t, "a message", dispatcher.events[0].Notification.Message)
		assert.Equal(t, []uuid.UUID{userID}, dispatcher.countPushes)

		require.Len(t, mailer.bodies, 1)
		assert.Equal(t, "a message", mailer.bodies[0])
		assert.Equal(t, "dev@example.com", mailer.to[0])
	})

	t.Run("should fail hard when persistence fails and touch no channel", func(t *testing.T) {
		service, notificationRepository, dispatcher, mailer := setupNotificationService(user)
		notificationRepository.createErr = errors.New("disk on fire")

		_, err := service.Notify(userID, "a message", models.NotificationTypeScan, nil)

		assert.Error(t, err)
		assert.Empty(t, dispatcher.events)
		assert.Empty(t, mailer.bodies)
	})

	t.Run("should skip the email when notifications are disabled", func(t *testing.T) {
		disabled := user
		disabled.EmailNotifications = false
		service, _, dispatcher, mailer := setupNotificationService(disabled)

		_, err := service.Notify(userID, "a message", models.NotificationTypeScan, nil)

		require.NoError(t, err)
		assert.Empty(t, mailer.bodies)
		// the in-app channels still fire
		assert.Len(t, dispatcher.events, 1)
	})

	t.Run("should skip the email for muted types only", func(t *testing.T) {
		muted := user
		muted.MutedEmailTypes = []string{"scan"}
		service, _, _, mailer := setupNotificationService(muted)

		_, err := service.Notify(userID, "a message", models.NotificationTypeScan, nil)
		require.NoError(t, err)
		assert.Empty(t, mailer.bodies)

		_, err = service.Notify(userID, "an alert", models.NotificationTypeSecurity, nil)
		require.NoError(t, err)
		assert.Len(t, mailer.bodies, 1)
	})

	t.Run("should not fail when the mailer fails", func(t *testing.T) {
		service, _, dispatcher, mailer := setupNotificationService(user)
		mailer.sendErr = errors.New("ses unavailable")

		_, err := service.Notify(userID, "a message", models.NotificationTypeScan, nil)

		require.NoError(t, err)
		assert.Len(t, dispatcher.events, 1)
	})
}

func TestNotifyScanComplete(t *testing.T) {
	userID := uuid.New()
	user := models.User{Model: models.Model{ID: userID}, Email: "dev@example.com"}

	t.Run("should report vulnerability counts", func(t *testing.T) {
		service, notificationRepository, _, _ := setupNotificationService(user)

		_, err := service.NotifyScanComplete(userID, uuid.New(), dtos.ScanSummary{
			TotalDependencies:       3,
			TotalVulnerabilities:    5,
			CriticalVulnerabilities: 2,
		})

		require.NoError(t, err)
		require.Len(t, notificationRepository.notifications, 1)
		assert.Equal(t, "Scan completed for your project. Found 3 dependencies with 5 vulnerabilities (2 critical).", notificationRepository.notifications[0].Message)
		assert.Equal(t, models.NotificationTypeScan, notificationRepository.notifications[0].Type)
	})

	t.Run("should report a clean scan", func(t *testing.T) {
		service, notificationRepository, _, _ := setupNotificationService(user)

		_, err := service.NotifyScanComplete(userID, uuid.New(), dtos.ScanSummary{TotalDependencies: 3})

		require.NoError(t, err)
		assert.Equal(t, "Scan completed for your project. Found 3 dependencies with no vulnerabilities.", notificationRepository.notifications[0].Message)
	})
}

func TestMarkRead(t *testing.T) {
	userID := uuid.New()
	user := models.User{Model: models.Model{ID: userID}}

	t.Run("should push a fresh unread count after marking", func(t *testing.T) {
		service, notificationRepository, dispatcher, _ := setupNotificationService(user)
		notification := models.Notification{UserID: userID, Message: "m", Type: models.NotificationTypeSystem}
		require.NoError(t, notificationRepository.Create(nil, &notification))

		err := service.MarkRead(notification.ID, userID)

		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{userID}, dispatcher.countPushes)
	})

	t.Run("should propagate not found and push nothing", func(t *testing.T) {
		service, _, dispatcher, _ := setupNotificationService(user)

		err := service.MarkRead(uuid.New(), userID)

		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.Empty(t, dispatcher.countPushes)
	})
}

func TestCleanup(t *testing.T) {
	user := models.User{Model: models.Model{ID: uuid.New()}}
	service, notificationRepository, _, _ := setupNotificationService(user)

	count, err := service.Cleanup(30)

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	require.NotNil(t, notificationRepository.cleanupCutoff)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -30), *notificationRepository.cleanupCutoff, time.Minute)
}
