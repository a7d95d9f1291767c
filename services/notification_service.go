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

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/dtos"
	"github.com/l3montree-dev/vulnwatch/monitoring"
	"github.com/l3montree-dev/vulnwatch/shared"
	"github.com/l3montree-dev/vulnwatch/utils"
)

var emailSubjects = map[models.NotificationType]string{
	models.NotificationTypeSecurity:      "Security alert",
	models.NotificationTypeScan:          "Scan completed",
	models.NotificationTypeSystem:        "System notification",
	models.NotificationTypeCollaboration: "Collaboration update",
}

type notificationService struct {
	notificationRepository shared.NotificationRepository
	userRepository         shared.UserRepository
	dispatcher             shared.RealtimeDispatcher
	mailer                 shared.Mailer
	fireAndForget          utils.FireAndForgetSynchronizer
}

func NewNotificationService(notificationRepository shared.NotificationRepository, userRepository shared.UserRepository, dispatcher shared.RealtimeDispatcher, mailer shared.Mailer, fireAndForget utils.FireAndForgetSynchronizer) *notificationService {
	return &notificationService{
		notificationRepository: notificationRepository,
		userRepository:         userRepository,
		dispatcher:             dispatcher,
		mailer:                 mailer,
		fireAndForget:          fireAndForget,
	}
}

// Notify persists the notification FIRST - only a failed insert fails the
// call. Email and realtime delivery afterwards are best effort: a user must
// be able to find every notification in the in-app list later even if both
// channels were down.
func (s *notificationService) Notify(userID uuid.UUID, message string, notificationType models.NotificationType, metadata map[string]any) (models.Notification, error) {
	notification := models.Notification{
		UserID:   userID,
		Message:  message,
		Type:     notificationType,
		Metadata: metadata,
	}

	if err := s.notificationRepository.Create(nil, &notification); err != nil {
		return models.Notification{}, errors.Wrap(err, "could not persist notification")
	}
	monitoring.NotificationsCreated.WithLabelValues(string(notificationType)).Inc()

	s.sendEmail(notification)

	s.dispatcher.Dispatch(userID, dtos.NewNotificationEvent(dtos.NotificationDTOFromModel(notification)))
	s.dispatcher.DispatchUnreadCount(userID)

	return notification, nil
}

func (s *notificationService) sendEmail(notification models.Notification) {
	user, err := s.userRepository.Read(notification.UserID)
	if err != nil {
		slog.Error("could not read user for email gate", "userID", notification.UserID, "err", err)
		return
	}
	if !user.WantsEmailFor(notification.Type) {
		return
	}

	subject, ok := emailSubjects[notification.Type]
	if !ok {
		subject = "New notification"
	}

	s.fireAndForget.FireAndForget(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, user.Email, subject, notification.Message); err != nil {
			slog.Error("could not send notification email", "userID", user.ID, "type", notification.Type, "err", err)
		}
	})
}

func (s *notificationService) NotifyScanComplete(userID uuid.UUID, projectID uuid.UUID, summary dtos.ScanSummary) (models.Notification, error) {
	var message string
	if summary.TotalVulnerabilities == 0 {
		message = fmt.Sprintf("Scan completed for your project. Found %d dependencies with no vulnerabilities.", summary.TotalDependencies)
	} else {
		message = fmt.Sprintf("Scan completed for your project. Found %d dependencies with %d vulnerabilities (%d critical).", summary.TotalDependencies, summary.TotalVulnerabilities, summary.CriticalVulnerabilities)
	}

	return s.Notify(userID, message, models.NotificationTypeScan, map[string]any{
		"projectId":               projectID.String(),
		"totalDependencies":       summary.TotalDependencies,
		"totalVulnerabilities":    summary.TotalVulnerabilities,
		"criticalVulnerabilities": summary.CriticalVulnerabilities,
		"highVulnerabilities":     summary.HighVulnerabilities,
	})
}

func (s *notificationService) NotifySecurityAlert(userID uuid.UUID, projectID uuid.UUID, issue models.Issue) (models.Notification, error) {
	message := fmt.Sprintf("New %s severity vulnerability detected in your project: %s", issue.Severity, issue.Title)

	metadata := map[string]any{
		"projectId":    projectID.String(),
		"dependencyId": issue.DependencyID.String(),
		"severity":     string(issue.Severity),
	}
	if issue.CVEID != nil {
		metadata["cveId"] = *issue.CVEID
	}

	return s.Notify(userID, message, models.NotificationTypeSecurity, metadata)
}

func (s *notificationService) MarkRead(id uuid.UUID, userID uuid.UUID) error {
	if err := s.notificationRepository.MarkRead(id, userID); err != nil {
		return err
	}
	s.dispatcher.DispatchUnreadCount(userID)
	return nil
}

func (s *notificationService) MarkAllRead(userID uuid.UUID) error {
	if err := s.notificationRepository.MarkAllRead(userID); err != nil {
		return err
	}
	s.dispatcher.DispatchUnreadCount(userID)
	return nil
}

func (s *notificationService) ListPaged(userID uuid.UUID, pageInfo shared.PageInfo, typeFilter *models.NotificationType) (shared.Paged[models.Notification], error) {
	return s.notificationRepository.ListPaged(userID, pageInfo, typeFilter)
}

func (s *notificationService) UnreadCount(userID uuid.UUID) (int64, error) {
	return s.notificationRepository.UnreadCount(userID)
}

// Cleanup deletes notifications that are read AND older than the cutoff.
// Unread notifications are retained regardless of age.
func (s *notificationService) Cleanup(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	return s.notificationRepository.DeleteReadOlderThan(cutoff)
}
