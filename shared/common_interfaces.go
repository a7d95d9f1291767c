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

package shared

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/dtos"
)

type UserRepository interface {
	Read(id uuid.UUID) (models.User, error)
	ReadByAPIToken(token string) (models.User, error)
}

type ProjectRepository interface {
	Read(id uuid.UUID) (models.Project, error)
	All() ([]models.Project, error)
}

type DependencyRepository interface {
	Create(tx DB, dependency *models.Dependency) error
	// ListByProjectID returns the scan history of a project, issues
	// preloaded, newest dependency rows first.
	ListByProjectID(projectID uuid.UUID) ([]models.Dependency, error)
}

type IssueRepository interface {
	SaveBatch(tx DB, issues []models.Issue) error
	DeleteByDependencyID(tx DB, dependencyID uuid.UUID) error
}

type NotificationRepository interface {
	Create(tx DB, notification *models.Notification) error
	Read(id uuid.UUID) (models.Notification, error)
	MarkRead(id uuid.UUID, userID uuid.UUID) error
	MarkAllRead(userID uuid.UUID) error
	ListPaged(userID uuid.UUID, pageInfo PageInfo, typeFilter *models.NotificationType) (Paged[models.Notification], error)
	UnreadCount(userID uuid.UUID) (int64, error)
	DeleteReadOlderThan(cutoff time.Time) (int64, error)
}

// AdvisoryService looks up known vulnerabilities for a single declared
// package version. Implementations fail open: any upstream error yields an
// empty result, never an error value.
type AdvisoryService interface {
	Lookup(ctx context.Context, name, version, ecosystem string) []dtos.VulnInPackage
}

type ScanService interface {
	RunScan(ctx context.Context, userID uuid.UUID, projectID uuid.UUID, filename string, content []byte) (dtos.ScanResponse, error)
	GetScanResults(userID uuid.UUID, projectID uuid.UUID) ([]dtos.DependencyScanResult, error)
	GetScanStats(userID uuid.UUID, projectID uuid.UUID) (dtos.ScanStats, error)
	GetScanHistory(userID uuid.UUID, projectID uuid.UUID) ([]dtos.ScanHistoryEntry, error)
}

type NotificationService interface {
	Notify(userID uuid.UUID, message string, notificationType models.NotificationType, metadata map[string]any) (models.Notification, error)
	NotifyScanComplete(userID uuid.UUID, projectID uuid.UUID, summary dtos.ScanSummary) (models.Notification, error)
	NotifySecurityAlert(userID uuid.UUID, projectID uuid.UUID, issue models.Issue) (models.Notification, error)
	MarkRead(id uuid.UUID, userID uuid.UUID) error
	MarkAllRead(userID uuid.UUID) error
	ListPaged(userID uuid.UUID, pageInfo PageInfo, typeFilter *models.NotificationType) (Paged[models.Notification], error)
	UnreadCount(userID uuid.UUID) (int64, error)
	Cleanup(olderThanDays int) (int64, error)
}

// EventSink is a single client push channel. Send must be safe to call from
// the dispatcher goroutines; a non-nil error marks the sink broken.
type EventSink interface {
	Send(event dtos.Event) error
	Close()
}

type RealtimeDispatcher interface {
	// Subscribe registers the sink under userID, replacing any prior
	// connection of that user. The returned channel closes when the
	// connection is deregistered. The returned func deregisters exactly
	// this connection: calling it after a replacement took over is a
	// no-op on the replacement.
	Subscribe(userID uuid.UUID, sink EventSink) (<-chan struct{}, func())
	Dispatch(userID uuid.UUID, event dtos.Event)
	DispatchUnreadCount(userID uuid.UUID)
}

// Mailer delivers notification emails. Delivery is fire and forget: callers
// log failures and move on.
type Mailer interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// TokenVerifier resolves a bearer token to a user. Full authentication
// (registration, sessions, password handling) lives outside this service.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (models.User, error)
}
