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

package daemons

import (
	"log/slog"
	"time"

	"github.com/l3montree-dev/vulnwatch/shared"
)

const (
	notificationCleanupInterval = 12 * time.Hour
	rescanInterval              = 24 * time.Hour

	// read notifications older than this many days get deleted
	notificationRetentionDays = 30
)

// DaemonRunner encapsulates the background job dependencies and lifecycle.
type DaemonRunner struct {
	projectRepository    shared.ProjectRepository
	dependencyRepository shared.DependencyRepository
	issueRepository      shared.IssueRepository
	advisoryService      shared.AdvisoryService
	notificationService  shared.NotificationService

	stop chan struct{}
}

func NewDaemonRunner(
	projectRepository shared.ProjectRepository,
	dependencyRepository shared.DependencyRepository,
	issueRepository shared.IssueRepository,
	advisoryService shared.AdvisoryService,
	notificationService shared.NotificationService,
) *DaemonRunner {
	return &DaemonRunner{
		projectRepository:    projectRepository,
		dependencyRepository: dependencyRepository,
		issueRepository:      issueRepository,
		advisoryService:      advisoryService,
		notificationService:  notificationService,
		stop:                 make(chan struct{}),
	}
}

// Start launches all periodic jobs. Each job runs in its own goroutine so a
// slow rescan cannot delay the cleanup.
func (runner *DaemonRunner) Start() {
	go runner.runEvery(notificationCleanupInterval, "notification cleanup", runner.CleanupNotifications)
	go runner.runEvery(rescanInterval, "dependency rescan", runner.RescanDependencies)
}

func (runner *DaemonRunner) Stop() {
	close(runner.stop)
}

func (runner *DaemonRunner) runEvery(interval time.Duration, name string, job func() error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-runner.stop:
			return
		case <-ticker.C:
			start := time.Now()
			if err := job(); err != nil {
				slog.Error("daemon job failed", "job", name, "err", err)
				continue
			}
			slog.Info("daemon job finished", "job", name, "duration", time.Since(start))
		}
	}
}
