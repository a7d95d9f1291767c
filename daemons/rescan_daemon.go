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
	"context"
	"log/slog"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/utils"
)

// RescanDependencies re-checks the most recent scan of every project against
// the advisory source. Advisories published since the last scan replace the
// stored issue set, and newly discovered CRITICAL ones raise a security
// alert notification for the project owner.
func (runner *DaemonRunner) RescanDependencies() error {
	projects, err := runner.projectRepository.All()
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, project := range projects {
		if err := runner.rescanProject(ctx, project); err != nil {
			slog.Error("could not rescan project", "projectID", project.ID, "err", err)
		}
	}
	return nil
}

func (runner *DaemonRunner) rescanProject(ctx context.Context, project models.Project) error {
	dependencies, err := runner.dependencyRepository.ListByProjectID(project.ID)
	if err != nil {
		return err
	}

	for _, dependency := range latestPerPackage(dependencies) {
		vulns := runner.advisoryService.Lookup(ctx, dependency.Name, dependency.Version, dependency.Ecosystem)

		known := make(map[string]bool, len(dependency.Issues))
		for _, issue := range dependency.Issues {
			known[issueKey(issue.Title, issue.CVEID)] = true
		}

		var newIssues []models.Issue
		issues := make([]models.Issue, len(vulns))
		for i, vuln := range vulns {
			issues[i] = models.Issue{
				Title:        vuln.Title,
				Description:  vuln.Description,
				Severity:     vuln.Severity,
				CVEID:        vuln.CVEID,
				DependencyID: dependency.ID,
			}
			if !known[issueKey(vuln.Title, vuln.CVEID)] {
				newIssues = append(newIssues, issues[i])
			}
		}
		if len(newIssues) == 0 {
			continue
		}

		if err := runner.issueRepository.DeleteByDependencyID(nil, dependency.ID); err != nil {
			slog.Error("could not replace issues during rescan", "dependencyID", dependency.ID, "err", err)
			continue
		}
		if err := runner.issueRepository.SaveBatch(nil, issues); err != nil {
			slog.Error("could not persist rescanned issues", "dependencyID", dependency.ID, "err", err)
			continue
		}

		for _, issue := range newIssues {
			if issue.Severity != models.SeverityCritical {
				continue
			}
			if _, err := runner.notificationService.NotifySecurityAlert(project.UserID, project.ID, issue); err != nil {
				slog.Error("could not create security alert", "projectID", project.ID, "err", err)
			}
		}
	}
	return nil
}

// latestPerPackage reduces the full scan history to the newest row per
// package name. Rows arrive ordered newest first.
func latestPerPackage(dependencies []models.Dependency) []models.Dependency {
	seen := make(map[string]bool, len(dependencies))
	return utils.Filter(dependencies, func(dependency models.Dependency) bool {
		if seen[dependency.Name] {
			return false
		}
		seen[dependency.Name] = true
		return true
	})
}

func issueKey(title string, cveID *string) string {
	return title + "|" + utils.SafeDereference(cveID)
}
