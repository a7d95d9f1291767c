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
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/dtos"
	"github.com/l3montree-dev/vulnwatch/manifest"
	"github.com/l3montree-dev/vulnwatch/monitoring"
	"github.com/l3montree-dev/vulnwatch/risk"
	"github.com/l3montree-dev/vulnwatch/shared"
	"github.com/l3montree-dev/vulnwatch/utils"
)

type scanService struct {
	projectRepository    shared.ProjectRepository
	dependencyRepository shared.DependencyRepository
	issueRepository      shared.IssueRepository
	advisoryService      shared.AdvisoryService
	notificationService  shared.NotificationService
	fireAndForget        utils.FireAndForgetSynchronizer
}

func NewScanService(projectRepository shared.ProjectRepository, dependencyRepository shared.DependencyRepository, issueRepository shared.IssueRepository, advisoryService shared.AdvisoryService, notificationService shared.NotificationService, fireAndForget utils.FireAndForgetSynchronizer) *scanService {
	return &scanService{
		projectRepository:    projectRepository,
		dependencyRepository: dependencyRepository,
		issueRepository:      issueRepository,
		advisoryService:      advisoryService,
		notificationService:  notificationService,
		fireAndForget:        fireAndForget,
	}
}

func (s *scanService) authorizeProject(userID uuid.UUID, projectID uuid.UUID) (models.Project, error) {
	project, err := s.projectRepository.Read(projectID)
	if err != nil {
		return models.Project{}, ErrNotProjectOwner
	}
	if project.UserID != userID {
		return models.Project{}, ErrNotProjectOwner
	}
	return project, nil
}

// RunScan processes the manifest dependencies SEQUENTIALLY, in declaration
// order. A failed dependency yields a degraded result entry and the scan
// moves on; the scan as a whole only fails on authorization, an empty
// manifest or a cancelled context.
func (s *scanService) RunScan(ctx context.Context, userID uuid.UUID, projectID uuid.UUID, filename string, content []byte) (dtos.ScanResponse, error) {
	if _, err := s.authorizeProject(userID, projectID); err != nil {
		return dtos.ScanResponse{}, err
	}

	declared := manifest.Parse(content, filename)
	if len(declared) == 0 {
		return dtos.ScanResponse{}, ErrEmptyManifest
	}

	start := time.Now()
	results := make([]dtos.DependencyScanResult, 0, len(declared))
	summary := dtos.ScanSummary{TotalDependencies: len(declared)}

	for _, dependency := range declared {
		if err := ctx.Err(); err != nil {
			return dtos.ScanResponse{}, errors.Wrap(err, "scan cancelled")
		}

		result, err := s.processDependency(ctx, projectID, dependency)
		if err != nil {
			slog.Error("could not process dependency", "package", dependency.Name, "version", dependency.Version, "err", err)
			monitoring.DependenciesDegraded.Inc()
			results = append(results, degradedResult(dependency))
			continue
		}
		monitoring.DependenciesProcessed.Inc()

		summary.TotalVulnerabilities += result.VulnerabilityCount
		for _, vuln := range result.Vulnerabilities {
			switch vuln.Severity {
			case models.SeverityCritical:
				summary.CriticalVulnerabilities++
			case models.SeverityHigh:
				summary.HighVulnerabilities++
			}
		}

		results = append(results, result)
	}

	summary.ScanDate = time.Now()
	summary.DurationMs = time.Since(start).Milliseconds()
	monitoring.ScanDuration.Observe(time.Since(start).Seconds())

	// notification failure never fails the scan
	s.fireAndForget.FireAndForget(func() {
		if _, err := s.notificationService.NotifyScanComplete(userID, projectID, summary); err != nil {
			slog.Error("could not create scan completion notification", "userID", userID, "projectID", projectID, "err", err)
		}
	})

	return dtos.ScanResponse{Results: results, Summary: summary}, nil
}

// processDependency runs the lookup-persist-classify pipeline for a single
// declared package. The advisory lookup fails open, so errors here are
// persistence errors.
func (s *scanService) processDependency(ctx context.Context, projectID uuid.UUID, declared manifest.Dependency) (dtos.DependencyScanResult, error) {
	vulns := s.advisoryService.Lookup(ctx, declared.Name, declared.Version, declared.Ecosystem)

	dependency := models.Dependency{
		Name:      declared.Name,
		Version:   declared.Version,
		Ecosystem: declared.Ecosystem,
		ProjectID: projectID,
	}
	if err := s.dependencyRepository.Create(nil, &dependency); err != nil {
		return dtos.DependencyScanResult{}, errors.Wrap(err, "could not persist dependency")
	}

	issues := make([]models.Issue, len(vulns))
	for i, vuln := range vulns {
		issues[i] = models.Issue{
			Title:        vuln.Title,
			Description:  vuln.Description,
			Severity:     vuln.Severity,
			CVEID:        vuln.CVEID,
			DependencyID: dependency.ID,
		}
	}
	if err := s.issueRepository.SaveBatch(nil, issues); err != nil {
		return dtos.DependencyScanResult{}, errors.Wrap(err, "could not persist issues")
	}

	severities := utils.Map(vulns, func(vuln dtos.VulnInPackage) models.Severity { return vuln.Severity })

	return dtos.DependencyScanResult{
		Dependency:         dtos.DependencyDTOFromModel(dependency),
		Vulnerabilities:    vulns,
		VulnerabilityCount: len(vulns),
		Risk:               risk.Classify(severities),
	}, nil
}

func degradedResult(declared manifest.Dependency) dtos.DependencyScanResult {
	return dtos.DependencyScanResult{
		Dependency: dtos.DependencyDTO{
			Name:      declared.Name,
			Version:   declared.Version,
			Ecosystem: declared.Ecosystem,
		},
		Vulnerabilities:    []dtos.VulnInPackage{},
		VulnerabilityCount: 0,
		Risk:               risk.LevelUnknown,
		Error:              utils.Ptr("failed to process dependency"),
	}
}

func (s *scanService) GetScanResults(userID uuid.UUID, projectID uuid.UUID) ([]dtos.DependencyScanResult, error) {
	if _, err := s.authorizeProject(userID, projectID); err != nil {
		return nil, err
	}

	dependencies, err := s.dependencyRepository.ListByProjectID(projectID)
	if err != nil {
		return nil, errors.Wrap(err, "could not list dependencies")
	}

	results := make([]dtos.DependencyScanResult, 0, len(dependencies))
	for _, dependency := range dependencies {
		vulns := utils.Map(dependency.Issues, issueToVuln)
		results = append(results, dtos.DependencyScanResult{
			Dependency:         dtos.DependencyDTOFromModel(dependency),
			Vulnerabilities:    vulns,
			VulnerabilityCount: len(vulns),
			Risk:               risk.ClassifyIssues(dependency.Issues),
		})
	}
	return results, nil
}

func (s *scanService) GetScanStats(userID uuid.UUID, projectID uuid.UUID) (dtos.ScanStats, error) {
	if _, err := s.authorizeProject(userID, projectID); err != nil {
		return dtos.ScanStats{}, err
	}

	dependencies, err := s.dependencyRepository.ListByProjectID(projectID)
	if err != nil {
		return dtos.ScanStats{}, errors.Wrap(err, "could not list dependencies")
	}

	stats := dtos.ScanStats{TotalDependencies: len(dependencies)}
	for _, dependency := range dependencies {
		// rows are ordered newest first
		if stats.LastScanDate == nil {
			createdAt := dependency.CreatedAt
			stats.LastScanDate = &createdAt
		}
		stats.TotalVulnerabilities += len(dependency.Issues)
		for _, issue := range dependency.Issues {
			switch issue.Severity {
			case models.SeverityCritical:
				stats.CriticalVulnerabilities++
			case models.SeverityHigh:
				stats.HighVulnerabilities++
			case models.SeverityMedium:
				stats.MediumVulnerabilities++
			case models.SeverityLow:
				stats.LowVulnerabilities++
			}
		}
	}
	return stats, nil
}

func (s *scanService) GetScanHistory(userID uuid.UUID, projectID uuid.UUID) ([]dtos.ScanHistoryEntry, error) {
	if _, err := s.authorizeProject(userID, projectID); err != nil {
		return nil, err
	}

	dependencies, err := s.dependencyRepository.ListByProjectID(projectID)
	if err != nil {
		return nil, errors.Wrap(err, "could not list dependencies")
	}

	history := make([]dtos.ScanHistoryEntry, 0, len(dependencies))
	for _, dependency := range dependencies {
		issues := dependency.Issues
		countBySeverity := func(severity models.Severity) int {
			return utils.CountBy(issues, func(issue models.Issue) bool { return issue.Severity == severity })
		}
		history = append(history, dtos.ScanHistoryEntry{
			ID:                 dependency.ID,
			DependencyName:     dependency.Name,
			DependencyVersion:  dependency.Version,
			ScanDate:           dependency.CreatedAt,
			VulnerabilityCount: len(issues),
			CriticalCount:      countBySeverity(models.SeverityCritical),
			HighCount:          countBySeverity(models.SeverityHigh),
			MediumCount:        countBySeverity(models.SeverityMedium),
			LowCount:           countBySeverity(models.SeverityLow),
		})
	}
	return history, nil
}

func issueToVuln(issue models.Issue) dtos.VulnInPackage {
	return dtos.VulnInPackage{
		Title:       issue.Title,
		Description: issue.Description,
		Severity:    issue.Severity,
		CVEID:       issue.CVEID,
	}
}
