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

package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/risk"
)

// VulnInPackage is one advisory normalized from the upstream source.
type VulnInPackage struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    models.Severity `json:"severity"`
	CVEID       *string         `json:"cveId,omitempty"`
}

// DependencyDTO is the dependency part of a scan result entry. Degraded
// entries were never persisted, so everything except name and version is
// optional.
type DependencyDTO struct {
	ID        *uuid.UUID `json:"id,omitempty"`
	Name      string     `json:"name"`
	Version   string     `json:"version"`
	Ecosystem string     `json:"ecosystem,omitempty"`
	ProjectID *uuid.UUID `json:"projectId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func DependencyDTOFromModel(dependency models.Dependency) DependencyDTO {
	id := dependency.ID
	projectID := dependency.ProjectID
	createdAt := dependency.CreatedAt
	return DependencyDTO{
		ID:        &id,
		Name:      dependency.Name,
		Version:   dependency.Version,
		Ecosystem: dependency.Ecosystem,
		ProjectID: &projectID,
		CreatedAt: &createdAt,
	}
}

type DependencyScanResult struct {
	Dependency         DependencyDTO   `json:"dependency"`
	Vulnerabilities    []VulnInPackage `json:"vulnerabilities"`
	VulnerabilityCount int             `json:"vulnerabilityCount"`
	Risk               risk.Level      `json:"risk"`
	// set on degraded entries only - callers have to inspect individual
	// entries to detect partial failure, the scan itself succeeds.
	Error *string `json:"error,omitempty"`
}

type ScanSummary struct {
	TotalDependencies       int       `json:"totalDependencies"`
	TotalVulnerabilities    int       `json:"totalVulnerabilities"`
	CriticalVulnerabilities int       `json:"criticalVulnerabilities"`
	HighVulnerabilities     int       `json:"highVulnerabilities"`
	ScanDate                time.Time `json:"scanDate"`
	DurationMs              int64     `json:"duration"`
}

type ScanResponse struct {
	Results []DependencyScanResult `json:"results"`
	Summary ScanSummary            `json:"summary"`
}

type ScanStats struct {
	TotalDependencies       int        `json:"totalDependencies"`
	TotalVulnerabilities    int        `json:"totalVulnerabilities"`
	CriticalVulnerabilities int        `json:"criticalVulnerabilities"`
	HighVulnerabilities     int        `json:"highVulnerabilities"`
	MediumVulnerabilities   int        `json:"mediumVulnerabilities"`
	LowVulnerabilities      int        `json:"lowVulnerabilities"`
	LastScanDate            *time.Time `json:"lastScanDate"`
}

type ScanHistoryEntry struct {
	ID                 uuid.UUID `json:"id"`
	DependencyName     string    `json:"dependencyName"`
	DependencyVersion  string    `json:"dependencyVersion"`
	ScanDate           time.Time `json:"scanDate"`
	VulnerabilityCount int       `json:"vulnerabilityCount"`
	CriticalCount      int       `json:"criticalCount"`
	HighCount          int       `json:"highCount"`
	MediumCount        int       `json:"mediumCount"`
	LowCount           int       `json:"lowCount"`
}
