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

package vulndb

import (
	"log/slog"
	"strings"

	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"
	gocvss40 "github.com/pandatix/go-cvss/40"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/dtos"
)

// severityFromOSV maps the heterogeneous upstream severity information to
// our ordinal scale. Order of preference: an explicit database_specific
// severity string, then a CVSS vector. Missing or unparseable information
// yields UNKNOWN - a severity is never guessed.
func severityFromOSV(osv dtos.OSV) models.Severity {
	if raw, ok := osv.DatabaseSpecific["severity"].(string); ok {
		if severity, ok := severityFromString(raw); ok {
			return severity
		}
	}

	for _, severity := range osv.Severity {
		if score, ok := scoreFromVector(severity.Score); ok {
			return severityFromScore(score)
		}
	}

	return models.SeverityUnknown
}

func severityFromString(raw string) (models.Severity, bool) {
	switch strings.ToUpper(raw) {
	case "CRITICAL":
		return models.SeverityCritical, true
	case "HIGH":
		return models.SeverityHigh, true
	// GitHub advisories say MODERATE where CVSS says MEDIUM
	case "MEDIUM", "MODERATE":
		return models.SeverityMedium, true
	case "LOW":
		return models.SeverityLow, true
	}
	return models.SeverityUnknown, false
}

func scoreFromVector(vector string) (float64, bool) {
	switch {
	case strings.HasPrefix(vector, "CVSS:3.0"):
		cvss, err := gocvss30.ParseVector(vector)
		if err != nil {
			slog.Warn("could not parse cvss vector", "vector", vector, "err", err)
			return 0, false
		}
		return cvss.BaseScore(), true
	case strings.HasPrefix(vector, "CVSS:3.1"):
		cvss, err := gocvss31.ParseVector(vector)
		if err != nil {
			slog.Warn("could not parse cvss vector", "vector", vector, "err", err)
			return 0, false
		}
		return cvss.BaseScore(), true
	case strings.HasPrefix(vector, "CVSS:4.0"):
		cvss, err := gocvss40.ParseVector(vector)
		if err != nil {
			slog.Warn("could not parse cvss vector", "vector", vector, "err", err)
			return 0, false
		}
		return cvss.Score(), true
	}
	return 0, false
}

// qualitative severity rating scale per the CVSS specification
func severityFromScore(score float64) models.Severity {
	switch {
	case score >= 9.0:
		return models.SeverityCritical
	case score >= 7.0:
		return models.SeverityHigh
	case score >= 4.0:
		return models.SeverityMedium
	case score > 0:
		return models.SeverityLow
	}
	return models.SeverityUnknown
}
