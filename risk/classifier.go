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

// Package risk reduces issue sets to an ordinal risk level. The reduction is
// pure: the worst member wins, the number of issues never weighs in.
package risk

import "github.com/l3montree-dev/vulnwatch/database/models"

type Level string

const (
	LevelCritical Level = "critical"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
	LevelSecure   Level = "secure"
	// LevelUnknown marks degraded scan entries. Classify never returns it.
	LevelUnknown Level = "unknown"
)

// total order: critical > high > medium > low > secure. Issues with an
// UNKNOWN severity carry no ranking information and do not raise the level.
var severityRank = map[models.Severity]int{
	models.SeverityCritical: 4,
	models.SeverityHigh:     3,
	models.SeverityMedium:   2,
	models.SeverityLow:      1,
}

var rankLevel = [...]Level{LevelSecure, LevelLow, LevelMedium, LevelHigh, LevelCritical}

// Classify reduces a set of severities to the level of its worst member.
// An empty set is secure.
func Classify(severities []models.Severity) Level {
	worst := 0
	for _, severity := range severities {
		if rank := severityRank[severity]; rank > worst {
			worst = rank
		}
	}
	return rankLevel[worst]
}

func ClassifyIssues(issues []models.Issue) Level {
	severities := make([]models.Severity, len(issues))
	for i, issue := range issues {
		severities[i] = issue.Severity
	}
	return Classify(severities)
}

// Max aggregates already classified levels, e.g. all dependencies of a
// project, using the same worst-member reduction.
func Max(levels []Level) Level {
	worst := 0
	for _, level := range levels {
		for rank, l := range rankLevel {
			if l == level && rank > worst {
				worst = rank
			}
		}
	}
	return rankLevel[worst]
}
