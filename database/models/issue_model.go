package models

import "github.com/google/uuid"

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityUnknown  Severity = "UNKNOWN"
)

// Issue is a single advisory attached to exactly one dependency row.
// Immutable once created.
type Issue struct {
	Model
	Title        string    `json:"title" gorm:"type:text;not null"`
	Description  string    `json:"description" gorm:"type:text"`
	Severity     Severity  `json:"severity" gorm:"type:text;not null;default:'UNKNOWN'"`
	CVEID        *string   `json:"cveId" gorm:"type:text;default:null"`
	DependencyID uuid.UUID `json:"dependencyId" gorm:"type:uuid;not null;index"`
}

func (i Issue) TableName() string {
	return "issues"
}
