package models

import "github.com/google/uuid"

// Dependency is one declared package captured during a scan. Rows are
// immutable and accumulate as scan history - there is no upsert.
type Dependency struct {
	Model
	Name    string `json:"name" gorm:"type:text;not null"`
	Version string `json:"version" gorm:"type:text"`
	// ecosystem hint derived from the manifest format (npm, PyPI, ...).
	// Empty when the fallback line parser was used.
	Ecosystem string    `json:"ecosystem" gorm:"type:text"`
	ProjectID uuid.UUID `json:"projectId" gorm:"type:uuid;not null;index"`

	Issues []Issue `json:"issues,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

func (d Dependency) TableName() string {
	return "dependencies"
}
