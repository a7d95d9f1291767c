package models

import "github.com/google/uuid"

type Project struct {
	Model
	Name   string    `json:"name" gorm:"type:text;not null"`
	UserID uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`

	Dependencies []Dependency `json:"dependencies,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

func (p Project) TableName() string {
	return "projects"
}
