package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/l3montree-dev/vulnwatch/database/models"
)

type projectRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.Project]
}

func NewProjectRepository(db *gorm.DB) *projectRepository {
	return &projectRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.Project](db),
	}
}
