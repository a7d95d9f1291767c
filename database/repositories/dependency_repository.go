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

package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/l3montree-dev/vulnwatch/database/models"
)

type dependencyRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.Dependency]
}

func NewDependencyRepository(db *gorm.DB) *dependencyRepository {
	return &dependencyRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.Dependency](db),
	}
}

func (r *dependencyRepository) ListByProjectID(projectID uuid.UUID) ([]models.Dependency, error) {
	var dependencies []models.Dependency
	err := r.db.Preload("Issues").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&dependencies).Error
	return dependencies, err
}
