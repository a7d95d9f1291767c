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

type issueRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.Issue]
}

func NewIssueRepository(db *gorm.DB) *issueRepository {
	return &issueRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.Issue](db),
	}
}

// DeleteByDependencyID drops the previous issue snapshot of a dependency.
// Only the rescan daemon uses this - scan issues are append-only otherwise.
func (r *issueRepository) DeleteByDependencyID(tx *gorm.DB, dependencyID uuid.UUID) error {
	return r.GetDB(tx).Where("dependency_id = ?", dependencyID).Delete(&models.Issue{}).Error
}
