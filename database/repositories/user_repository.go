package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/l3montree-dev/vulnwatch/database/models"
)

type userRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.User]
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.User](db),
	}
}

func (r *userRepository) ReadByAPIToken(token string) (models.User, error) {
	var user models.User
	err := r.db.First(&user, "api_token = ?", token).Error
	return user, err
}
