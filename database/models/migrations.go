package models

import "gorm.io/gorm"

// RunMigrations brings the schema up to date. Dependency and issue rows are
// append-only scan history, so there is nothing destructive in here.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Project{},
		&Dependency{},
		&Issue{},
		&Notification{},
	)
}
