package models

import "gorm.io/gorm"

// AllModels returns all models for migration
// Note: Application must be migrated before Role and AppMembership
func AllModels() []interface{} {
	return []interface{}{
		&Admin{},
		&Application{},
		&Role{},
		&User{},
		&AppMembership{},
		&LegacyUser{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
