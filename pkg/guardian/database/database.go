package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open initializes a database connection. Handlers receive the returned
// handle explicitly; there is no package-level singleton.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}
