package models

import (
	"time"

	"gorm.io/gorm"
)

// AppStatus represents an application's lifecycle state
type AppStatus string

const (
	AppStatusActive   AppStatus = "active"
	AppStatusInactive AppStatus = "inactive"
)

// Application is the tenant boundary. Roles and user memberships are
// scoped to one application. Deleting an app does not cascade; integrity
// is checked at request time.
type Application struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	RedirectURL string         `gorm:"not null" json:"redirect_url"`
	Status      AppStatus      `gorm:"type:varchar(20);default:'active'" json:"status"`
	AdminID     uint           `gorm:"index;not null" json:"admin_id"`
}
