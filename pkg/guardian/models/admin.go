package models

import (
	"time"

	"gorm.io/gorm"
)

// AdminStatus represents an admin's lifecycle state
type AdminStatus string

const (
	AdminStatusActive   AdminStatus = "active"
	AdminStatusInactive AdminStatus = "inactive"
)

// Admin is a separate principal type that manages applications and roles.
// Admins are soft-deleted by flipping status to inactive, never removed.
type Admin struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `json:"-"`
	Status       AdminStatus    `gorm:"type:varchar(20);default:'active'" json:"status"`

	Token     string     `json:"-"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}
