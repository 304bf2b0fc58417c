// Package roles resolves the role a principal holds within an
// application and the permission/screen set that comes with it.
package roles

import (
	"errors"

	"gorm.io/gorm"

	"github.com/jpvargas/guardian/pkg/guardian/models"
)

// Detail is the role payload returned to authenticated clients.
type Detail struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
	Screens     []string `json:"screens"`
	IsActive    bool     `json:"is_active"`
}

// Fallback synthesizes a minimal role for a principal whose role name is
// not present in the store. Logins degrade gracefully instead of failing
// on a dangling role reference.
func Fallback(name string) Detail {
	return Detail{
		Name:        name,
		Description: "Default role",
		Permissions: []string{"read", "write"},
		Screens:     []string{"default"},
		IsActive:    true,
	}
}

func detailOf(role *models.Role) Detail {
	return Detail{
		Name:        role.Name,
		Description: role.Description,
		Permissions: role.Permissions,
		Screens:     role.Screens,
		IsActive:    role.IsActive,
	}
}

// Resolve looks up the role by (name, app) and falls back to a synthetic
// role when the store has no matching entity.
func Resolve(db *gorm.DB, name string, appID uint) Detail {
	var role models.Role
	err := db.Where("name = ? AND app_id = ?", name, appID).First(&role).Error
	if err != nil {
		return Fallback(name)
	}
	return detailOf(&role)
}

// ResolveByName looks up the role by name alone, for callers that have no
// app context (token-only checks). First match wins.
func ResolveByName(db *gorm.DB, name string) Detail {
	var role models.Role
	err := db.Where("name = ?", name).First(&role).Error
	if err != nil {
		return Fallback(name)
	}
	return detailOf(&role)
}

// DefaultForApp returns the active default role of an application, used
// when an enrollee requests no specific role.
func DefaultForApp(db *gorm.DB, appID uint) (*models.Role, error) {
	var role models.Role
	err := db.Where("app_id = ? AND is_default = ? AND is_active = ?", appID, true, true).
		First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}
