package roles

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jpvargas/guardian/pkg/guardian/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func TestResolve(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Role{
		Name: "Editor", AppID: 1, AdminID: 1, IsActive: true,
		Description: "Can edit",
		Permissions: models.StringList{"read", "write"},
		Screens:     models.StringList{"editor"},
	})

	got := Resolve(db, "Editor", 1)
	if got.Name != "Editor" || got.Description != "Can edit" {
		t.Errorf("Unexpected detail: %+v", got)
	}
	if len(got.Permissions) != 2 || got.Permissions[0] != "read" {
		t.Errorf("Unexpected permissions: %v", got.Permissions)
	}
}

func TestResolveScopedToApp(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Role{
		Name: "Editor", AppID: 1, AdminID: 1, IsActive: true,
		Permissions: models.StringList{"read"},
	})

	// Same name, different app: the stored role must not leak across apps.
	got := Resolve(db, "Editor", 2)
	if got.Description != "Default role" {
		t.Errorf("Expected fallback for unmatched app, got %+v", got)
	}
}

func TestResolveFallback(t *testing.T) {
	got := Resolve(setupTestDB(t), "Ghost", 1)
	if got.Name != "Ghost" {
		t.Errorf("Fallback keeps the requested name, got %s", got.Name)
	}
	if !got.IsActive || len(got.Permissions) != 2 || len(got.Screens) != 1 {
		t.Errorf("Unexpected fallback shape: %+v", got)
	}
}

func TestDefaultForApp(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Role{Name: "Member", AppID: 1, AdminID: 1, IsActive: true, IsDefault: true})
	db.Create(&models.Role{Name: "Retired", AppID: 2, AdminID: 1, IsActive: false, IsDefault: true})

	role, err := DefaultForApp(db, 1)
	if err != nil {
		t.Fatalf("DefaultForApp failed: %v", err)
	}
	if role.Name != "Member" {
		t.Errorf("Expected Member, got %s", role.Name)
	}

	// An inactive default does not count.
	if _, err := DefaultForApp(db, 2); err == nil {
		t.Error("Expected error when the only default role is inactive")
	}
}
