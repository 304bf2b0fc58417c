package rol

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jpvargas/guardian/pkg/guardian/auth"
	"github.com/jpvargas/guardian/pkg/guardian/config"
	"github.com/jpvargas/guardian/pkg/guardian/models"
	"github.com/jpvargas/guardian/pkg/guardian/response"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func setupTestRouter(db *gorm.DB) (*gin.Engine, *auth.TokenManager) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenManager(config.Config{
		JWTSecret: "test-secret", TokenTTL: 30 * time.Minute, RefreshGrace: 15 * time.Minute,
	})
	r := gin.New()
	handler := NewHandler(db)
	managed := r.Group("", auth.Middleware(tokens), auth.RequireAdmin())
	handler.RegisterRoutes(managed)
	handler.RegisterScreenRoutes(managed)
	return r, tokens
}

func adminToken(t *testing.T, tokens *auth.TokenManager, adminID string) string {
	t.Helper()
	token, err := tokens.Generate(adminID, auth.AdminRoleName, "admin@example.com", "Admin", "active")
	if err != nil {
		t.Fatalf("Failed to mint admin token: %v", err)
	}
	return token
}

func seedApp(t *testing.T, db *gorm.DB, name string) models.Application {
	t.Helper()
	app := models.Application{Name: name, RedirectURL: "https://" + name + ".example.com", Status: models.AppStatusActive, AdminID: 1}
	if err := db.Create(&app).Error; err != nil {
		t.Fatalf("Failed to seed app: %v", err)
	}
	return app
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		buf = bytes.NewBuffer(jsonBody)
	} else {
		buf = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	return env
}

func TestCreateRole(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	app := seedApp(t, db, "portal")
	token := adminToken(t, tokens, "1")

	resp := doJSON(t, r, "POST", "/role/1", token, CreateRoleRequest{
		Name:        "Editor",
		Description: "Can edit content",
		Permissions: []string{"read", "write"},
		Screens:     []string{"editor"},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var role models.Role
	if err := db.Where("name = ? AND app_id = ?", "Editor", app.ID).First(&role).Error; err != nil {
		t.Fatalf("Created role not found: %v", err)
	}
	if !role.IsActive || role.AdminID != 1 {
		t.Errorf("Expected active role owned by admin 1, got %+v", role)
	}
}

func TestCreateRoleRequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	seedApp(t, db, "portal")

	// No token at all.
	resp := doJSON(t, r, "POST", "/role/1", "", CreateRoleRequest{Name: "Editor"})
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without token, got %d", resp.Code)
	}

	// Valid token, wrong role claim.
	userToken, _ := tokens.Generate("5", "Editor", "user@example.com", "User", "Active")
	resp = doJSON(t, r, "POST", "/role/1", userToken, CreateRoleRequest{Name: "Editor"})
	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for non-admin token, got %d", resp.Code)
	}
}

func TestCreateDuplicateRole(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	seedApp(t, db, "portal")
	token := adminToken(t, tokens, "1")

	req := CreateRoleRequest{Name: "Editor"}
	if resp := doJSON(t, r, "POST", "/role/1", token, req); resp.Code != http.StatusCreated {
		t.Fatalf("First create failed: %d", resp.Code)
	}

	resp := doJSON(t, r, "POST", "/role/1", token, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", resp.Code)
	}
	if env := decodeEnvelope(t, resp); env.MessageCode != "ROLE_ALREADY_EXISTS" {
		t.Errorf("Expected ROLE_ALREADY_EXISTS, got %s", env.MessageCode)
	}
}

func TestSameRoleNameDifferentApps(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	seedApp(t, db, "portal")
	seedApp(t, db, "reports")
	token := adminToken(t, tokens, "1")

	if resp := doJSON(t, r, "POST", "/role/1", token, CreateRoleRequest{Name: "Editor"}); resp.Code != http.StatusCreated {
		t.Fatalf("Create in first app failed: %d", resp.Code)
	}
	// Uniqueness is per app, not global.
	if resp := doJSON(t, r, "POST", "/role/2", token, CreateRoleRequest{Name: "Editor"}); resp.Code != http.StatusCreated {
		t.Fatalf("Expected same name in another app to succeed, got %d", resp.Code)
	}
}

func TestListRoles(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	app := seedApp(t, db, "portal")
	token := adminToken(t, tokens, "1")

	db.Create(&models.Role{Name: "Editor", AppID: app.ID, AdminID: 1, IsActive: true})
	db.Create(&models.Role{Name: "Viewer", AppID: app.ID, AdminID: 1, IsActive: true})

	resp := doJSON(t, r, "GET", "/role/1", token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	env := decodeEnvelope(t, resp)
	data, _ := json.Marshal(env.Data)
	var list []models.Role
	json.Unmarshal(data, &list)
	if len(list) != 2 {
		t.Errorf("Expected 2 roles, got %d", len(list))
	}
}

func TestUpdateRoleOwnership(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	app := seedApp(t, db, "portal")
	db.Create(&models.Role{Name: "Editor", AppID: app.ID, AdminID: 1, IsActive: true})

	desc := "updated"

	// A different admin may not touch the role.
	other := adminToken(t, tokens, "2")
	resp := doJSON(t, r, "PATCH", "/role/1", other, UpdateRoleRequest{RoleName: "Editor", Description: &desc})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403 for non-owner, got %d", resp.Code)
	}
	if env := decodeEnvelope(t, resp); env.MessageCode != "UNAUTHORIZED_MODIFY" {
		t.Errorf("Expected UNAUTHORIZED_MODIFY, got %s", env.MessageCode)
	}

	// The owning admin may.
	owner := adminToken(t, tokens, "1")
	resp = doJSON(t, r, "PATCH", "/role/1", owner, UpdateRoleRequest{RoleName: "Editor", Description: &desc})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for owner, got %d: %s", resp.Code, resp.Body.String())
	}

	var role models.Role
	db.Where("name = ?", "Editor").First(&role)
	if role.Description != "updated" {
		t.Errorf("Expected updated description, got %q", role.Description)
	}
}

func TestUpdateRoleDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	app := seedApp(t, db, "portal")
	db.Create(&models.Role{Name: "Editor", AppID: app.ID, AdminID: 1, IsActive: true})
	db.Create(&models.Role{Name: "Viewer", AppID: app.ID, AdminID: 1, IsActive: true})
	token := adminToken(t, tokens, "1")

	newName := "Viewer"
	resp := doJSON(t, r, "PATCH", "/role/1", token, UpdateRoleRequest{RoleName: "Editor", Name: &newName})
	if resp.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", resp.Code)
	}
	if env := decodeEnvelope(t, resp); env.MessageCode != "DUPLICATE_ROLE" {
		t.Errorf("Expected DUPLICATE_ROLE, got %s", env.MessageCode)
	}
}

func TestDeleteRoleIsSoft(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	app := seedApp(t, db, "portal")
	db.Create(&models.Role{Name: "Editor", AppID: app.ID, AdminID: 1, IsActive: true})
	token := adminToken(t, tokens, "1")

	// A different admin's delete is refused outright.
	other := adminToken(t, tokens, "2")
	resp := doJSON(t, r, "DELETE", "/role/1", other, DeleteRoleRequest{RoleName: "Editor"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403 for non-owner delete, got %d", resp.Code)
	}

	resp = doJSON(t, r, "DELETE", "/role/1", token, DeleteRoleRequest{RoleName: "Editor"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// Row survives with the flag flipped.
	var role models.Role
	if err := db.Where("name = ?", "Editor").First(&role).Error; err != nil {
		t.Fatalf("Soft-deleted role should still exist: %v", err)
	}
	if role.IsActive {
		t.Error("Expected is_active false after deactivation")
	}
}

func TestAddScreens(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	app := seedApp(t, db, "portal")
	role := models.Role{Name: "Editor", AppID: app.ID, AdminID: 1, IsActive: true,
		Screens: models.StringList{"home"}}
	db.Create(&role)
	token := adminToken(t, tokens, "1")

	resp := doJSON(t, r, "POST", "/rol/screens", token, ScreensRequest{
		RoleID: role.ID, AppID: app.ID, Screens: []string{"editor", "settings"},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got models.Role
	db.First(&got, role.ID)
	if len(got.Screens) != 3 {
		t.Errorf("Expected 3 screens, got %v", got.Screens)
	}
}

func TestAddDuplicateScreen(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	app := seedApp(t, db, "portal")
	role := models.Role{Name: "Editor", AppID: app.ID, AdminID: 1, IsActive: true,
		Screens: models.StringList{"home"}}
	db.Create(&role)
	token := adminToken(t, tokens, "1")

	resp := doJSON(t, r, "POST", "/rol/screens", token, ScreensRequest{
		RoleID: role.ID, AppID: app.ID, Screens: []string{"editor", "home"},
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", resp.Code)
	}
	if env := decodeEnvelope(t, resp); env.MessageCode != "DUPLICATE_SCREEN" {
		t.Errorf("Expected DUPLICATE_SCREEN, got %s", env.MessageCode)
	}

	// Nothing is applied when any screen duplicates.
	var got models.Role
	db.First(&got, role.ID)
	if len(got.Screens) != 1 {
		t.Errorf("Expected screens untouched on conflict, got %v", got.Screens)
	}
}

func TestScreenRoleAppMismatch(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	app := seedApp(t, db, "portal")
	other := seedApp(t, db, "reports")
	role := models.Role{Name: "Editor", AppID: app.ID, AdminID: 1, IsActive: true}
	db.Create(&role)
	token := adminToken(t, tokens, "1")

	resp := doJSON(t, r, "POST", "/rol/screens", token, ScreensRequest{
		RoleID: role.ID, AppID: other.ID, Screens: []string{"editor"},
	})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", resp.Code)
	}
	if env := decodeEnvelope(t, resp); env.MessageCode != "ROLE_APP_MISMATCH" {
		t.Errorf("Expected ROLE_APP_MISMATCH, got %s", env.MessageCode)
	}
}

func TestRemoveScreens(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	app := seedApp(t, db, "portal")
	role := models.Role{Name: "Editor", AppID: app.ID, AdminID: 1, IsActive: true,
		Screens: models.StringList{"home", "editor"}}
	db.Create(&role)
	token := adminToken(t, tokens, "1")

	resp := doJSON(t, r, "DELETE", "/rol/screens", token, ScreensRequest{
		RoleID: role.ID, AppID: app.ID, Screens: []string{"editor"},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got models.Role
	db.First(&got, role.ID)
	if len(got.Screens) != 1 || got.Screens[0] != "home" {
		t.Errorf("Expected only home to remain, got %v", got.Screens)
	}

	// Removing an absent screen is an error, not a no-op.
	resp = doJSON(t, r, "DELETE", "/rol/screens", token, ScreensRequest{
		RoleID: role.ID, AppID: app.ID, Screens: []string{"editor"},
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", resp.Code)
	}
	if env := decodeEnvelope(t, resp); env.MessageCode != "SCREEN_NOT_FOUND" {
		t.Errorf("Expected SCREEN_NOT_FOUND, got %s", env.MessageCode)
	}
}

func TestReplaceScreens(t *testing.T) {
	db := setupTestDB(t)
	r, tokens := setupTestRouter(db)
	app := seedApp(t, db, "portal")
	role := models.Role{Name: "Editor", AppID: app.ID, AdminID: 1, IsActive: true,
		Screens: models.StringList{"home", "editor"}}
	db.Create(&role)
	token := adminToken(t, tokens, "1")

	resp := doJSON(t, r, "PATCH", "/rol/screens", token, ReplaceScreensRequest{
		RoleID: role.ID, AppID: app.ID, Screens: []string{"dashboard"},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got models.Role
	db.First(&got, role.ID)
	if len(got.Screens) != 1 || got.Screens[0] != "dashboard" {
		t.Errorf("Expected screens replaced, got %v", got.Screens)
	}

	// Replacing with an empty set revokes everything.
	resp = doJSON(t, r, "PATCH", "/rol/screens", token, ReplaceScreensRequest{
		RoleID: role.ID, AppID: app.ID, Screens: []string{},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for empty set, got %d", resp.Code)
	}
	db.First(&got, role.ID)
	if len(got.Screens) != 0 {
		t.Errorf("Expected no screens after empty replace, got %v", got.Screens)
	}
}
