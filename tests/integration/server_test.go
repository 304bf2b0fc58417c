package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jpvargas/guardian/pkg/guardian/admins"
	"github.com/jpvargas/guardian/pkg/guardian/apps"
	"github.com/jpvargas/guardian/pkg/guardian/auth"
	"github.com/jpvargas/guardian/pkg/guardian/config"
	"github.com/jpvargas/guardian/pkg/guardian/email"
	"github.com/jpvargas/guardian/pkg/guardian/enrollment"
	"github.com/jpvargas/guardian/pkg/guardian/models"
	"github.com/jpvargas/guardian/pkg/guardian/response"
	"github.com/jpvargas/guardian/pkg/guardian/rol"
	"github.com/jpvargas/guardian/pkg/guardian/users"
)

var codePattern = regexp.MustCompile(`is: (\d{6})`)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:           "test-secret",
		TokenTTL:            30 * time.Minute,
		RefreshGrace:        15 * time.Minute,
		CodeTTL:             5 * time.Minute,
		AllowedEmailDomains: []string{"example.com"},
	}
}

// setupTestDB creates an in-memory SQLite database with a seed admin.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	hash, err := auth.HashPassword("adminpass1")
	if err != nil {
		t.Fatalf("Failed to hash seed password: %v", err)
	}
	admin := models.Admin{Email: "root@example.com", PasswordHash: hash, Status: models.AdminStatusActive}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("Failed to create seed admin: %v", err)
	}

	return db
}

// setupFullServer creates a Gin engine with all routes registered.
// This mirrors the setup in cmd/guardian-server/main.go.
func setupFullServer(db *gorm.DB, sender email.Sender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	tokens := auth.NewTokenManager(cfg)

	r := gin.New()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "guardian"})
	})

	root := r.Group("")

	authHandler := auth.NewHandler(db, cfg, tokens)
	authHandler.RegisterRoutes(root.Group("/auth"))

	enrollHandler := enrollment.NewHandler(db, cfg, sender)
	enrollHandler.RegisterRoutes(root)

	usersHandler := users.NewHandler(db)
	usersHandler.RegisterRoutes(root)

	managed := root.Group("", auth.Middleware(tokens), auth.RequireAdmin())

	adminsHandler := admins.NewHandler(db)
	adminsHandler.RegisterRoutes(managed)

	appsHandler := apps.NewHandler(db)
	appsHandler.RegisterRoutes(managed)

	rolHandler := rol.NewHandler(db)
	rolHandler.RegisterRoutes(managed)
	rolHandler.RegisterScreenRoutes(managed)

	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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

func dataOf(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env response.Envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	data, ok := env.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object data, got %T: %s", env.Data, resp.Body.String())
	}
	return data
}

// TestServerStartup verifies that all routes can be registered without conflicts.
func TestServerStartup(t *testing.T) {
	db := setupTestDB(t)

	// This will panic if there are route conflicts.
	router := setupFullServer(db, &email.Recorder{})

	if router == nil {
		t.Fatal("Expected router to be created")
	}
}

// TestHealthEndpoint verifies the health endpoint responds correctly.
func TestHealthEndpoint(t *testing.T) {
	db := setupTestDB(t)
	router := setupFullServer(db, &email.Recorder{})

	resp := doRequest(t, router, "GET", "/health", "", nil)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.Code)
	}
}

// TestProtectedEndpointsRequireAuth verifies that management endpoints
// return 401 without a token.
func TestProtectedEndpointsRequireAuth(t *testing.T) {
	db := setupTestDB(t)
	router := setupFullServer(db, &email.Recorder{})

	protectedEndpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/admin"},
		{"POST", "/apps"},
		{"GET", "/role/1"},
		{"POST", "/rol/screens"},
	}

	for _, endpoint := range protectedEndpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			resp := doRequest(t, router, endpoint.method, endpoint.path, "", nil)
			if resp.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401 for %s %s, got %d", endpoint.method, endpoint.path, resp.Code)
			}
		})
	}
}

// TestUserTokenCannotManage verifies that a non-admin token is rejected
// on management endpoints.
func TestUserTokenCannotManage(t *testing.T) {
	db := setupTestDB(t)
	router := setupFullServer(db, &email.Recorder{})

	tokens := auth.NewTokenManager(testConfig())
	userToken, _ := tokens.Generate("5", "Editor", "user@example.com", "User", "Active")

	resp := doRequest(t, router, "GET", "/admin", userToken, nil)
	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for user token, got %d", resp.Code)
	}
}

// TestFullLifecycle walks the whole flow: admin login, app and role
// provisioning, enrollment, verification, login, refresh and token
// verification.
func TestFullLifecycle(t *testing.T) {
	db := setupTestDB(t)
	rec := &email.Recorder{}
	router := setupFullServer(db, rec)

	// Admin logs in.
	resp := doRequest(t, router, "POST", "/auth/admin/login", "",
		gin.H{"email": "root@example.com", "password": "adminpass1"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Admin login failed: %d: %s", resp.Code, resp.Body.String())
	}
	adminToken := dataOf(t, resp)["token"].(string)

	// Admin provisions an app.
	resp = doRequest(t, router, "POST", "/apps", adminToken,
		gin.H{"name": "portal", "redirect_url": "https://portal.example.com/cb"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("App creation failed: %d: %s", resp.Code, resp.Body.String())
	}
	appID := uint(dataOf(t, resp)["app_id"].(float64))

	// Admin provisions the default role.
	resp = doRequest(t, router, "POST", "/role/1", adminToken, gin.H{
		"name":         "Member",
		"permissions":  []string{"read", "write"},
		"screens":      []string{"home"},
		"default_role": true,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("Role creation failed: %d: %s", resp.Code, resp.Body.String())
	}

	// A user enrolls into the app.
	resp = doRequest(t, router, "POST", "/user/enrollment", "", gin.H{
		"name":     "New User",
		"email":    "new@example.com",
		"password": "password123",
		"apps":     []gin.H{{"app": "portal"}},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("Enrollment failed: %d: %s", resp.Code, resp.Body.String())
	}

	msg, ok := rec.Last()
	if !ok {
		t.Fatal("Expected a verification mail")
	}
	m := codePattern.FindStringSubmatch(msg.Body)
	if m == nil {
		t.Fatalf("No code in mail body: %s", msg.Body)
	}

	// Login before verification is rejected.
	resp = doRequest(t, router, "POST", "/auth/login", "",
		gin.H{"email": "new@example.com", "password": "password123", "app": "portal"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 before verification, got %d", resp.Code)
	}

	// The user verifies with the emailed code.
	resp = doRequest(t, router, "PUT", "/user/verification", "",
		gin.H{"email": "new@example.com", "code": m[1]})
	if resp.Code != http.StatusOK {
		t.Fatalf("Verification failed: %d: %s", resp.Code, resp.Body.String())
	}

	// Now login succeeds and carries the provisioned role.
	resp = doRequest(t, router, "POST", "/auth/login", "",
		gin.H{"email": "new@example.com", "password": "password123", "app": "portal"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Login failed: %d: %s", resp.Code, resp.Body.String())
	}
	data := dataOf(t, resp)
	userToken := data["token"].(string)
	if uint(data["app_id"].(float64)) != appID {
		t.Errorf("Expected app_id %d, got %v", appID, data["app_id"])
	}
	role := data["role"].(map[string]interface{})
	if role["name"] != "Member" {
		t.Errorf("Expected the Member role, got %v", role["name"])
	}

	// The token refreshes.
	resp = doRequest(t, router, "POST", "/auth/refresh", userToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Refresh failed: %d: %s", resp.Code, resp.Body.String())
	}
	refreshed := dataOf(t, resp)["token"].(string)

	// And the refreshed token verifies, including a permission check.
	resp = doRequest(t, router, "POST", "/auth/verify_auth", refreshed,
		gin.H{"permission": "write"})
	if resp.Code != http.StatusOK {
		t.Fatalf("verify_auth failed: %d: %s", resp.Code, resp.Body.String())
	}

	// Lookups see the activated user.
	resp = doRequest(t, router, "GET", "/roleByUser/new@example.com/portal", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("roleByUser failed: %d", resp.Code)
	}
	resp = doRequest(t, router, "GET", "/user/current-app?email=new@example.com", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("current-app failed: %d", resp.Code)
	}
	if data := dataOf(t, resp); data["current_app"] != "portal" {
		t.Errorf("Expected portal as current app, got %v", data["current_app"])
	}

	// Logout clears the session.
	resp = doRequest(t, router, "POST", "/auth/logout", "",
		gin.H{"email": "new@example.com", "app": "portal"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Logout failed: %d: %s", resp.Code, resp.Body.String())
	}
	if data := dataOf(t, doRequest(t, router, "GET", "/user/current-app?email=new@example.com", "", nil)); data["is_session_active"] != false {
		t.Error("Expected no active session after logout")
	}
}
