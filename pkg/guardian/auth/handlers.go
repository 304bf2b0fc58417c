package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jpvargas/guardian/pkg/guardian/config"
	"github.com/jpvargas/guardian/pkg/guardian/models"
	"github.com/jpvargas/guardian/pkg/guardian/response"
	"github.com/jpvargas/guardian/pkg/guardian/roles"
)

// Handler handles authentication requests
type Handler struct {
	db     *gorm.DB
	cfg    config.Config
	tokens *TokenManager
}

// NewHandler creates a new auth handler
func NewHandler(db *gorm.DB, cfg config.Config, tokens *TokenManager) *Handler {
	return &Handler{db: db, cfg: cfg, tokens: tokens}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	App      string `json:"app"`
}

// LoginResponse represents the login response payload
type LoginResponse struct {
	Email  string      `json:"email"`
	Name   string      `json:"name"`
	Status string      `json:"status"`
	Role   roles.Detail `json:"role"`
	Token  string      `json:"token"`
	App    string      `json:"app,omitempty"`
	AppID  uint        `json:"app_id,omitempty"`
}

// loadPrincipal looks the email up in both user shapes: the multi-app
// table first, then the legacy single-role table.
func (h *Handler) loadPrincipal(email string) models.Principal {
	var user models.User
	err := h.db.Preload("Memberships").Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}

	var legacy models.LegacyUser
	if err := h.db.Where("email = ?", email).First(&legacy).Error; err != nil {
		return nil
	}
	return &legacy
}

// Login handles user login
// @Summary Login
// @Description Authenticate with email and password to receive a JWT token scoped to an application
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope "Validation error"
// @Failure 401 {object} response.Envelope "Invalid credentials"
// @Failure 403 {object} response.Envelope "Inactive user or app access denied"
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	if !EmailDomainAllowed(req.Email, h.cfg.AllowedEmailDomains) {
		response.Error(c, http.StatusBadRequest, "Invalid email domain", "INVALID_EMAIL_DOMAIN")
		return
	}

	principal := h.loadPrincipal(req.Email)

	// A missing principal and a wrong password produce the identical
	// response so callers cannot enumerate accounts.
	if principal == nil || !CheckPassword(req.Password, principal.CredentialHash()) {
		response.Error(c, http.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS")
		return
	}

	if principal.AccountStatus() != models.UserStatusActive {
		response.Error(c, http.StatusForbidden, "User is not active", "USER_NOT_ACTIVE")
		return
	}

	resp := LoginResponse{
		Email:  principal.EmailAddress(),
		Name:   principal.DisplayName(),
		Status: string(principal.AccountStatus()),
	}

	var membership *models.AppMembership
	switch p := principal.(type) {
	case *models.User:
		if req.App == "" {
			response.Error(c, http.StatusBadRequest, "App is required", "APP_REQUIRED")
			return
		}
		membership = p.Membership(req.App)
		if membership == nil {
			response.Error(c, http.StatusForbidden, "Access to the requested app is denied", "ACCESS_DENIED")
			return
		}
		resp.App = membership.AppName
		resp.AppID = membership.AppID
		resp.Role = roles.Resolve(h.db, membership.RoleName, membership.AppID)
	case *models.LegacyUser:
		// Legacy principals carry one flat role and skip the app-access
		// check entirely. Inherited behavior.
		roleName, _ := p.ResolveRole(req.App)
		resp.Role = roles.ResolveByName(h.db, roleName)
	}

	token, err := h.tokens.Generate(
		principal.PrincipalID(), resp.Role.Name,
		principal.EmailAddress(), principal.DisplayName(),
		string(principal.AccountStatus()),
	)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to generate token", "TOKEN_GENERATION_FAILED")
		return
	}
	resp.Token = token

	// The token is already minted; a failed session write does not revoke
	// it. It stays valid until natural expiry.
	now := time.Now()
	var persistErr error
	switch principal.(type) {
	case *models.User:
		persistErr = h.db.Model(&models.AppMembership{}).
			Where("id = ?", membership.ID).
			Updates(map[string]interface{}{
				"token":          token,
				"session_active": true,
				"last_login":     now,
			}).Error
	case *models.LegacyUser:
		persistErr = h.db.Model(&models.LegacyUser{}).
			Where("email = ?", principal.EmailAddress()).
			Updates(map[string]interface{}{
				"token":          token,
				"session_active": true,
				"last_login":     now,
			}).Error
	}
	if persistErr != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to update user token", "TOKEN_UPDATE_FAILED")
		return
	}

	response.JSON(c, http.StatusOK, resp, "User has been authenticated", "USER_AUTHENTICATED")
}

// Refresh handles token refresh within the grace window
// @Summary Refresh token
// @Description Exchange a valid or recently expired token for a fresh one
// @Tags auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope "Missing Authorization header"
// @Failure 401 {object} response.Envelope "Invalid or expired token"
// @Security BearerAuth
// @Router /auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	tokenString := TokenFromHeader(c)
	if tokenString == "" {
		response.Error(c, http.StatusBadRequest, "Token not added", "BAD_REQUEST")
		return
	}

	newToken, err := h.tokens.Refresh(tokenString)
	if err != nil {
		if err == ErrExpiredToken {
			response.Error(c, http.StatusUnauthorized, "Token Expired", "TOKEN_EXPIRED")
		} else {
			response.Error(c, http.StatusUnauthorized, "Token Not Valid", "TOKEN_NOT_VALID")
		}
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"token": newToken}, "Token Refreshed", "TOKEN_REFRESHED")
}

// VerifyAuthRequest represents the verify_auth request body
type VerifyAuthRequest struct {
	Permission string `json:"permission"`
}

// VerifyAuth validates the caller's token and optionally a permission
// @Summary Verify authentication
// @Description Validate the bearer token and optionally check a permission against the token's role
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyAuthRequest false "Optional permission to check"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope "Invalid or expired token"
// @Failure 403 {object} response.Envelope "Permission denied"
// @Security BearerAuth
// @Router /auth/verify_auth [post]
func (h *Handler) VerifyAuth(c *gin.Context) {
	tokenString := TokenFromHeader(c)
	if tokenString == "" {
		response.Error(c, http.StatusBadRequest, "Token not added", "BAD_REQUEST")
		return
	}

	claims, err := h.tokens.Validate(tokenString)
	if err != nil {
		if err == ErrExpiredToken {
			response.Error(c, http.StatusUnauthorized, "Token has expired", "TOKEN_EXPIRED")
		} else {
			response.Error(c, http.StatusUnauthorized, "Token not valid", "INVALID_TOKEN")
		}
		return
	}

	var req VerifyAuthRequest
	_ = c.ShouldBindJSON(&req)

	detail := roles.ResolveByName(h.db, claims.RolName)
	if req.Permission != "" {
		allowed := false
		for _, p := range detail.Permissions {
			if p == req.Permission {
				allowed = true
				break
			}
		}
		if !allowed {
			response.Error(c, http.StatusForbidden, "Permission denied", "PERMISSION_DENIED")
			return
		}
	}

	response.JSON(c, http.StatusOK, gin.H{
		"identity": claims.Subject,
		"email":    claims.Email,
		"name":     claims.Name,
		"status":   claims.Status,
		"role":     detail,
	}, "User has been authenticated", "USER_AUTHENTICATED")
}

// LogoutRequest represents the logout request body
type LogoutRequest struct {
	Email string `json:"email" binding:"required,email"`
	App   string `json:"app"`
}

// Logout clears the stored session token for the principal
// @Summary Logout
// @Description Clear the stored token and session flag for a user, optionally scoped to one app
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LogoutRequest true "Logout target"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "User not found"
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	clear := map[string]interface{}{"token": "", "session_active": false}

	var user models.User
	err := h.db.Preload("Memberships").Where("email = ?", req.Email).First(&user).Error
	if err == nil {
		q := h.db.Model(&models.AppMembership{}).Where("user_id = ?", user.ID)
		if req.App != "" {
			q = q.Where("app_name = ?", req.App)
		}
		if err := q.Updates(clear).Error; err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to clear session", "SESSION_CLEAR_FAILED")
			return
		}
		response.JSON(c, http.StatusOK, nil, "Logged out successfully", "LOGGED_OUT")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		response.Error(c, http.StatusInternalServerError, "Failed to clear session", "SESSION_CLEAR_FAILED")
		return
	}

	res := h.db.Model(&models.LegacyUser{}).Where("email = ?", req.Email).Updates(clear)
	if res.Error != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to clear session", "SESSION_CLEAR_FAILED")
		return
	}
	if res.RowsAffected == 0 {
		response.Error(c, http.StatusNotFound, "User not found", "USER_NOT_FOUND")
		return
	}

	response.JSON(c, http.StatusOK, nil, "Logged out successfully", "LOGGED_OUT")
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
	rg.POST("/admin/login", h.AdminLogin)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/verify_auth", h.VerifyAuth)
	rg.POST("/logout", h.Logout)
}
