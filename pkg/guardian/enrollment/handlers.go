// Package enrollment implements user sign-up and account verification:
// a Pending record with a time-boxed code, activated on code match.
package enrollment

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jpvargas/guardian/pkg/guardian/auth"
	"github.com/jpvargas/guardian/pkg/guardian/config"
	"github.com/jpvargas/guardian/pkg/guardian/email"
	"github.com/jpvargas/guardian/pkg/guardian/models"
	"github.com/jpvargas/guardian/pkg/guardian/response"
	"github.com/jpvargas/guardian/pkg/guardian/roles"
)

// Handler handles enrollment and verification requests
type Handler struct {
	db     *gorm.DB
	cfg    config.Config
	sender email.Sender
}

// NewHandler creates a new enrollment handler
func NewHandler(db *gorm.DB, cfg config.Config, sender email.Sender) *Handler {
	return &Handler{db: db, cfg: cfg, sender: sender}
}

// AppRequest names one application (and optionally a role) the enrollee
// wants access to.
type AppRequest struct {
	App  string `json:"app" binding:"required"`
	Role string `json:"role"`
}

// EnrollRequest represents the enrollment request body
type EnrollRequest struct {
	Name     string       `json:"name" binding:"required"`
	Email    string       `json:"email" binding:"required,email"`
	Password string       `json:"password" binding:"required"`
	Apps     []AppRequest `json:"apps" binding:"required,min=1,dive"`
}

// VerifyRequest represents the verification request body
type VerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// generateCode returns a 6-digit numeric verification code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// resolvedApp pairs an application with the role the enrollee gets in it.
type resolvedApp struct {
	app  models.Application
	role string
}

// resolveApps validates every requested app and role. Requested roles
// must exist and be active in their app; an empty role request falls back
// to the app's default role.
func (h *Handler) resolveApps(c *gin.Context, reqs []AppRequest) ([]resolvedApp, bool) {
	var resolved []resolvedApp
	var invalidRoles []string

	for _, r := range reqs {
		var app models.Application
		err := h.db.Where("name = ? AND status = ?", r.App, models.AppStatusActive).First(&app).Error
		if err != nil {
			response.Error(c, http.StatusUnprocessableEntity,
				"Unknown or inactive app: "+r.App, "INVALID_APP")
			return nil, false
		}

		roleName := strings.TrimSpace(r.Role)
		if roleName == "" {
			def, err := roles.DefaultForApp(h.db, app.ID)
			if err != nil {
				response.Error(c, http.StatusUnprocessableEntity,
					"No default role configured for app: "+r.App, "NO_DEFAULT_ROLE")
				return nil, false
			}
			roleName = def.Name
		} else {
			var role models.Role
			err := h.db.Where("name = ? AND app_id = ? AND is_active = ?", roleName, app.ID, true).
				First(&role).Error
			if err != nil {
				invalidRoles = append(invalidRoles, roleName)
				continue
			}
		}

		resolved = append(resolved, resolvedApp{app: app, role: roleName})
	}

	if len(invalidRoles) > 0 {
		response.Error(c, http.StatusUnprocessableEntity,
			"The following roles are not valid: "+strings.Join(invalidRoles, ", "), "INVALID_ROLE")
		return nil, false
	}
	return resolved, true
}

// Enroll handles user enrollment
// @Summary Enroll a new user
// @Description Create a Pending user with a time-boxed verification code, dispatched by email
// @Tags users
// @Accept json
// @Produce json
// @Param request body EnrollRequest true "Enrollment details"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "User already registered"
// @Failure 422 {object} response.Envelope "Validation error"
// @Router /user/enrollment [post]
func (h *Handler) Enroll(c *gin.Context) {
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), "INVALID_REQUEST")
		return
	}

	if !auth.EmailDomainAllowed(req.Email, h.cfg.AllowedEmailDomains) {
		response.Error(c, http.StatusUnprocessableEntity,
			"The entered domain does not meet the established standards", "INVALID_EMAIL_DOMAIN")
		return
	}
	if len(strings.TrimSpace(req.Name)) < 2 {
		response.Error(c, http.StatusUnprocessableEntity,
			"The name does not meet the established standards", "INVALID_NAME")
		return
	}
	if len(req.Password) < 8 {
		response.Error(c, http.StatusUnprocessableEntity,
			"The password does not meet the established standards", "INVALID_PASSWORD")
		return
	}

	resolved, ok := h.resolveApps(c, req.Apps)
	if !ok {
		return
	}

	// An Active account in either user shape blocks re-enrollment.
	var legacy models.LegacyUser
	if err := h.db.Where("email = ?", req.Email).First(&legacy).Error; err == nil {
		response.Error(c, http.StatusConflict, "The user is already registered", "USER_ALREADY_REGISTERED")
		return
	}

	var existing models.User
	err := h.db.Preload("Memberships").Where("email = ?", req.Email).First(&existing).Error
	switch {
	case err == nil && existing.Status != models.UserStatusPending:
		response.Error(c, http.StatusConflict, "The user is already registered", "USER_ALREADY_REGISTERED")
		return
	case err == nil:
		h.enrollPending(c, &existing, resolved)
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		response.Error(c, http.StatusInternalServerError, "Error creating user", "INTERNAL_SERVER_ERROR")
		return
	}

	code, err := generateCode()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Error creating user", "INTERNAL_SERVER_ERROR")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to process password", "INTERNAL_SERVER_ERROR")
		return
	}

	expiry := time.Now().Add(h.cfg.CodeTTL)
	user := models.User{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Status:       models.UserStatusPending,
	}
	for _, r := range resolved {
		user.Memberships = append(user.Memberships, models.AppMembership{
			AppID:         r.app.ID,
			AppName:       r.app.Name,
			RoleName:      r.role,
			Status:        models.UserStatusPending,
			Code:          code,
			CodeExpiresAt: &expiry,
		})
	}

	if err := h.db.Create(&user).Error; err != nil {
		// Concurrent enrollments with the same email race to the unique
		// index; the loser gets the conflict, not an internal error.
		if strings.Contains(err.Error(), "UNIQUE") {
			response.Error(c, http.StatusConflict, "The user is already registered", "USER_ALREADY_REGISTERED")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Error creating user", "INTERNAL_SERVER_ERROR")
		return
	}

	subject, body := email.VerificationMessage(user.Email, code)
	if err := h.sender.Send(user.Email, subject, body); err != nil {
		// No reachable Pending account without its code: roll the record
		// back entirely.
		h.db.Where("user_id = ?", user.ID).Delete(&models.AppMembership{})
		h.db.Unscoped().Delete(&user)
		response.Error(c, http.StatusInternalServerError, "Failed to send verification email", "EMAIL_DELIVERY_FAILED")
		return
	}

	response.JSON(c, http.StatusCreated, gin.H{"email": user.Email},
		"User successfully created", "USER_SUCCESSFULLY_CREATED")
}

// enrollPending handles re-enrollment of a still-Pending user: existing
// memberships get a fresh code, newly requested apps are appended.
func (h *Handler) enrollPending(c *gin.Context, user *models.User, resolved []resolvedApp) {
	code, err := generateCode()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Error creating user", "INTERNAL_SERVER_ERROR")
		return
	}
	expiry := time.Now().Add(h.cfg.CodeTTL)

	var appended []uint
	for _, r := range resolved {
		if m := user.Membership(r.app.Name); m != nil {
			if err := h.db.Model(&models.AppMembership{}).Where("id = ?", m.ID).
				Updates(map[string]interface{}{"code": code, "code_expires_at": expiry}).Error; err != nil {
				response.Error(c, http.StatusInternalServerError, "Error creating user", "INTERNAL_SERVER_ERROR")
				return
			}
			continue
		}
		m := models.AppMembership{
			UserID:        user.ID,
			AppID:         r.app.ID,
			AppName:       r.app.Name,
			RoleName:      r.role,
			Status:        models.UserStatusPending,
			Code:          code,
			CodeExpiresAt: &expiry,
		}
		if err := h.db.Create(&m).Error; err != nil {
			response.Error(c, http.StatusInternalServerError, "Error creating user", "INTERNAL_SERVER_ERROR")
			return
		}
		appended = append(appended, m.ID)
	}

	subject, body := email.VerificationMessage(user.Email, code)
	if err := h.sender.Send(user.Email, subject, body); err != nil {
		// Only what this request created gets rolled back.
		if len(appended) > 0 {
			h.db.Where("id IN ?", appended).Delete(&models.AppMembership{})
		}
		response.Error(c, http.StatusInternalServerError, "Failed to send verification email", "EMAIL_DELIVERY_FAILED")
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"email": user.Email},
		"Verification code reissued", "VERIFICATION_CODE_REISSUED")
}

// Verify handles account verification
// @Summary Verify a user
// @Description Activate a Pending user by matching the emailed verification code
// @Tags users
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Email and code"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope "Invalid or expired code"
// @Failure 404 {object} response.Envelope "User not found"
// @Router /user/verification [put]
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Email and verification code are required", "INVALID_REQUEST")
		return
	}

	var user models.User
	err := h.db.Preload("Memberships").Where("email = ?", req.Email).First(&user).Error
	if err == nil {
		h.verifyTenant(c, &user, req.Code)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred.", "UNEXPECTED_ERROR")
		return
	}

	var legacy models.LegacyUser
	if err := h.db.Where("email = ?", req.Email).First(&legacy).Error; err != nil {
		response.Error(c, http.StatusNotFound, "User not found", "USER_NOT_FOUND")
		return
	}
	h.verifyLegacy(c, &legacy, req.Code)
}

func (h *Handler) verifyTenant(c *gin.Context, user *models.User, code string) {
	var pending []*models.AppMembership
	for i := range user.Memberships {
		if user.Memberships[i].Status == models.UserStatusPending {
			pending = append(pending, &user.Memberships[i])
		}
	}
	if len(pending) == 0 {
		response.Error(c, http.StatusBadRequest, "User is not in a pending state", "USER_NOT_PENDING")
		return
	}

	var matched []*models.AppMembership
	for _, m := range pending {
		if m.Code != "" && m.Code == code {
			matched = append(matched, m)
		}
	}
	if len(matched) == 0 {
		response.Error(c, http.StatusUnauthorized, "Invalid verification code", "INVALID_VERIFICATION_CODE")
		return
	}

	now := time.Now()
	for _, m := range matched {
		if m.CodeExpiresAt != nil && now.After(*m.CodeExpiresAt) {
			response.Error(c, http.StatusUnauthorized, "Verification code expired", "VERIFICATION_EXPIRED")
			return
		}
	}

	for _, m := range matched {
		if err := h.db.Model(&models.AppMembership{}).Where("id = ?", m.ID).
			Updates(map[string]interface{}{
				"status":          models.UserStatusActive,
				"code":            "",
				"code_expires_at": nil,
				"token":           "",
				"session_active":  false,
			}).Error; err != nil {
			response.Error(c, http.StatusInternalServerError, "An unexpected error occurred.", "UNEXPECTED_ERROR")
			return
		}
	}
	if err := h.db.Model(user).Update("status", models.UserStatusActive).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred.", "UNEXPECTED_ERROR")
		return
	}

	response.JSON(c, http.StatusOK, nil, "User successfully verified", "VERIFICATION_SUCCESSFUL")
}

func (h *Handler) verifyLegacy(c *gin.Context, user *models.LegacyUser, code string) {
	if user.Status != models.UserStatusPending {
		response.Error(c, http.StatusBadRequest, "User is not in a pending state", "USER_NOT_PENDING")
		return
	}
	if user.Code == "" || user.Code != code {
		response.Error(c, http.StatusUnauthorized, "Invalid verification code", "INVALID_VERIFICATION_CODE")
		return
	}
	if user.CodeExpiresAt != nil && time.Now().After(*user.CodeExpiresAt) {
		response.Error(c, http.StatusUnauthorized, "Verification code expired", "VERIFICATION_EXPIRED")
		return
	}

	if err := h.db.Model(user).Updates(map[string]interface{}{
		"status":          models.UserStatusActive,
		"code":            "",
		"code_expires_at": nil,
		"token":           "",
		"session_active":  false,
	}).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred.", "UNEXPECTED_ERROR")
		return
	}

	response.JSON(c, http.StatusOK, nil, "User successfully verified", "VERIFICATION_SUCCESSFUL")
}

// RegisterRoutes registers enrollment routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/user/enrollment", h.Enroll)
	rg.PUT("/user/verification", h.Verify)
}
