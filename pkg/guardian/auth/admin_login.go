package auth

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jpvargas/guardian/pkg/guardian/models"
	"github.com/jpvargas/guardian/pkg/guardian/response"
	"github.com/jpvargas/guardian/pkg/guardian/roles"
)

// AdminLoginRequest represents the admin login request body
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// adminRoleDetail is the fixed role every authenticated admin carries.
func adminRoleDetail() roles.Detail {
	return roles.Detail{
		Name:        AdminRoleName,
		Permissions: []string{"read", "write", "delete", "admin"},
		Screens:     []string{"dashboard", "users", "apps", "roles", "admin"},
		IsActive:    true,
	}
}

// AdminLogin handles admin login
// @Summary Admin login
// @Description Authenticate an admin with email and password to receive an admin JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body AdminLoginRequest true "Admin credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope "Invalid credentials"
// @Failure 403 {object} response.Envelope "Admin not active"
// @Router /auth/admin/login [post]
func (h *Handler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	var admin models.Admin
	err := h.db.Where("email = ?", req.Email).First(&admin).Error
	if err != nil || !CheckPassword(req.Password, admin.PasswordHash) {
		response.Error(c, http.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS")
		return
	}

	if admin.Status != models.AdminStatusActive {
		response.Error(c, http.StatusForbidden, "Admin is not active", "ADMIN_NOT_ACTIVE")
		return
	}

	name := "Admin " + strings.SplitN(admin.Email, "@", 2)[0]
	identity := strconv.FormatUint(uint64(admin.ID), 10)

	token, err := h.tokens.Generate(identity, AdminRoleName, admin.Email, name, string(admin.Status))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to generate token", "TOKEN_GENERATION_FAILED")
		return
	}

	now := time.Now()
	if err := h.db.Model(&models.Admin{}).Where("id = ?", admin.ID).
		Updates(map[string]interface{}{"token": token, "last_login": now}).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to update admin token", "TOKEN_UPDATE_FAILED")
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"email":  admin.Email,
		"name":   name,
		"status": admin.Status,
		"role":   adminRoleDetail(),
		"token":  token,
	}, "Admin has been authenticated", "ADMIN_AUTHENTICATED")
}
