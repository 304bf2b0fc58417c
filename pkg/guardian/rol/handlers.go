// Package rol exposes the role management endpoints: CRUD scoped to one
// application plus the screen-grant operations. Every mutating operation
// is gated on the caller owning the role.
package rol

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jpvargas/guardian/pkg/guardian/auth"
	"github.com/jpvargas/guardian/pkg/guardian/models"
	"github.com/jpvargas/guardian/pkg/guardian/response"
)

// Handler handles role management requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new role handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateRoleRequest represents the role creation request body
type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	Screens     []string `json:"screens"`
	IsDefault   bool     `json:"default_role"`
}

// UpdateRoleRequest represents the role update request body
type UpdateRoleRequest struct {
	RoleName    string    `json:"role_name" binding:"required"`
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
	Screens     *[]string `json:"screens"`
	IsActive    *bool     `json:"is_active"`
}

// DeleteRoleRequest represents the role delete request body
type DeleteRoleRequest struct {
	RoleName string `json:"role_name" binding:"required"`
}

func (h *Handler) loadApp(c *gin.Context) (*models.Application, bool) {
	appID, err := strconv.ParseUint(c.Param("app_id"), 10, 32)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "Invalid app_id", "INVALID_ID")
		return nil, false
	}
	var app models.Application
	if err := h.db.First(&app, uint(appID)).Error; err != nil {
		response.Error(c, http.StatusNotFound, "App not found", "APP_NOT_FOUND")
		return nil, false
	}
	return &app, true
}

// ownedRole loads a role and enforces that the caller is its owning
// admin. A non-owner gets 403, never a silent pass.
func (h *Handler) ownedRole(c *gin.Context, where string, args ...interface{}) (*models.Role, bool) {
	var role models.Role
	if err := h.db.Where(where, args...).First(&role).Error; err != nil {
		response.Error(c, http.StatusNotFound, "Role not found", "ROLE_NOT_FOUND")
		return nil, false
	}
	adminID, ok := auth.GetAdminID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required", "AUTH_REQUIRED")
		return nil, false
	}
	if role.AdminID != adminID {
		response.Error(c, http.StatusForbidden, "Only the creating admin may modify this role", "UNAUTHORIZED_MODIFY")
		return nil, false
	}
	return &role, true
}

// Create handles role creation
// @Summary Create a role
// @Description Create a role scoped to an application; (name, app) must be unique
// @Tags roles
// @Accept json
// @Produce json
// @Param app_id path int true "Application ID"
// @Param request body CreateRoleRequest true "Role details"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope "App not found"
// @Failure 409 {object} response.Envelope "Role already exists"
// @Security BearerAuth
// @Router /role/{app_id} [post]
func (h *Handler) Create(c *gin.Context) {
	app, ok := h.loadApp(c)
	if !ok {
		return
	}

	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), "INVALID_REQUEST")
		return
	}
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		response.Error(c, http.StatusUnprocessableEntity, "Invalid 'name'", "INVALID_NAME")
		return
	}

	adminID, ok := auth.GetAdminID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required", "AUTH_REQUIRED")
		return
	}

	var existing models.Role
	if err := h.db.Where("name = ? AND app_id = ?", name, app.ID).First(&existing).Error; err == nil {
		response.Error(c, http.StatusConflict, "Role already exists for this application", "ROLE_ALREADY_EXISTS")
		return
	}

	role := models.Role{
		Name:        name,
		Description: req.Description,
		Permissions: req.Permissions,
		Screens:     req.Screens,
		IsActive:    true,
		IsDefault:   req.IsDefault,
		AppID:       app.ID,
		AdminID:     adminID,
	}
	if err := h.db.Create(&role).Error; err != nil {
		// Concurrent creation of the same (name, app) pair loses the race
		// at the unique index; surface it as the same conflict.
		if strings.Contains(err.Error(), "UNIQUE") {
			response.Error(c, http.StatusConflict, "Role already exists for this application", "ROLE_ALREADY_EXISTS")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to create role", "ROLE_CREATION_FAILED")
		return
	}

	response.JSON(c, http.StatusCreated, role, "Role created successfully", "ROLE_CREATED")
}

// List handles listing an application's roles
// @Summary List roles
// @Description List all roles of an application
// @Tags roles
// @Produce json
// @Param app_id path int true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "App not found"
// @Security BearerAuth
// @Router /role/{app_id} [get]
func (h *Handler) List(c *gin.Context) {
	app, ok := h.loadApp(c)
	if !ok {
		return
	}

	var list []models.Role
	if err := h.db.Where("app_id = ?", app.ID).Find(&list).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list roles", "INTERNAL_SERVER_ERROR")
		return
	}

	response.JSON(c, http.StatusOK, list, "Roles retrieved successfully", "ROLES_RETRIEVED")
}

// Update handles role updates by name
// @Summary Update a role
// @Description Update name, description, permissions, screens or active flag of a role
// @Tags roles
// @Accept json
// @Produce json
// @Param app_id path int true "Application ID"
// @Param request body UpdateRoleRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope "Not the owning admin"
// @Failure 404 {object} response.Envelope "Role not found"
// @Failure 409 {object} response.Envelope "New name already taken"
// @Security BearerAuth
// @Router /role/{app_id} [patch]
func (h *Handler) Update(c *gin.Context) {
	app, ok := h.loadApp(c)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), "INVALID_ROLE_NAME")
		return
	}

	role, ok := h.ownedRole(c, "name = ? AND app_id = ?", strings.TrimSpace(req.RoleName), app.ID)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		newName := strings.TrimSpace(*req.Name)
		if len(newName) < 2 {
			response.Error(c, http.StatusUnprocessableEntity, "Invalid 'name'", "INVALID_NAME")
			return
		}
		if !strings.EqualFold(newName, role.Name) {
			var other models.Role
			if err := h.db.Where("name = ? AND app_id = ?", newName, app.ID).First(&other).Error; err == nil {
				response.Error(c, http.StatusConflict, "Role name already exists", "DUPLICATE_ROLE")
				return
			}
		}
		updates["name"] = newName
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Permissions != nil {
		updates["permissions"] = models.StringList(*req.Permissions)
	}
	if req.Screens != nil {
		updates["screens"] = models.StringList(*req.Screens)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.db.Model(role).Updates(updates).Error; err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to update role", "ROLE_UPDATE_FAILED")
			return
		}
	}

	response.JSON(c, http.StatusOK, role, "Role updated successfully", "ROLE_UPDATED")
}

// Delete handles role soft deletion by name
// @Summary Deactivate a role
// @Description Soft-delete a role by flipping is_active to false
// @Tags roles
// @Accept json
// @Produce json
// @Param app_id path int true "Application ID"
// @Param request body DeleteRoleRequest true "Role to deactivate"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope "Not the owning admin"
// @Failure 404 {object} response.Envelope "Role not found"
// @Security BearerAuth
// @Router /role/{app_id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	app, ok := h.loadApp(c)
	if !ok {
		return
	}

	var req DeleteRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "role_name required in JSON body", "INVALID_ROLE_NAME")
		return
	}

	role, ok := h.ownedRole(c, "name = ? AND app_id = ?", strings.TrimSpace(req.RoleName), app.ID)
	if !ok {
		return
	}

	if err := h.db.Model(role).Update("is_active", false).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to deactivate role", "ROLE_DELETE_FAILED")
		return
	}

	response.JSON(c, http.StatusOK, role, "Role deactivated successfully", "ROLE_DEACTIVATED")
}

// RegisterRoutes registers role CRUD routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/role/:app_id", h.Create)
	rg.GET("/role/:app_id", h.List)
	rg.PATCH("/role/:app_id", h.Update)
	rg.DELETE("/role/:app_id", h.Delete)
}
