// Package admins exposes CRUD for admin principals. Admins are
// soft-deleted by status flip, never removed.
package admins

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

// Handler handles admin management requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new admins handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateAdminRequest represents the admin creation request body
type CreateAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// UpdateAdminRequest represents the admin update request body
type UpdateAdminRequest struct {
	Password *string `json:"password"`
	Status   *string `json:"status"`
}

// Create handles admin creation
// @Summary Create an admin
// @Tags admins
// @Accept json
// @Produce json
// @Param request body CreateAdminRequest true "Admin details"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Email taken"
// @Security BearerAuth
// @Router /admin [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), "INVALID_REQUEST")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to process password", "INTERNAL_SERVER_ERROR")
		return
	}

	admin := models.Admin{
		Email:        req.Email,
		PasswordHash: hash,
		Status:       models.AdminStatusActive,
	}
	if err := h.db.Create(&admin).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			response.Error(c, http.StatusConflict, "Admin already exists", "ADMIN_ALREADY_EXISTS")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to create admin", "INTERNAL_SERVER_ERROR")
		return
	}

	response.JSON(c, http.StatusCreated, admin, "Admin created successfully", "ADMIN_CREATED")
}

// List handles listing all admins
// @Summary List admins
// @Tags admins
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin [get]
func (h *Handler) List(c *gin.Context) {
	var list []models.Admin
	if err := h.db.Find(&list).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list admins", "INTERNAL_SERVER_ERROR")
		return
	}
	response.JSON(c, http.StatusOK, list, "Admins retrieved successfully", "ADMINS_FOUND")
}

func (h *Handler) load(c *gin.Context) (*models.Admin, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "Invalid id", "INVALID_ID")
		return nil, false
	}
	var admin models.Admin
	if err := h.db.First(&admin, uint(id)).Error; err != nil {
		response.Error(c, http.StatusNotFound, "Admin not found", "ADMIN_NOT_FOUND")
		return nil, false
	}
	return &admin, true
}

// Get handles fetching one admin
// @Summary Get an admin
// @Tags admins
// @Produce json
// @Param id path int true "Admin ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Admin not found"
// @Security BearerAuth
// @Router /admin/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	admin, ok := h.load(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, admin, "Admin found", "ADMIN_FOUND")
}

// Update handles admin updates
// @Summary Update an admin
// @Tags admins
// @Accept json
// @Produce json
// @Param id path int true "Admin ID"
// @Param request body UpdateAdminRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Admin not found"
// @Security BearerAuth
// @Router /admin/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	admin, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), "INVALID_REQUEST")
		return
	}

	updates := map[string]interface{}{}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			response.Error(c, http.StatusUnprocessableEntity, "The password does not meet the established standards", "INVALID_PASSWORD")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to process password", "INTERNAL_SERVER_ERROR")
			return
		}
		updates["password_hash"] = hash
	}
	if req.Status != nil {
		status := models.AdminStatus(*req.Status)
		if status != models.AdminStatusActive && status != models.AdminStatusInactive {
			response.Error(c, http.StatusUnprocessableEntity, "Invalid status", "INVALID_STATUS")
			return
		}
		updates["status"] = status
	}

	if len(updates) > 0 {
		if err := h.db.Model(admin).Updates(updates).Error; err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to update admin", "INTERNAL_SERVER_ERROR")
			return
		}
	}

	response.JSON(c, http.StatusOK, admin, "Admin updated successfully", "ADMIN_UPDATED")
}

// Delete handles admin soft deletion
// @Summary Deactivate an admin
// @Description Soft-delete an admin by flipping status to inactive
// @Tags admins
// @Produce json
// @Param id path int true "Admin ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Admin not found"
// @Security BearerAuth
// @Router /admin/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	admin, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.db.Model(admin).Update("status", models.AdminStatusInactive).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to deactivate admin", "INTERNAL_SERVER_ERROR")
		return
	}
	response.JSON(c, http.StatusOK, admin, "Admin deactivated successfully", "ADMIN_DEACTIVATED")
}

// RegisterRoutes registers admin routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin", h.Create)
	rg.GET("/admin", h.List)
	rg.GET("/admin/:id", h.Get)
	rg.PATCH("/admin/:id", h.Update)
	rg.DELETE("/admin/:id", h.Delete)
}
