// Package apps exposes CRUD for tenant applications.
package apps

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jpvargas/guardian/pkg/guardian/auth"
	"github.com/jpvargas/guardian/pkg/guardian/models"
	"github.com/jpvargas/guardian/pkg/guardian/response"
)

// Handler handles application management requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new apps handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateAppRequest represents the app creation request body
type CreateAppRequest struct {
	Name        string `json:"name" binding:"required"`
	RedirectURL string `json:"redirect_url" binding:"required"`
}

// UpdateAppRequest represents the app update request body
type UpdateAppRequest struct {
	Name        *string `json:"name"`
	RedirectURL *string `json:"redirect_url"`
	Status      *string `json:"status"`
}

func validRedirectURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Create handles application creation
// @Summary Create an application
// @Tags apps
// @Accept json
// @Produce json
// @Param request body CreateAppRequest true "Application details"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "App name taken"
// @Failure 422 {object} response.Envelope "Validation error"
// @Security BearerAuth
// @Router /apps [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), "INVALID_REQUEST")
		return
	}
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		response.Error(c, http.StatusUnprocessableEntity, "Invalid name", "INVALID_NAME")
		return
	}
	if !validRedirectURL(strings.TrimSpace(req.RedirectURL)) {
		response.Error(c, http.StatusUnprocessableEntity, "redirect_url must be a valid http or https URL", "INVALID_REDIRECT_URL")
		return
	}

	adminID, ok := auth.GetAdminID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required", "AUTH_REQUIRED")
		return
	}

	app := models.Application{
		Name:        name,
		RedirectURL: strings.TrimSpace(req.RedirectURL),
		Status:      models.AppStatusActive,
		AdminID:     adminID,
	}
	if err := h.db.Create(&app).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			response.Error(c, http.StatusConflict, "App name already exists", "APP_ALREADY_EXISTS")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to create app", "INTERNAL_SERVER_ERROR")
		return
	}

	response.JSON(c, http.StatusCreated, gin.H{"app_id": app.ID}, "App created successfully", "CREATED")
}

// List handles listing all applications
// @Summary List applications
// @Tags apps
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /apps [get]
func (h *Handler) List(c *gin.Context) {
	var list []models.Application
	if err := h.db.Find(&list).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list apps", "INTERNAL_SERVER_ERROR")
		return
	}
	response.JSON(c, http.StatusOK, list, "Apps retrieved successfully", "APPS_FOUND")
}

func (h *Handler) load(c *gin.Context) (*models.Application, bool) {
	id, err := strconv.ParseUint(c.Param("app_id"), 10, 32)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "Invalid app_id", "INVALID_ID")
		return nil, false
	}
	var app models.Application
	if err := h.db.First(&app, uint(id)).Error; err != nil {
		response.Error(c, http.StatusNotFound, "App not found", "APP_NOT_FOUND")
		return nil, false
	}
	return &app, true
}

// Get handles fetching one application
// @Summary Get an application
// @Tags apps
// @Produce json
// @Param app_id path int true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "App not found"
// @Security BearerAuth
// @Router /apps/{app_id} [get]
func (h *Handler) Get(c *gin.Context) {
	app, ok := h.load(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, app, "App found", "APP_FOUND")
}

// Update handles application updates
// @Summary Update an application
// @Tags apps
// @Accept json
// @Produce json
// @Param app_id path int true "Application ID"
// @Param request body UpdateAppRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "App not found"
// @Security BearerAuth
// @Router /apps/{app_id} [patch]
func (h *Handler) Update(c *gin.Context) {
	app, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), "INVALID_REQUEST")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 {
			response.Error(c, http.StatusUnprocessableEntity, "Invalid name", "INVALID_NAME")
			return
		}
		if name != app.Name {
			var other models.Application
			if err := h.db.Where("name = ?", name).First(&other).Error; err == nil {
				response.Error(c, http.StatusConflict, "App name already exists", "APP_ALREADY_EXISTS")
				return
			}
		}
		updates["name"] = name
	}
	if req.RedirectURL != nil {
		if !validRedirectURL(strings.TrimSpace(*req.RedirectURL)) {
			response.Error(c, http.StatusUnprocessableEntity, "redirect_url must be a valid http or https URL", "INVALID_REDIRECT_URL")
			return
		}
		updates["redirect_url"] = strings.TrimSpace(*req.RedirectURL)
	}
	if req.Status != nil {
		status := models.AppStatus(*req.Status)
		if status != models.AppStatusActive && status != models.AppStatusInactive {
			response.Error(c, http.StatusUnprocessableEntity, "Invalid status", "INVALID_STATUS")
			return
		}
		updates["status"] = status
	}

	if len(updates) > 0 {
		if err := h.db.Model(app).Updates(updates).Error; err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to update app", "INTERNAL_SERVER_ERROR")
			return
		}
	}

	response.JSON(c, http.StatusOK, app, "App updated successfully", "APP_UPDATED")
}

// Delete handles application soft deletion
// @Summary Deactivate an application
// @Description Soft-delete an app by flipping its status to inactive
// @Tags apps
// @Produce json
// @Param app_id path int true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "App not found"
// @Security BearerAuth
// @Router /apps/{app_id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	app, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.db.Model(app).Update("status", models.AppStatusInactive).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to deactivate app", "INTERNAL_SERVER_ERROR")
		return
	}
	response.JSON(c, http.StatusOK, app, "App deactivated successfully", "APP_DEACTIVATED")
}

// RegisterRoutes registers app routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/apps", h.Create)
	rg.GET("/apps", h.List)
	rg.GET("/apps/:app_id", h.Get)
	rg.PATCH("/apps/:app_id", h.Update)
	rg.DELETE("/apps/:app_id", h.Delete)
}
