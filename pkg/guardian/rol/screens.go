package rol

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jpvargas/guardian/pkg/guardian/models"
	"github.com/jpvargas/guardian/pkg/guardian/response"
)

// ScreensRequest represents the add/remove screens request body
type ScreensRequest struct {
	RoleID  uint     `json:"role_id" binding:"required"`
	AppID   uint     `json:"app_id" binding:"required"`
	Screens []string `json:"screens" binding:"required,min=1"`
}

// ReplaceScreensRequest represents the replace screens request body.
// Screens may be empty: replacing with nothing is a valid revocation.
type ReplaceScreensRequest struct {
	RoleID  uint     `json:"role_id" binding:"required"`
	AppID   uint     `json:"app_id" binding:"required"`
	Screens []string `json:"screens"`
}

// screenRole loads the role by ID, checks ownership and that the role
// actually belongs to the app the caller named.
func (h *Handler) screenRole(c *gin.Context, roleID, appID uint) (*models.Role, bool) {
	role, ok := h.ownedRole(c, "id = ?", roleID)
	if !ok {
		return nil, false
	}
	if role.AppID != appID {
		response.Error(c, http.StatusUnprocessableEntity, "Role does not belong to the given app", "ROLE_APP_MISMATCH")
		return nil, false
	}
	return role, true
}

// AddScreens assigns screen paths to a role
// @Summary Add screens to a role
// @Description Grant UI screen paths to a role; re-adding an existing screen is a conflict, not a no-op
// @Tags screens
// @Accept json
// @Produce json
// @Param request body ScreensRequest true "Screens to add"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope "Not the owning admin"
// @Failure 409 {object} response.Envelope "Screen already assigned"
// @Security BearerAuth
// @Router /rol/screens [post]
func (h *Handler) AddScreens(c *gin.Context) {
	var req ScreensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), "INVALID_SCREEN_PATH")
		return
	}

	role, ok := h.screenRole(c, req.RoleID, req.AppID)
	if !ok {
		return
	}

	for _, s := range req.Screens {
		if role.Screens.Contains(s) {
			response.Error(c, http.StatusConflict, "Screen already assigned: "+s, "DUPLICATE_SCREEN")
			return
		}
	}

	screens := append(models.StringList{}, role.Screens...)
	screens = append(screens, req.Screens...)
	if err := h.db.Model(role).Update("screens", screens).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to assign screens", "ADD_SCREEN_FAILED")
		return
	}
	role.Screens = screens

	response.JSON(c, http.StatusOK, role, "Screens assigned successfully", "SCREEN_ASSIGNED")
}

// ListScreens returns the screens of a role
// @Summary List role screens
// @Tags screens
// @Produce json
// @Param role_id query int true "Role ID"
// @Param app_id query int true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Role not found"
// @Security BearerAuth
// @Router /rol/screens [get]
func (h *Handler) ListScreens(c *gin.Context) {
	roleID, err1 := strconv.ParseUint(c.Query("role_id"), 10, 32)
	appID, err2 := strconv.ParseUint(c.Query("app_id"), 10, 32)
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusUnprocessableEntity, "role_id and app_id are required", "INVALID_ROLE_ID")
		return
	}

	role, ok := h.screenRole(c, uint(roleID), uint(appID))
	if !ok {
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"role_id": role.ID, "screens": role.Screens},
		"Screens retrieved successfully", "SCREENS_RETRIEVED")
}

// RemoveScreens removes screen paths from a role
// @Summary Remove screens from a role
// @Description Revoke UI screen paths from a role; removing an absent screen is a 404
// @Tags screens
// @Accept json
// @Produce json
// @Param request body ScreensRequest true "Screens to remove"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope "Not the owning admin"
// @Failure 404 {object} response.Envelope "Screen not assigned"
// @Security BearerAuth
// @Router /rol/screens [delete]
func (h *Handler) RemoveScreens(c *gin.Context) {
	var req ScreensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), "INVALID_SCREEN_PATH")
		return
	}

	role, ok := h.screenRole(c, req.RoleID, req.AppID)
	if !ok {
		return
	}

	for _, s := range req.Screens {
		if !role.Screens.Contains(s) {
			response.Error(c, http.StatusNotFound, "Screen not assigned: "+s, "SCREEN_NOT_FOUND")
			return
		}
	}

	remove := map[string]bool{}
	for _, s := range req.Screens {
		remove[s] = true
	}
	kept := models.StringList{}
	for _, s := range role.Screens {
		if !remove[s] {
			kept = append(kept, s)
		}
	}

	if err := h.db.Model(role).Update("screens", kept).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to remove screens", "REMOVE_SCREEN_FAILED")
		return
	}
	role.Screens = kept

	response.JSON(c, http.StatusOK, role, "Screens removed successfully", "SCREEN_REMOVED")
}

// ReplaceScreens replaces the whole screen set of a role
// @Summary Replace role screens
// @Tags screens
// @Accept json
// @Produce json
// @Param request body ReplaceScreensRequest true "New screen set"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope "Not the owning admin"
// @Security BearerAuth
// @Router /rol/screens [patch]
func (h *Handler) ReplaceScreens(c *gin.Context) {
	var req ReplaceScreensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), "INVALID_SCREENS_FORMAT")
		return
	}

	role, ok := h.screenRole(c, req.RoleID, req.AppID)
	if !ok {
		return
	}

	screens := models.StringList(req.Screens)
	if screens == nil {
		screens = models.StringList{}
	}
	if err := h.db.Model(role).Update("screens", screens).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to update screens", "UPDATE_SCREENS_FAILED")
		return
	}
	role.Screens = screens

	response.JSON(c, http.StatusOK, role, "Screens updated successfully", "SCREENS_UPDATED")
}

// RegisterScreenRoutes registers screen management routes on the given router group
func (h *Handler) RegisterScreenRoutes(rg *gin.RouterGroup) {
	rg.POST("/rol/screens", h.AddScreens)
	rg.GET("/rol/screens", h.ListScreens)
	rg.DELETE("/rol/screens", h.RemoveScreens)
	rg.PATCH("/rol/screens", h.ReplaceScreens)
}
