// Package users exposes read-side lookups over user records: per-app
// role listings and current-session info.
package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jpvargas/guardian/pkg/guardian/models"
	"github.com/jpvargas/guardian/pkg/guardian/response"
	"github.com/jpvargas/guardian/pkg/guardian/roles"
)

// Handler handles user lookup requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) loadUser(email string) (*models.User, *models.LegacyUser, error) {
	var user models.User
	err := h.db.Preload("Memberships").Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	var legacy models.LegacyUser
	if err := h.db.Where("email = ?", email).First(&legacy).Error; err != nil {
		return nil, nil, err
	}
	return nil, &legacy, nil
}

// RolesByUser lists a user's roles for one app
// @Summary Roles by user and app
// @Description List the detailed roles a user holds within an application
// @Tags users
// @Produce json
// @Param email path string true "User email"
// @Param app path string true "Application name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "User not found"
// @Router /roleByUser/{email}/{app} [get]
func (h *Handler) RolesByUser(c *gin.Context) {
	email := c.Param("email")
	app := c.Param("app")

	user, legacy, err := h.loadUser(email)
	if err != nil {
		response.Error(c, http.StatusNotFound, "User not found", "USER_NOT_FOUND")
		return
	}

	var list []roles.Detail
	var name string
	switch {
	case user != nil:
		name = user.Name
		for _, m := range user.Memberships {
			if m.AppName == app && m.RoleName != "" {
				list = append(list, roles.Resolve(h.db, m.RoleName, m.AppID))
			}
		}
	case legacy != nil:
		name = legacy.Name
		if legacy.Role != "" {
			list = append(list, roles.ResolveByName(h.db, legacy.Role))
		}
	}

	response.JSON(c, http.StatusOK, gin.H{
		"email": email,
		"name":  name,
		"app":   app,
		"roles": list,
	}, "User roles retrieved successfully", "USER_ROLES_RETRIEVED")
}

// CurrentApp returns the user's current session info
// @Summary Current app info
// @Description Return the app the user last logged into, with session state
// @Tags users
// @Produce json
// @Param email query string true "User email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope "Missing email"
// @Failure 404 {object} response.Envelope "User not found"
// @Router /user/current-app [get]
func (h *Handler) CurrentApp(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.Error(c, http.StatusBadRequest, "Email is required", "MISSING_EMAIL")
		return
	}

	user, legacy, err := h.loadUser(email)
	if err != nil {
		response.Error(c, http.StatusNotFound, "User not found", "USER_NOT_FOUND")
		return
	}

	data := gin.H{"email": email}
	switch {
	case user != nil:
		data["name"] = user.Name
		data["apps"] = user.Memberships
		// The current app is the active session with the latest login.
		var current *models.AppMembership
		for i := range user.Memberships {
			m := &user.Memberships[i]
			if !m.SessionActive || m.LastLogin == nil {
				continue
			}
			if current == nil || m.LastLogin.After(*current.LastLogin) {
				current = m
			}
		}
		if current != nil {
			data["current_app"] = current.AppName
			data["current_app_id"] = current.AppID
			data["last_login"] = current.LastLogin
			data["is_session_active"] = true
		} else {
			data["is_session_active"] = false
		}
	case legacy != nil:
		data["name"] = legacy.Name
		data["last_login"] = legacy.LastLogin
		data["is_session_active"] = legacy.SessionActive
	}

	response.JSON(c, http.StatusOK, data, "Current app information retrieved successfully", "APP_INFO_RETRIEVED")
}

// RegisterRoutes registers user lookup routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/roleByUser/:email/:app", h.RolesByUser)
	rg.GET("/user/current-app", h.CurrentApp)
}
