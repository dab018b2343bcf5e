package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"go-starter/internal/middleware"
	"go-starter/internal/models"
	"go-starter/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	minNameLength = 2
	maxNameLength = 50
)

// APIHandler містить handlers для API endpoints користувача
type APIHandler struct {
	userService services.UserService
	authService services.AuthService
	cookies     middleware.CookieOptions
}

// NewAPIHandler створює новий APIHandler
func NewAPIHandler(userService services.UserService, authService services.AuthService, cookies middleware.CookieOptions) *APIHandler {
	if cookies.Name == "" {
		cookies.Name = middleware.SessionCookieName
	}
	return &APIHandler{
		userService: userService,
		authService: authService,
		cookies:     cookies,
	}
}

// UserProfile повертає профіль поточного користувача
// @Summary User Profile
// @Description Повертає профіль поточного користувача
// @Tags user
// @Produce json
// @Success 200 {object} models.UserProfile
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/user/profile [get]
func (h *APIHandler) UserProfile(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "Authentication required",
		})
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), session.User.ID)
	if err != nil {
		h.userError(c, err)
		return
	}

	model := user.Model()
	c.JSON(http.StatusOK, models.UserProfile{
		ID:      model.ID,
		Email:   model.Email,
		Name:    model.Name,
		Picture: model.Picture,
		Role:    model.Role,
	})
}

// UpdateProfile змінює ім'я користувача і оновлює сесію
// @Summary Update Profile
// @Description Змінює ім'я користувача (2-50 символів)
// @Tags user
// @Accept json
// @Produce json
// @Param request body models.UpdateProfileRequest true "New name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/user/profile [put]
func (h *APIHandler) UpdateProfile(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "You must be logged in to update your profile",
		})
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := validateName(req.Name)
		if msg == "" {
			msg = "Invalid name format"
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": msg,
		})
		return
	}

	name := strings.TrimSpace(req.Name)
	if msg := validateName(name); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": msg,
		})
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), session.User.ID, name)
	if err != nil {
		h.userError(c, err)
		return
	}

	token, _ := middleware.GetToken(c)
	result, err := h.authService.UpdateSession(c.Request.Context(), token, models.SessionPatch{
		User: models.SessionPatchUser{Name: models.StringPtr(user.Name)},
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Profile saved but session not refreshed")
		c.JSON(http.StatusOK, gin.H{
			"message": "Profile updated successfully",
			"user":    user.Model(),
		})
		return
	}

	middleware.SetSessionCookie(c, h.cookies, result.Credential)
	logrus.WithField("user_id", user.ID).Info("Profile updated")
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user.Model(),
		"session": result.Session,
	})
}

// AdminUsers повертає список користувачів (тільки ADMIN)
// @Summary List users
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/admin/users [get]
func (h *APIHandler) AdminUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Failed to retrieve users",
		})
		return
	}

	data := make([]models.User, 0, len(users))
	for i := range users {
		data = append(data, users[i].Model())
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"total": len(data),
	})
}

// AdminDeleteUser деактивує користувача (тільки ADMIN). Власний акаунт деактивувати не можна.
// @Summary Deactivate user
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/users/{id} [delete]
func (h *APIHandler) AdminDeleteUser(c *gin.Context) {
	id := c.Param("id")
	if session, ok := middleware.GetSession(c); ok && session.User.ID == id {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "You cannot deactivate your own account",
		})
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		h.userError(c, err)
		return
	}

	logrus.WithField("user_id", id).Info("User deactivated")
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *APIHandler) userError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "User not found",
		})
		return
	}
	logrus.WithError(err).Error("User operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":             "server_error",
		"error_description": "Internal server error",
	})
}

// validateName повертає повідомлення про помилку або ""
func validateName(name string) string {
	length := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case length < minNameLength:
		return "Name is required"
	case length > maxNameLength:
		return "Name is too long (maximum 50 characters)"
	}
	return ""
}
