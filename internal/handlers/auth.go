package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"go-starter/internal/middleware"
	"go-starter/internal/models"
	"go-starter/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler містить handlers для входу, реєстрації та сесії
type AuthHandler struct {
	authService services.AuthService
	cookies     middleware.CookieOptions
	loginPath   string
}

// NewAuthHandler створює новий AuthHandler
func NewAuthHandler(authService services.AuthService, cookies middleware.CookieOptions, loginPath string) *AuthHandler {
	if loginPath == "" {
		loginPath = "/login"
	}
	if cookies.Name == "" {
		cookies.Name = middleware.SessionCookieName
	}
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
		loginPath:   loginPath,
	}
}

// CredentialsCallback вхід через email/password
// @Summary Credentials sign-in
// @Description Перевіряє email/password і встановлює сесійну cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/callback/credentials [post]
func (h *AuthHandler) CredentialsCallback(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		logrus.WithError(err).Debug("Invalid credentials request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Missing or invalid email/password",
		})
		return
	}

	result, err := h.authService.SignInWithCredentials(c.Request.Context(), &req)
	if err != nil {
		h.authError(c, err)
		return
	}

	middleware.SetSessionCookie(c, h.cookies, result.Credential)
	c.JSON(http.StatusOK, models.AuthResponse{
		Session:  result.Session,
		Redirect: result.CallbackURL,
	})
}

// Register реєструє користувача та встановлює сесійну cookie
// @Summary Register
// @Description Реєструє нового користувача з email/password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration data"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Debug("Invalid registration request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Missing or invalid registration data",
		})
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.authError(c, err)
		return
	}

	middleware.SetSessionCookie(c, h.cookies, result.Credential)
	c.JSON(http.StatusCreated, models.AuthResponse{
		Session:  result.Session,
		Redirect: result.CallbackURL,
	})
}

// SignIn перенаправляє на сторінку авторизації провайдера
// @Summary OAuth sign-in
// @Tags auth
// @Param provider path string true "Provider name"
// @Param callbackUrl query string false "Where to return after sign-in"
// @Success 302 {string} string "Redirect"
// @Failure 404 {object} map[string]interface{}
// @Router /api/auth/signin/{provider} [get]
func (h *AuthHandler) SignIn(c *gin.Context) {
	provider := c.Param("provider")

	authURL, err := h.authService.BeginOAuth(c.Request.Context(), provider, c.Query("callbackUrl"))
	if err != nil {
		if errors.Is(err, services.ErrUnknownProvider) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":             "unknown_provider",
				"error_description": services.AuthErrorMessage("auth/unauthorized-domain"),
			})
			return
		}
		logrus.WithError(err).WithField("provider", provider).Error("Failed to start OAuth flow")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Failed to start sign-in",
		})
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// OAuthCallback обробляє повернення від провайдера.
// Помилки перенаправляють на сторінку входу з кодом помилки.
// @Summary OAuth callback
// @Tags auth
// @Param provider path string true "Provider name"
// @Param code query string true "Authorization code"
// @Param state query string true "State"
// @Success 302 {string} string "Redirect"
// @Router /api/auth/callback/{provider} [get]
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")
	log := logrus.WithField("provider", provider)

	if providerErr := c.Query("error"); providerErr != "" {
		log.WithFields(logrus.Fields{
			"error":       providerErr,
			"description": c.Query("error_description"),
		}).Warn("Provider returned error")
		h.redirectToLogin(c, "OAuthSignin")
		return
	}

	code, state := c.Query("code"), c.Query("state")
	if code == "" || state == "" {
		log.Warn("OAuth callback without code or state")
		h.redirectToLogin(c, "OAuthCallback")
		return
	}

	result, err := h.authService.CompleteOAuth(c.Request.Context(), provider, code, state)
	if err != nil {
		log.WithError(err).Warn("OAuth callback failed")
		if errors.Is(err, services.ErrAccountNotLinked) {
			h.redirectToLogin(c, "OAuthAccountNotLinked")
			return
		}
		h.redirectToLogin(c, "OAuthCallback")
		return
	}

	middleware.SetSessionCookie(c, h.cookies, result.Credential)
	c.Redirect(http.StatusFound, result.CallbackURL)
}

// Session повертає нормалізовану сесію поточного користувача
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} models.Session
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		h.noSession(c)
		return
	}
	c.JSON(http.StatusOK, session)
}

// UpdateSession оновлює name/image у сесії
// @Summary Update session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.SessionPatch true "Session patch"
// @Success 200 {object} models.Session
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/session [post]
func (h *AuthHandler) UpdateSession(c *gin.Context) {
	var patch models.SessionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Invalid session update",
		})
		return
	}

	token, ok := middleware.GetToken(c)
	if !ok {
		h.noSession(c)
		return
	}

	result, err := h.authService.UpdateSession(c.Request.Context(), token, patch)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSessionToken) {
			h.noSession(c)
			return
		}
		logrus.WithError(err).Error("Failed to update session")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Failed to update session",
		})
		return
	}

	middleware.SetSessionCookie(c, h.cookies, result.Credential)
	c.JSON(http.StatusOK, result.Session)
}

// SignOut відкликає сесію та видаляє cookie
// @Summary Sign out
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	if raw, err := c.Cookie(h.cookies.Name); err == nil && raw != "" {
		h.authService.SignOut(c.Request.Context(), raw)
	}

	middleware.ClearSessionCookie(c, h.cookies)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Providers повертає список способів входу
// @Summary Sign-in providers
// @Tags auth
// @Produce json
// @Success 200 {array} models.ProviderInfo
// @Router /api/auth/providers [get]
func (h *AuthHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, h.authService.Providers())
}

// authError перетворює помилку сервісу на відповідь з дружнім повідомленням
func (h *AuthHandler) authError(c *gin.Context, err error) {
	code := services.AuthErrorCode(err)

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_grant",
			"error_description": services.AuthErrorMessage(code),
		})
	case errors.Is(err, services.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{
			"error":             "user_exists",
			"error_description": services.AuthErrorMessage(code),
		})
	default:
		logrus.WithError(err).Error("Authentication failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": services.AuthErrorMessage(code),
		})
	}
}

func (h *AuthHandler) noSession(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":             "unauthorized",
		"error_description": "No active session",
	})
}

func (h *AuthHandler) redirectToLogin(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, h.loginPath+"?"+url.Values{"error": {code}}.Encode())
}
