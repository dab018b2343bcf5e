package middleware

import (
	"context"
	"net/http"
	"time"

	"go-starter/internal/models"
	"go-starter/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionCookieName ім'я cookie з сесійним credential
const SessionCookieName = "session"

const (
	sessionContextKey = "session"
	tokenContextKey   = "session_token"
)

// SessionLoader повертає сесію для сирого credential
type SessionLoader interface {
	CurrentSession(ctx context.Context, raw string) (*services.SessionResult, error)
}

// CookieOptions параметри сесійної cookie
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func (o CookieOptions) name() string {
	if o.Name == "" {
		return SessionCookieName
	}
	return o.Name
}

// SetSessionCookie встановлює HttpOnly cookie з SameSite=Lax на шлях "/"
func SetSessionCookie(c *gin.Context, opts CookieOptions, credential string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(opts.name(), credential, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, true)
}

// ClearSessionCookie видаляє сесійну cookie
func ClearSessionCookie(c *gin.Context, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(opts.name(), "", -1, "/", "", opts.Secure, true)
}

// LoadSession кладе нормалізовану сесію в контекст, якщо cookie валідна.
// Запити без сесії проходять далі.
func LoadSession(loader SessionLoader, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(opts.name())
		if err != nil || raw == "" {
			c.Next()
			return
		}

		result, err := loader.CurrentSession(c.Request.Context(), raw)
		if err != nil {
			logrus.WithError(err).Debug("Session cookie rejected")
			ClearSessionCookie(c, opts)
			c.Next()
			return
		}

		if result.Credential != "" {
			SetSessionCookie(c, opts, result.Credential)
		}

		session := result.Session
		c.Set(sessionContextKey, &session)
		c.Set(tokenContextKey, result.Token)
		c.Next()
	}
}

// RequireSession повертає 401, якщо LoadSession не знайшов сесію
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetSession(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "Authentication required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole повертає 403 для користувачів з іншою роллю
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "Authentication required",
			})
			c.Abort()
			return
		}

		if session.User.Role != role {
			logrus.WithFields(logrus.Fields{
				"user_id":       session.User.ID,
				"user_role":     session.User.Role,
				"required_role": role,
			}).Warn("Access denied: insufficient role")
			c.JSON(http.StatusForbidden, gin.H{
				"error":             "forbidden",
				"error_description": "Insufficient permissions",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession отримує сесію з контексту
func GetSession(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok
}

// GetToken отримує токен сесії з контексту
func GetToken(c *gin.Context) (*models.Token, bool) {
	value, exists := c.Get(tokenContextKey)
	if !exists {
		return nil, false
	}
	token, ok := value.(*models.Token)
	return token, ok
}
