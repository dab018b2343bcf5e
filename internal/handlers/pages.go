package handlers

import (
	"net/http"

	"go-starter/internal/middleware"

	"github.com/gin-gonic/gin"
)

// PageHandler віддає JSON-оболонки сторінок замість HTML
type PageHandler struct{}

// NewPageHandler створює новий PageHandler
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Page повертає handler для сторінки з заданим ім'ям
func (h *PageHandler) Page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"page": name,
			"path": c.Request.URL.Path,
		}
		if session, ok := middleware.GetSession(c); ok {
			body["session"] = session
		}
		if callbackURL := c.Query("callbackUrl"); callbackURL != "" {
			body["callbackUrl"] = callbackURL
		}
		if code := c.Query("error"); code != "" {
			body["error"] = code
		}
		c.JSON(http.StatusOK, body)
	}
}
