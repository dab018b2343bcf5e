package handlers

import (
	"context"
	"net/http"
	"time"

	"go-starter/internal/build"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger перевіряє доступність залежності
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler містить handlers для health check
type HealthHandler struct {
	service string
	db      Pinger
}

// NewHealthHandler створює новий HealthHandler. db може бути nil.
func NewHealthHandler(service string, db Pinger) *HealthHandler {
	return &HealthHandler{
		service: service,
		db:      db,
	}
}

// Health повертає статус здоров'я сервісу
// @Summary Health Check
// @Description Повертає статус здоров'я сервісу та бази даних
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	serviceStatus := "healthy"
	dbStatus := "not_configured"

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus = "healthy"
		if err := h.db.PingContext(ctx); err != nil {
			logrus.WithError(err).Warn("Health check: database unreachable")
			dbStatus = "unhealthy"
			serviceStatus = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, gin.H{
		"status":    serviceStatus,
		"service":   h.service,
		"version":   build.Version,
		"build":     build.Current(),
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
