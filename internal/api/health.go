package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodgram-project/backend/internal/database"
)

// HealthHandler reports liveness of the service and its database.
type HealthHandler struct {
	healthDB *database.HealthDB
}

func NewHealthHandler(healthDB *database.HealthDB) *HealthHandler {
	return &HealthHandler{healthDB: healthDB}
}

func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
}

func (h *HealthHandler) Health(c *gin.Context) {
	if h.healthDB != nil {
		if err := h.healthDB.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
