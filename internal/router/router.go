package router

import (
	"github.com/gin-gonic/gin"

	"github.com/foodgram-project/backend/internal/api"
	"github.com/foodgram-project/backend/internal/middleware"
)

// SetupRouter configures the application routes. Handlers register their own
// route groups under /api/v1; per-endpoint auth requirements live with the
// handlers.
func SetupRouter(
	authHandler *api.AuthHandler,
	userHandler *api.UserHandler,
	catalogHandler *api.CatalogHandler,
	recipeHandler *api.RecipeHandler,
	healthHandler *api.HealthHandler,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS())

	healthHandler.RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1)
	userHandler.RegisterRoutes(v1)
	catalogHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)

	return router
}
