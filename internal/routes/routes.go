package routes

import (
	"net/http"

	"campusnest_backend/internal/handlers"
	"campusnest_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP маршруты. authMiddleware and metrics
// may be nil.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	authMiddleware gin.HandlerFunc,
	metrics http.Handler,
	metricsPath string,
) {
	root := ginRouter.Group("")
	appHandlers.HealthHandler.RegisterRoutes(root)
	appHandlers.FileHandler.RegisterRoutes(root)

	// Регистрация HTTP API v1
	api := ginRouter.Group("/api/v1")
	if authMiddleware != nil {
		api.Use(authMiddleware)
	}
	{
		appHandlers.UploadHandler.RegisterRoutes(api)
	}

	if metrics != nil {
		ginRouter.GET(metricsPath, gin.WrapH(metrics))
		logger.Info("Metrics route registered", "path", metricsPath)
	}
}
