package routes

import (
	"circle_backend/internal/handlers"
	"circle_backend/internal/logger"
	"circle_backend/internal/middleware"
	"circle_backend/ws"

	"github.com/gin-gonic/gin"
)

// AppHandlers - готовые хэндлеры request/response поверхности
type AppHandlers struct {
	ChatHandler       *handlers.ChatHandler
	AttachmentHandler *handlers.AttachmentHandler
}

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *AppHandlers,
	wsHandler *ws.WebSocketHandler,
) {
	// Регистрация HTTP API v1
	api := ginRouter.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	{
		appHandlers.ChatHandler.RegisterRoutes(api)
		appHandlers.AttachmentHandler.RegisterRoutes(api)
	}

	// Регистрация WebSocket. Auth-middleware здесь не нужен:
	// credential проверяет Identity Resolver до upgrade.
	ginRouter.GET("/ws", wsHandler.ServeWS)
	logger.Info("WebSocket route /ws registered")
}
