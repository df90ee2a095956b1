package router

import (
	"campusmart/internal/adapter/api/handler"
	"campusmart/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	apiLimit *middleware.RateLimitMiddleware,
	wsHandler *handler.WebSocketHandler,
) {
	SetupHealthRouter(e)
	SetupChatRouter(e, handler.GetChatHandler(), authMiddleware, apiLimit)
	SetupAdminRouter(e, handler.GetAdminChatHandler(), authMiddleware, adminMiddleware)
	SetupWebSocketRouter(e, wsHandler)
}
