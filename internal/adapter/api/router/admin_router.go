package router

import (
	"campusmart/internal/adapter/api/handler"
	"campusmart/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupAdminRouter(e *echo.Echo, adminChatHandler *handler.AdminChatHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	// Admin routes - require authentication and admin role
	admin := e.Group("/v1/admin/chat")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("/conversations", adminChatHandler.ListConversations)
	admin.GET("/conversations/:id/messages", adminChatHandler.GetConversationMessages)
	admin.DELETE("/messages/:messageId", adminChatHandler.RemoveMessage)
}
