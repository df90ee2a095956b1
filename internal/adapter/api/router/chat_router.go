package router

import (
	"github.com/labstack/echo/v4"

	"campusmart/internal/adapter/api/handler"
	"campusmart/internal/adapter/api/middleware"
)

// SetupChatRouter sets up the participant-facing conversation routes
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware, apiLimit *middleware.RateLimitMiddleware) {
	chatGroup := e.Group("/v1/conversations")
	if apiLimit != nil {
		chatGroup.Use(apiLimit.Limit)
	}
	chatGroup.Use(authMiddleware.Authenticate)

	chatGroup.POST("", chatHandler.StartConversation)        // POST /v1/conversations - Start or reopen a conversation on a listing
	chatGroup.GET("", chatHandler.ListConversations)         // GET /v1/conversations - Caller's conversations, most recent first
	chatGroup.GET("/:id", chatHandler.GetConversation)       // GET /v1/conversations/:id
	chatGroup.PUT("/:id/read", chatHandler.MarkAsRead)       // PUT /v1/conversations/:id/read
	chatGroup.GET("/:id/messages", chatHandler.GetMessages)  // GET /v1/conversations/:id/messages - Also marks as read
	chatGroup.POST("/:id/messages", chatHandler.SendMessage) // POST /v1/conversations/:id/messages
}
