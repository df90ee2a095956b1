package router

import (
	"github.com/labstack/echo/v4"

	"campusmart/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up WebSocket routes
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	// No auth middleware: the handler accepts ?token= as well as the header
	e.GET("/ws", wsHandler.HandleWebSocket)
}
