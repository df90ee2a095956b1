package router

import (
	"campusmart/internal/adapter/api/handler"

	"github.com/labstack/echo/v4"
)

// SetupDevRouter exposes token minting for local testing. It is a no-op
// outside development or when tokens come from Firebase.
func SetupDevRouter(e *echo.Echo, environment, authProvider string) {
	if environment != "development" || authProvider != "jwt" {
		return
	}
	devTokenHandler := handler.GetDevTokenHandler()

	e.POST("/v1/dev/token", devTokenHandler.GenerateToken)
}
