package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"campusmart/internal/adapter/api/middleware"
	ws "campusmart/internal/infrastructure/websocket"
	"campusmart/internal/usecase"
	"campusmart/pkg/logger"
	"campusmart/pkg/response"
)

type WebSocketHandler struct {
	wsManager   *ws.Manager
	authUseCase *usecase.AuthUseCase
	upgrader    gorillaws.Upgrader
}

// NewWebSocketHandler accepts handshakes from allowedOrigins; "*" allows any.
// Requests without an Origin header (non-browser clients) are always accepted.
func NewWebSocketHandler(wsManager *ws.Manager, authUseCase *usecase.AuthUseCase, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	_, allowAll := allowed["*"]

	return &WebSocketHandler{
		wsManager:   wsManager,
		authUseCase: authUseCase,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowAll || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// HandleWebSocket authenticates before upgrading, so a bad credential gets a
// plain 401 response and never becomes a socket.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token, err := middleware.BearerToken(c, true)
	if err != nil {
		return response.Error(c, err)
	}

	user, err := h.authUseCase.Authenticate(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		logger.Warn("WebSocket: upgrade failed for user %s: %v", user.ID, err)
		return nil
	}

	client := ws.NewClient(user.ID, conn)
	h.wsManager.Register(client)

	go client.WritePump()
	go client.ReadPump(h.wsManager)

	return nil
}
