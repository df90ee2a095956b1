package handler

import (
	"github.com/labstack/echo/v4"

	"campusmart/internal/usecase"
	"campusmart/pkg/response"
)

// DevTokenHandler mints tokens for seeded users. Only routed in development
// with the jwt auth provider.
type DevTokenHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewDevTokenHandler(authUseCase *usecase.AuthUseCase) *DevTokenHandler {
	return &DevTokenHandler{
		authUseCase: authUseCase,
	}
}

type devTokenRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	token, err := h.authUseCase.IssueToken(c.Request().Context(), req.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"user_id": req.UserID,
		"token":   token,
	})
}
