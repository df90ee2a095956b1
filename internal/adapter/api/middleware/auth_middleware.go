package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"campusmart/internal/domain/entity"
	"campusmart/internal/usecase"
	"campusmart/pkg/errors"
	"campusmart/pkg/response"
)

// Context keys set by Authenticate.
const (
	ContextUID  = "uid"
	ContextUser = "user"
)

type AuthMiddleware struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthMiddleware(authUseCase *usecase.AuthUseCase) *AuthMiddleware {
	return &AuthMiddleware{
		authUseCase: authUseCase,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := BearerToken(c, false)
		if err != nil {
			return response.Error(c, err)
		}

		user, err := m.authUseCase.Authenticate(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(ContextUID, user.ID)
		c.Set(ContextUser, user)

		return next(c)
	}
}

// BearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on a websocket handshake, so allowQuery also accepts ?token=.
func BearerToken(c echo.Context, allowQuery bool) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if allowQuery {
			if token := c.QueryParam("token"); token != "" {
				return token, nil
			}
		}
		return "", errors.Unauthorized("Authorization header is required", nil)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.Unauthorized("Invalid authorization format", nil)
	}

	return strings.TrimSpace(parts[1]), nil
}

// CurrentUser returns the user Authenticate stored on the request.
func CurrentUser(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(ContextUser).(*entity.User)
	return user, ok && user != nil
}
