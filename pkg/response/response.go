package response

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "campusmart/pkg/errors"
	"campusmart/pkg/logger"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Paginated(c echo.Context, items interface{}, total int64, page, pageSize int) error {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}

	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Timestamp: now(),
		Data: PaginatedResponse{
			Items:      items,
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	})
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{
		Success:   false,
		Timestamp: now(),
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return handleValidationError(c, validationErr)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("%s %s: %v (cause: %v)", c.Request().Method, c.Path(), appErr, appErr.Err)
		}
		return fail(c, appErr.Status, appErr.Code, appErr.Message)
	}

	// Bind failures and framework errors arrive as *echo.HTTPError.
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code == http.StatusBadRequest {
			return fail(c, http.StatusBadRequest, apperrors.CodeInvalidInput, "Malformed request payload")
		}
		return fail(c, httpErr.Code, http.StatusText(httpErr.Code), http.StatusText(httpErr.Code))
	}

	logger.Error("%s %s: unexpected error: %v", c.Request().Method, c.Path(), err)
	return fail(c, http.StatusInternalServerError, apperrors.CodeInternal, "An unexpected error occurred")
}

func handleValidationError(c echo.Context, validationErr validator.ValidationErrors) error {
	message := "Invalid input data"
	if len(validationErr) > 0 {
		fe := validationErr[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			message = field + " is required"
		case "min":
			message = field + " must be at least " + fe.Param()
		case "max":
			message = field + " must be at most " + fe.Param()
		case "oneof":
			message = field + " must be one of: " + fe.Param()
		default:
			message = field + " is invalid"
		}
	}
	return fail(c, http.StatusBadRequest, apperrors.CodeInvalidInput, message)
}
