package handler

import (
	"github.com/labstack/echo/v4"

	"campusmart/internal/usecase"
	"campusmart/pkg/response"
	"campusmart/pkg/utils"
)

// AdminChatHandler serves the moderation endpoints under /v1/admin/chat.
type AdminChatHandler struct {
	moderationUseCase *usecase.ModerationUseCase
	broadcaster       Broadcaster
}

func NewAdminChatHandler(moderationUseCase *usecase.ModerationUseCase, broadcaster Broadcaster) *AdminChatHandler {
	return &AdminChatHandler{
		moderationUseCase: moderationUseCase,
		broadcaster:       broadcaster,
	}
}

func (h *AdminChatHandler) ListConversations(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	conversations, total, err := h.moderationUseCase.ListAllConversations(c.Request().Context(), params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, conversations, total, params.Page, params.PageSize)
}

func (h *AdminChatHandler) GetConversationMessages(c echo.Context) error {
	messages, err := h.moderationUseCase.GetConversationMessages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *AdminChatHandler) RemoveMessage(c echo.Context) error {
	adminID := c.Get("uid").(string)

	removed, err := h.moderationUseCase.RemoveMessage(c.Request().Context(), adminID, c.Param("messageId"))
	if err != nil {
		return response.Error(c, err)
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastMessageRemoved(removed)
	}

	return response.Success(c, removed)
}
