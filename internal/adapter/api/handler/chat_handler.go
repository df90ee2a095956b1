package handler

import (
	"github.com/labstack/echo/v4"

	"campusmart/internal/usecase"
	"campusmart/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
	broadcaster Broadcaster
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, broadcaster Broadcaster) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
		broadcaster: broadcaster,
	}
}

type startConversationRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
}

// Blank text is rejected by the use case so HTTP and socket sends fail the same way.
type sendMessageRequest struct {
	Text string `json:"text"`
}

// StartConversation opens, or returns the existing, conversation about a listing
func (h *ChatHandler) StartConversation(c echo.Context) error {
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	conv, err := h.chatUseCase.StartConversation(c.Request().Context(), userID, req.ListingID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conv)
}

func (h *ChatHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	conversations, err := h.chatUseCase.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

func (h *ChatHandler) GetConversation(c echo.Context) error {
	userID := c.Get("uid").(string)

	conv, err := h.chatUseCase.GetConversation(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conv)
}

// GetMessages returns the thread and marks it read for the caller
func (h *ChatHandler) GetMessages(c echo.Context) error {
	userID := c.Get("uid").(string)

	messages, err := h.chatUseCase.GetMessages(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	sent, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		return response.Error(c, err)
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastNewMessage(sent.Message, sent.Recipients)
	}

	return response.Created(c, sent.Message)
}

func (h *ChatHandler) MarkAsRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	if err := h.chatUseCase.MarkAsRead(c.Request().Context(), userID, conversationID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"conversation_id": conversationID,
		"unread_count":    0,
	})
}
