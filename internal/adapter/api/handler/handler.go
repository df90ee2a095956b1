package handler

import (
	"campusmart/internal/domain/entity"
	"campusmart/internal/usecase"
)

// Broadcaster pushes chat changes to connected sockets. The websocket
// manager implements it; handlers work without one.
type Broadcaster interface {
	BroadcastNewMessage(msg *entity.Message, recipients []string)
	BroadcastMessageRemoved(msg *entity.Message)
}

var (
	chatHandler      *ChatHandler
	adminChatHandler *AdminChatHandler
	devTokenHandler  *DevTokenHandler
)

func Setup(
	chatUseCase *usecase.ChatUseCase,
	moderationUseCase *usecase.ModerationUseCase,
	authUseCase *usecase.AuthUseCase,
	broadcaster Broadcaster,
) {
	chatHandler = NewChatHandler(chatUseCase, broadcaster)
	adminChatHandler = NewAdminChatHandler(moderationUseCase, broadcaster)
	devTokenHandler = NewDevTokenHandler(authUseCase)
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetAdminChatHandler() *AdminChatHandler {
	return adminChatHandler
}

func GetDevTokenHandler() *DevTokenHandler {
	return devTokenHandler
}
