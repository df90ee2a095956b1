package usecase

import (
	"context"

	"campusmart/internal/domain/entity"
	"campusmart/internal/domain/repository"
	"campusmart/pkg/logger"
)

// ModerationUseCase gives admins read access to every thread and lets them
// take messages down. Role checks happen in the admin middleware.
type ModerationUseCase struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	listingRepo      repository.ListingRepository
}

func NewModerationUseCase(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	listingRepo repository.ListingRepository,
) *ModerationUseCase {
	return &ModerationUseCase{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		listingRepo:      listingRepo,
	}
}

func (uc *ModerationUseCase) ListAllConversations(ctx context.Context, limit, offset int) ([]*ConversationResponse, int64, error) {
	conversations, total, err := uc.conversationRepo.List(ctx, limit, offset)
	if err != nil {
		logger.Error("ListAllConversations Error: %v", err)
		return nil, 0, err
	}

	return attachListings(ctx, uc.listingRepo, conversations), total, nil
}

// GetConversationMessages reads a thread without touching unread counters.
func (uc *ModerationUseCase) GetConversationMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	if _, err := uc.conversationRepo.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}

	return uc.messageRepo.ListByConversation(ctx, conversationID)
}

// RemoveMessage soft deletes a message. Removing an already removed message
// returns it unchanged.
func (uc *ModerationUseCase) RemoveMessage(ctx context.Context, adminID, messageID string) (*entity.Message, error) {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.IsDeleted {
		return message, nil
	}

	removed, err := uc.messageRepo.SoftDelete(ctx, messageID, entity.RemovedMessagePlaceholder)
	if err != nil {
		logger.Error("RemoveMessage Error: Failed to remove message %s: %v", messageID, err)
		return nil, err
	}

	logger.Info("Message %s in conversation %s removed by admin %s", removed.ID, removed.ConversationID, adminID)
	return removed, nil
}
