package repository

import (
	"context"

	"campusmart/internal/domain/entity"
)

// MessageRepository is an append-only log per conversation. The only mutation
// after creation is the moderation soft delete.
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	// ListByConversation returns messages oldest first.
	ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error)
	SoftDelete(ctx context.Context, id, placeholder string) (*entity.Message, error)
}
