package repository

import (
	"context"
	"time"

	"campusmart/internal/domain/entity"
)

// ConversationRepository owns Conversation records. Implementations must apply
// RecordMessage and ResetUnread as atomic per-document updates so that an
// increment racing a reset is never lost.
type ConversationRepository interface {
	// FindOrCreate inserts conv under its key unless a record with that id
	// already exists, in which case the stored record is returned with created=false.
	FindOrCreate(ctx context.Context, conv *entity.Conversation) (stored *entity.Conversation, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	// ListByParticipant returns conversations the user takes part in, most recently updated first.
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error)
	// List returns every conversation, most recently updated first, for moderation.
	List(ctx context.Context, limit, offset int) ([]*entity.Conversation, int64, error)

	// RecordMessage caches text as the last message, bumps updatedAt and
	// increments the unread counter of each recipient by one.
	RecordMessage(ctx context.Context, conversationID, text string, recipients []string, at time.Time) error
	// ResetUnread sets the user's unread counter to zero.
	ResetUnread(ctx context.Context, conversationID, userID string) error
}
