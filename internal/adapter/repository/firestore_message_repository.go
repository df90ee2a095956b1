package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campusmart/internal/domain/entity"
	"campusmart/internal/domain/repository"
	"campusmart/pkg/errors"
)

// Messages live in a top-level collection keyed by their own id and point at
// their conversation through conversationId, so moderation can address a
// message without knowing its thread.
const messagesCollection = "messages"

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	if _, err := r.client.Collection(messagesCollection).Doc(message.ID).Create(ctx, message); err != nil {
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	if id == "" {
		return nil, errors.NotFound("Message", nil)
	}

	snap, err := r.client.Collection(messagesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := snap.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	message.ID = snap.Ref.ID
	return &message, nil
}

func (r *firestoreMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	iter := r.client.Collection(messagesCollection).
		Where("conversationId", "==", conversationID).
		OrderBy("createdAt", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	messages := make([]*entity.Message, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := snap.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		message.ID = snap.Ref.ID
		messages = append(messages, &message)
	}
	return messages, nil
}

func (r *firestoreMessageRepository) SoftDelete(ctx context.Context, id, placeholder string) (*entity.Message, error) {
	if id == "" {
		return nil, errors.NotFound("Message", nil)
	}

	_, err := r.client.Collection(messagesCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isDeleted", Value: true},
		{Path: "text", Value: placeholder},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to remove message", err)
	}
	return r.GetByID(ctx, id)
}
