package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campusmart/internal/domain/entity"
	"campusmart/internal/domain/repository"
	"campusmart/pkg/errors"
	"campusmart/pkg/logger"
)

const conversationsCollection = "conversations"

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) doc(id string) *firestore.DocumentRef {
	return r.client.Collection(conversationsCollection).Doc(id)
}

// FindOrCreate relies on the document id being the conversation key: Create
// fails with AlreadyExists when another request won the race, and the loser
// reads the winner's record instead of surfacing a duplicate.
func (r *firestoreConversationRepository) FindOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	_, err := r.doc(conv.ID).Create(ctx, conv)
	if err == nil {
		return conv, true, nil
	}
	if status.Code(err) != codes.AlreadyExists {
		return nil, false, errors.Internal("Failed to create conversation", err)
	}

	existing, err := r.GetByID(ctx, conv.ID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	if id == "" {
		return nil, errors.NotFound("Conversation", nil)
	}

	snap, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	return decodeConversation(snap)
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	query := r.client.Collection(conversationsCollection).
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)

	return r.collect(ctx, query.Documents(ctx))
}

func (r *firestoreConversationRepository) List(ctx context.Context, limit, offset int) ([]*entity.Conversation, int64, error) {
	base := r.client.Collection(conversationsCollection).OrderBy("updatedAt", firestore.Desc)

	total, err := count(ctx, base)
	if err != nil {
		return nil, 0, errors.Internal("Failed to count conversations", err)
	}

	query := base
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	conversations, err := r.collect(ctx, query.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}
	return conversations, total, nil
}

func (r *firestoreConversationRepository) RecordMessage(ctx context.Context, conversationID, text string, recipients []string, at time.Time) error {
	updates := []firestore.Update{
		{Path: "lastMessage", Value: text},
		{Path: "updatedAt", Value: at},
	}
	// FieldPath keeps user ids containing dots from being split into nested paths.
	for _, uid := range recipients {
		updates = append(updates, firestore.Update{
			FieldPath: firestore.FieldPath{"unreadCount", uid},
			Value:     firestore.Increment(1),
		})
	}

	if _, err := r.doc(conversationID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to update conversation", err)
	}
	return nil
}

func (r *firestoreConversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	_, err := r.doc(conversationID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: 0},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to reset unread count", err)
	}
	return nil
}

func (r *firestoreConversationRepository) collect(ctx context.Context, iter *firestore.DocumentIterator) ([]*entity.Conversation, error) {
	defer iter.Stop()

	var conversations []*entity.Conversation
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate conversations", err)
		}

		conv, err := decodeConversation(snap)
		if err != nil {
			// Skip bad data instead of failing the whole list
			logger.Warn("Skipping malformed conversation %s: %v", snap.Ref.ID, err)
			continue
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}

func decodeConversation(snap *firestore.DocumentSnapshot) (*entity.Conversation, error) {
	var conv entity.Conversation
	if err := snap.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conv.ID = snap.Ref.ID
	if conv.UnreadCount == nil {
		conv.UnreadCount = make(map[string]int, len(conv.Participants))
	}
	for _, p := range conv.Participants {
		if _, ok := conv.UnreadCount[p]; !ok {
			conv.UnreadCount[p] = 0
		}
	}
	return &conv, nil
}

func count(ctx context.Context, query firestore.Query) (int64, error) {
	result, err := query.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := result["all"].(*firestorepb.Value)
	if !ok {
		return 0, nil
	}
	return v.GetIntegerValue(), nil
}
