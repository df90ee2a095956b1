package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusmart/internal/domain/entity"
	"campusmart/internal/domain/repository"
	"campusmart/pkg/errors"
)

// MemoryStore keeps every collection the chat core touches in process memory.
// It backs STORE_DRIVER=memory and the tests; each repository it hands out
// shares the same lock so updates stay atomic per record.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
	messages      map[string]*entity.Message
	order         []string
	listings      map[string]*entity.Listing
	users         map[string]*entity.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string]*entity.Message),
		listings:      make(map[string]*entity.Listing),
		users:         make(map[string]*entity.User),
	}
}

// PutListing seeds a listing. Listings are owned by another module so there is no create operation.
func (s *MemoryStore) PutListing(listing *entity.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *listing
	s.listings[listing.ID] = &cp
}

func (s *MemoryStore) PutUser(user *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
}

func (s *MemoryStore) Conversations() repository.ConversationRepository {
	return &memoryConversationRepository{store: s}
}

func (s *MemoryStore) Messages() repository.MessageRepository {
	return &memoryMessageRepository{store: s}
}

func (s *MemoryStore) Listings() repository.ListingRepository {
	return &memoryListingRepository{store: s}
}

func (s *MemoryStore) Users() repository.UserRepository {
	return &memoryUserRepository{store: s}
}

type memoryConversationRepository struct {
	store *MemoryStore
}

func (r *memoryConversationRepository) FindOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if existing, ok := r.store.conversations[conv.ID]; ok {
		return existing.Clone(), false, nil
	}
	r.store.conversations[conv.ID] = conv.Clone()
	return conv.Clone(), true, nil
}

func (r *memoryConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	conv, ok := r.store.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return conv.Clone(), nil
}

func (r *memoryConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entity.Conversation
	for _, conv := range r.store.conversations {
		if conv.HasParticipant(userID) {
			out = append(out, conv.Clone())
		}
	}
	sortByUpdatedDesc(out)
	return out, nil
}

func (r *memoryConversationRepository) List(ctx context.Context, limit, offset int) ([]*entity.Conversation, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	all := make([]*entity.Conversation, 0, len(r.store.conversations))
	for _, conv := range r.store.conversations {
		all = append(all, conv.Clone())
	}
	sortByUpdatedDesc(all)

	total := int64(len(all))
	if offset >= len(all) {
		return []*entity.Conversation{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (r *memoryConversationRepository) RecordMessage(ctx context.Context, conversationID, text string, recipients []string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	conv, ok := r.store.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	conv.LastMessage = text
	conv.UpdatedAt = at
	for _, uid := range recipients {
		conv.UnreadCount[uid]++
	}
	return nil
}

func (r *memoryConversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	conv, ok := r.store.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	conv.UnreadCount[userID] = 0
	return nil
}

func sortByUpdatedDesc(conversations []*entity.Conversation) {
	sort.SliceStable(conversations, func(i, j int) bool {
		if conversations[i].UpdatedAt.Equal(conversations[j].UpdatedAt) {
			return conversations[i].ID < conversations[j].ID
		}
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
}

type memoryMessageRepository struct {
	store *MemoryStore
}

func (r *memoryMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if _, exists := r.store.messages[message.ID]; exists {
		return errors.Conflict("Message already exists")
	}
	cp := *message
	r.store.messages[message.ID] = &cp
	r.store.order = append(r.store.order, message.ID)
	return nil
}

func (r *memoryMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	message, ok := r.store.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	cp := *message
	return &cp, nil
}

// ListByConversation walks insertion order, so messages sharing a timestamp
// keep the order they were appended in.
func (r *memoryMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*entity.Message, 0)
	for _, id := range r.store.order {
		message := r.store.messages[id]
		if message.ConversationID != conversationID {
			continue
		}
		cp := *message
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryMessageRepository) SoftDelete(ctx context.Context, id, placeholder string) (*entity.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	message, ok := r.store.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	message.IsDeleted = true
	message.Text = placeholder
	cp := *message
	return &cp, nil
}

type memoryListingRepository struct {
	store *MemoryStore
}

func (r *memoryListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	listing, ok := r.store.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	cp := *listing
	return &cp, nil
}

type memoryUserRepository struct {
	store *MemoryStore
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	cp := *user
	return &cp, nil
}
