package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"campusmart/internal/domain/entity"
	"campusmart/internal/domain/repository"
	"campusmart/pkg/errors"
	"campusmart/pkg/logger"
)

type ChatUseCase struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	listingRepo      repository.ListingRepository
	rateLimiter      RateLimiter
	now              func() time.Time
}

type ChatOption func(*ChatUseCase)

// WithRateLimiter throttles SendMessage per sender.
func WithRateLimiter(rl RateLimiter) ChatOption {
	return func(uc *ChatUseCase) {
		uc.rateLimiter = rl
	}
}

func WithClock(now func() time.Time) ChatOption {
	return func(uc *ChatUseCase) {
		uc.now = now
	}
}

func NewChatUseCase(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	listingRepo repository.ListingRepository,
	opts ...ChatOption,
) *ChatUseCase {
	uc := &ChatUseCase{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		listingRepo:      listingRepo,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ConversationResponse is a conversation with a summary of its listing.
// Listing is nil when the listing has since been removed.
type ConversationResponse struct {
	*entity.Conversation
	Listing *entity.ListingSummary `json:"listing,omitempty"`
}

// SentMessage is the stored message plus who should be told about it.
type SentMessage struct {
	*entity.Message
	Recipients []string `json:"-"`
}

func (uc *ChatUseCase) StartConversation(ctx context.Context, requesterID, listingID string) (*ConversationResponse, error) {
	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		logger.Error("StartConversation Error: Listing %s not found: %v", listingID, err)
		return nil, err
	}

	if listing.OwnerID == requesterID {
		return nil, errors.InvalidOperation("Cannot start a conversation on your own listing", nil)
	}

	candidate := entity.NewConversation(listing.ID, requesterID, listing.OwnerID, uc.now())

	conv, created, err := uc.conversationRepo.FindOrCreate(ctx, candidate)
	if err != nil {
		logger.Error("StartConversation Error: Failed to open conversation for listing %s: %v", listingID, err)
		return nil, err
	}
	if created {
		logger.Info("Conversation %s opened on listing %s by %s", conv.ID, listing.ID, requesterID)
	}

	return &ConversationResponse{Conversation: conv, Listing: listing.Summary()}, nil
}

func (uc *ChatUseCase) ListConversations(ctx context.Context, userID string) ([]*ConversationResponse, error) {
	conversations, err := uc.conversationRepo.ListByParticipant(ctx, userID)
	if err != nil {
		logger.Error("ListConversations Error: Failed to list conversations for %s: %v", userID, err)
		return nil, err
	}

	return uc.withListings(ctx, conversations), nil
}

func (uc *ChatUseCase) GetConversation(ctx context.Context, userID, conversationID string) (*ConversationResponse, error) {
	conv, err := uc.authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	return uc.withListings(ctx, []*entity.Conversation{conv})[0], nil
}

// GetMessages returns the thread oldest first and clears the caller's unread counter.
func (uc *ChatUseCase) GetMessages(ctx context.Context, userID, conversationID string) ([]*entity.Message, error) {
	if _, err := uc.authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	if err := uc.conversationRepo.ResetUnread(ctx, conversationID, userID); err != nil {
		logger.Error("GetMessages Error: Failed to reset unread for %s in %s: %v", userID, conversationID, err)
		return nil, err
	}

	messages, err := uc.messageRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		logger.Error("GetMessages Error: Failed to list messages for %s: %v", conversationID, err)
		return nil, err
	}
	return messages, nil
}

func (uc *ChatUseCase) MarkAsRead(ctx context.Context, userID, conversationID string) error {
	if _, err := uc.authorize(ctx, userID, conversationID); err != nil {
		return err
	}

	return uc.conversationRepo.ResetUnread(ctx, conversationID, userID)
}

// SendMessage stores a message and bumps the conversation. The message is
// written before the conversation summary; if the second write fails the
// message exists but lastMessage and the counters lag until the next send.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID, conversationID, text string) (*SentMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.InvalidInput("Message text is required", nil)
	}
	if utf8.RuneCountInString(text) > entity.MaxMessageLength {
		return nil, errors.InvalidInput(fmt.Sprintf("Message text must be at most %d characters", entity.MaxMessageLength), nil)
	}

	conv, err := uc.authorize(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}

	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(senderID, ActionSendMessage); !allowed {
			logger.Warn("SendMessage Rate Limited: User %s must wait %v", senderID, wait)
			return nil, errors.TooManyRequests(fmt.Sprintf("Sending too fast, retry in %.0fs", wait.Seconds()+0.5))
		}
	}

	message := &entity.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
		CreatedAt:      uc.now(),
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		logger.Error("SendMessage Error: Failed to create message in %s: %v", conversationID, err)
		return nil, err
	}

	recipients := conv.Recipients(senderID)
	if err := uc.conversationRepo.RecordMessage(ctx, conv.ID, text, recipients, message.CreatedAt); err != nil {
		logger.Error("SendMessage Error: Failed to update conversation %s after message %s: %v", conv.ID, message.ID, err)
		return nil, err
	}

	return &SentMessage{Message: message, Recipients: recipients}, nil
}

// AuthorizeParticipant reports whether userID may act in the conversation.
func (uc *ChatUseCase) AuthorizeParticipant(ctx context.Context, userID, conversationID string) (bool, error) {
	_, err := uc.authorize(ctx, userID, conversationID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, errors.CodeForbidden) || errors.Is(err, errors.CodeNotFound) {
		return false, nil
	}
	return false, err
}

func (uc *ChatUseCase) authorize(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	if conversationID == "" {
		return nil, errors.NotFound("Conversation", nil)
	}

	conv, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if !conv.HasParticipant(userID) {
		logger.Warn("User %s is not a participant in conversation %s", userID, conversationID)
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	return conv, nil
}

// withListings attaches listing summaries, reading each listing once.
func (uc *ChatUseCase) withListings(ctx context.Context, conversations []*entity.Conversation) []*ConversationResponse {
	return attachListings(ctx, uc.listingRepo, conversations)
}

func attachListings(ctx context.Context, listingRepo repository.ListingRepository, conversations []*entity.Conversation) []*ConversationResponse {
	summaries := make(map[string]*entity.ListingSummary)
	out := make([]*ConversationResponse, 0, len(conversations))

	for _, conv := range conversations {
		summary, seen := summaries[conv.ListingID]
		if !seen {
			listing, err := listingRepo.GetByID(ctx, conv.ListingID)
			if err == nil {
				summary = listing.Summary()
			} else {
				logger.Warn("Listing %s not found for conversation %s: %v", conv.ListingID, conv.ID, err)
			}
			summaries[conv.ListingID] = summary
		}
		out = append(out, &ConversationResponse{Conversation: conv, Listing: summary})
	}
	return out
}
