package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

// Conversation ties exactly two users to one listing. UnreadCount holds one
// non-negative entry per participant.
type Conversation struct {
	ID           string         `json:"id" firestore:"id"`
	ListingID    string         `json:"listing_id" firestore:"listingId"`
	Participants []string       `json:"participants" firestore:"participants"`
	LastMessage  string         `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	UnreadCount  map[string]int `json:"unread_count" firestore:"unreadCount"`
	CreatedAt    time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// NewConversation builds a conversation between a listing owner and a
// counterpart with both counters at zero. The id is the conversation key.
func NewConversation(listingID, requesterID, ownerID string, now time.Time) *Conversation {
	return &Conversation{
		ID:           ConversationKey(listingID, requesterID, ownerID),
		ListingID:    listingID,
		Participants: []string{requesterID, ownerID},
		UnreadCount: map[string]int{
			requesterID: 0,
			ownerID:     0,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ConversationKey derives a stable identifier from the listing and the
// unordered participant pair. Two callers racing to open the same thread
// compute the same key, which is what the store's create-if-absent relies on.
func ConversationKey(listingID string, participants ...string) string {
	sorted := append([]string(nil), participants...)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(listingID))
	for _, p := range sorted {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Recipients returns every participant except the sender.
func (c *Conversation) Recipients(senderID string) []string {
	out := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p != senderID {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a deep copy so callers can hand out records without sharing the map.
func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	cp.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		cp.UnreadCount[k] = v
	}
	return &cp
}
