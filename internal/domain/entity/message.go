package entity

import "time"

// RemovedMessagePlaceholder replaces the text of a message taken down by moderation.
const RemovedMessagePlaceholder = "[Message removed by admin]"

// MaxMessageLength caps message text, counted in runes.
const MaxMessageLength = 2000

type Message struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	Text           string    `json:"text" firestore:"text"`
	IsDeleted      bool      `json:"is_deleted" firestore:"isDeleted"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}
