package websocket

import (
	"encoding/json"
	"time"
)

// Client to server events
const (
	EventPing              = "ping"
	EventJoinConversation  = "joinConversation"
	EventLeaveConversation = "leaveConversation"
	EventTyping            = "typing"
	EventStopTyping        = "stopTyping"
	EventSendMessage       = "sendMessage"
	EventMarkRead          = "markRead"
)

// Server to client events
const (
	EventPong                = "pong"
	EventNewMessage          = "newMessage"
	EventMessageAck          = "messageAck"
	EventMessageError        = "messageError"
	EventMessageRemoved      = "messageRemoved"
	EventConversationUpdated = "conversationUpdated"
	EventUserOnline          = "userOnline"
	EventUserOffline         = "userOffline"
	EventUserTyping          = "userTyping"
	EventUserStopTyping      = "userStopTyping"
	EventError               = "error"
)

// IncomingEvent is a frame received from a client. Data is decoded per type.
type IncomingEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event is a frame sent to clients.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func newEvent(eventType string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

type ConversationData struct {
	ConversationID string `json:"conversation_id"`
}

type SendMessageData struct {
	ConversationID  string `json:"conversation_id"`
	Text            string `json:"text"`
	ClientMessageID string `json:"client_message_id,omitempty"`
}

type NewMessageData struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

type MessageAckData struct {
	ClientMessageID string `json:"client_message_id,omitempty"`
	MessageID       string `json:"message_id"`
	ConversationID  string `json:"conversation_id"`
}

type MessageErrorData struct {
	ClientMessageID string `json:"client_message_id,omitempty"`
	ConversationID  string `json:"conversation_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

type MessageRemovedData struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
}

type ConversationUpdatedData struct {
	ConversationID string    `json:"conversation_id"`
	LastMessage    string    `json:"last_message"`
	SenderID       string    `json:"sender_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type PresenceData struct {
	UserID string `json:"user_id"`
}

type TypingData struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
