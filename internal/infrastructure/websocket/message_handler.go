package websocket

import (
	"encoding/json"

	"campusmart/pkg/errors"
	"campusmart/pkg/logger"
)

// HandleClientMessage decodes one frame from c and dispatches it.
func (m *Manager) HandleClientMessage(c *Client, raw []byte) {
	var in IncomingEvent
	if err := json.Unmarshal(raw, &in); err != nil {
		logger.Debug("WebSocket: malformed frame from client %s: %v", c.ID, err)
		m.sendError(c, errors.CodeInvalidInput, "Invalid message format")
		return
	}

	switch in.Type {
	case EventPing:
		m.sendToClient(c, newEvent(EventPong, nil))

	case EventJoinConversation:
		if data, ok := m.conversationData(c, in); ok {
			m.handleJoin(c, data.ConversationID)
		}

	case EventLeaveConversation:
		if data, ok := m.conversationData(c, in); ok {
			m.Leave(c, data.ConversationID)
		}

	case EventTyping, EventStopTyping:
		if data, ok := m.conversationData(c, in); ok {
			m.handleTyping(c, data.ConversationID, in.Type == EventTyping)
		}

	case EventSendMessage:
		m.handleSendMessage(c, in.Data)

	case EventMarkRead:
		if data, ok := m.conversationData(c, in); ok {
			m.handleMarkRead(c, data.ConversationID)
		}

	default:
		logger.Debug("WebSocket: unknown event type %q from client %s", in.Type, c.ID)
		m.sendError(c, errors.CodeInvalidInput, "Unknown event type")
	}
}

func (m *Manager) conversationData(c *Client, in IncomingEvent) (ConversationData, bool) {
	var data ConversationData
	if err := json.Unmarshal(in.Data, &data); err != nil || data.ConversationID == "" {
		m.sendError(c, errors.CodeInvalidInput, "conversation_id is required")
		return data, false
	}
	return data, true
}

// handleJoin admits the connection only if its user takes part in the
// conversation. Anything else is ignored without a reply.
func (m *Manager) handleJoin(c *Client, conversationID string) {
	ok, err := m.chat.AuthorizeParticipant(m.ctx, c.UserID, conversationID)
	if err != nil {
		logger.Error("WebSocket: join check failed for user %s in %s: %v", c.UserID, conversationID, err)
		return
	}
	if !ok {
		logger.Debug("WebSocket: user %s may not join %s", c.UserID, conversationID)
		return
	}

	m.Join(c, conversationID)
}

// handleTyping relays typing state to the rest of the room. Connections that
// never joined the room are ignored.
func (m *Manager) handleTyping(c *Client, conversationID string, typing bool) {
	if !m.InRoom(c, conversationID) {
		return
	}

	eventType := EventUserStopTyping
	if typing {
		eventType = EventUserTyping
	}
	m.publish(
		Envelope{Kind: TargetRoom, Target: conversationID, ExceptConn: c.ID},
		newEvent(eventType, TypingData{UserID: c.UserID, ConversationID: conversationID}),
	)
}

func (m *Manager) handleSendMessage(c *Client, raw json.RawMessage) {
	var data SendMessageData
	if err := json.Unmarshal(raw, &data); err != nil {
		m.sendToClient(c, newEvent(EventMessageError, MessageErrorData{
			Code:    errors.CodeInvalidInput,
			Message: "Invalid send message format",
		}))
		return
	}

	sent, err := m.chat.SendMessage(m.ctx, c.UserID, data.ConversationID, data.Text)
	if err != nil {
		logger.Warn("WebSocket: sendMessage from user %s to %s failed: %v", c.UserID, data.ConversationID, err)
		m.sendToClient(c, newEvent(EventMessageError, MessageErrorData{
			ClientMessageID: data.ClientMessageID,
			ConversationID:  data.ConversationID,
			Code:            errors.CodeOf(err),
			Message:         errors.MessageOf(err),
		}))
		return
	}

	// The sender is a participant by now; make sure this connection hears the room.
	m.Join(c, sent.ConversationID)
	m.BroadcastNewMessage(sent.Message, sent.Recipients)

	m.sendToClient(c, newEvent(EventMessageAck, MessageAckData{
		ClientMessageID: data.ClientMessageID,
		MessageID:       sent.ID,
		ConversationID:  sent.ConversationID,
	}))
}

func (m *Manager) handleMarkRead(c *Client, conversationID string) {
	if err := m.chat.MarkAsRead(m.ctx, c.UserID, conversationID); err != nil {
		logger.Warn("WebSocket: markRead by user %s on %s failed: %v", c.UserID, conversationID, err)
		m.sendError(c, errors.CodeOf(err), errors.MessageOf(err))
	}
}

func (m *Manager) sendError(c *Client, code, message string) {
	m.sendToClient(c, newEvent(EventError, ErrorData{Code: code, Message: message}))
}
