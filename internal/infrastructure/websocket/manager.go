package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"campusmart/internal/domain/entity"
	"campusmart/internal/usecase"
	"campusmart/pkg/logger"
)

// ChatService is the part of the chat use case the socket protocol drives.
// Sends over the socket go through the same SendMessage as HTTP.
type ChatService interface {
	AuthorizeParticipant(ctx context.Context, userID, conversationID string) (bool, error)
	SendMessage(ctx context.Context, senderID, conversationID, text string) (*usecase.SentMessage, error)
	MarkAsRead(ctx context.Context, userID, conversationID string) error
}

// Manager tracks live connections, presence and conversation rooms for this
// process. None of it is persisted: after a restart everyone is offline until
// they reconnect.
type Manager struct {
	chat   ChatService
	broker Broker

	mu          sync.RWMutex
	clients     map[string]*Client             // connection id -> client
	presence    map[string]map[string]*Client  // user id -> connection id -> client
	rooms       map[string]map[string]*Client  // conversation id -> connection id -> client
	memberships map[string]map[string]struct{} // connection id -> conversation ids

	ctx context.Context
}

func NewManager(chat ChatService, broker Broker) *Manager {
	if broker == nil {
		broker = NewLocalBroker()
	}
	return &Manager{
		chat:        chat,
		broker:      broker,
		clients:     make(map[string]*Client),
		presence:    make(map[string]map[string]*Client),
		rooms:       make(map[string]map[string]*Client),
		memberships: make(map[string]map[string]struct{}),
		ctx:         context.Background(),
	}
}

// Start subscribes to the broker. ctx bounds the subscription and is the
// context socket events run under.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx = ctx
	if err := m.broker.Subscribe(ctx, m.deliver); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		m.closeAll()
	}()

	logger.Info("WebSocket manager started with %s broker", m.broker.Name())
	return nil
}

func (m *Manager) Broker() Broker {
	return m.broker
}

// Register adds a connection. The user's first connection announces them online.
func (m *Manager) Register(c *Client) {
	m.mu.Lock()
	m.clients[c.ID] = c
	conns := m.presence[c.UserID]
	if conns == nil {
		conns = make(map[string]*Client)
		m.presence[c.UserID] = conns
	}
	conns[c.ID] = c
	first := len(conns) == 1
	m.mu.Unlock()

	logger.Info("WebSocket: client %s registered for user %s", c.ID, c.UserID)

	if first {
		m.publish(Envelope{Kind: TargetAll}, newEvent(EventUserOnline, PresenceData{UserID: c.UserID}))
	}
}

// Unregister drops a connection from rooms and presence. The user's last
// connection announces them offline. Safe to call more than once.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	if _, ok := m.clients[c.ID]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, c.ID)

	for conversationID := range m.memberships[c.ID] {
		m.leaveLocked(conversationID, c.ID)
	}
	delete(m.memberships, c.ID)

	last := false
	if conns := m.presence[c.UserID]; conns != nil {
		delete(conns, c.ID)
		if len(conns) == 0 {
			delete(m.presence, c.UserID)
			last = true
		}
	}
	m.mu.Unlock()

	c.Close()
	logger.Info("WebSocket: client %s unregistered for user %s", c.ID, c.UserID)

	if last {
		m.publish(Envelope{Kind: TargetAll}, newEvent(EventUserOffline, PresenceData{UserID: c.UserID}))
	}
}

// Join admits a registered connection to a conversation room. Callers check
// participation first.
func (m *Manager) Join(c *Client, conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[c.ID]; !ok {
		return
	}

	room := m.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Client)
		m.rooms[conversationID] = room
	}
	room[c.ID] = c

	joined := m.memberships[c.ID]
	if joined == nil {
		joined = make(map[string]struct{})
		m.memberships[c.ID] = joined
	}
	joined[conversationID] = struct{}{}
}

func (m *Manager) Leave(c *Client, conversationID string) {
	m.mu.Lock()
	m.leaveLocked(conversationID, c.ID)
	m.mu.Unlock()
}

func (m *Manager) InRoom(c *Client, conversationID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.rooms[conversationID][c.ID]
	return ok
}

func (m *Manager) IsOnline(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.presence[userID]) > 0
}

// Stats reports connection and online user counts for health checks.
func (m *Manager) Stats() (connections, users int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.clients), len(m.presence)
}

// BroadcastNewMessage pushes a stored message to its room and tells each
// recipient's connections that the conversation changed, so chat lists
// refresh even when the room is not open. HTTP and socket sends both end here.
func (m *Manager) BroadcastNewMessage(msg *entity.Message, recipients []string) {
	m.publish(Envelope{Kind: TargetRoom, Target: msg.ConversationID}, newEvent(EventNewMessage, NewMessageData{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Text:           msg.Text,
		CreatedAt:      msg.CreatedAt,
	}))

	updated := newEvent(EventConversationUpdated, ConversationUpdatedData{
		ConversationID: msg.ConversationID,
		LastMessage:    msg.Text,
		SenderID:       msg.SenderID,
		CreatedAt:      msg.CreatedAt,
	})
	for _, userID := range recipients {
		m.publish(Envelope{Kind: TargetUser, Target: userID}, updated)
	}
}

func (m *Manager) BroadcastMessageRemoved(msg *entity.Message) {
	m.publish(Envelope{Kind: TargetRoom, Target: msg.ConversationID}, newEvent(EventMessageRemoved, MessageRemovedData{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
	}))
}

// sendToClient writes to one local connection without going through the broker.
func (m *Manager) sendToClient(c *Client, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s event: %v", event.Type, err)
		return
	}
	c.Send(payload)
}

func (m *Manager) publish(env Envelope, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s event: %v", event.Type, err)
		return
	}
	env.Payload = payload

	if err := m.broker.Publish(m.ctx, env); err != nil {
		logger.Error("WebSocket: failed to publish %s event to %s %s: %v", event.Type, env.Kind, env.Target, err)
	}
}

// deliver fans an envelope out to the matching local connections.
func (m *Manager) deliver(env Envelope) {
	m.mu.RLock()
	var targets []*Client
	switch env.Kind {
	case TargetAll:
		targets = make([]*Client, 0, len(m.clients))
		for _, c := range m.clients {
			targets = append(targets, c)
		}
	case TargetRoom:
		for _, c := range m.rooms[env.Target] {
			targets = append(targets, c)
		}
	case TargetUser:
		for _, c := range m.presence[env.Target] {
			targets = append(targets, c)
		}
	default:
		logger.Warn("WebSocket: unknown envelope kind %q", env.Kind)
	}
	m.mu.RUnlock()

	for _, c := range targets {
		if c.ID == env.ExceptConn {
			continue
		}
		c.Send(env.Payload)
	}
}

func (m *Manager) leaveLocked(conversationID, connID string) {
	if room := m.rooms[conversationID]; room != nil {
		delete(room, connID)
		if len(room) == 0 {
			delete(m.rooms, conversationID)
		}
	}
	if joined := m.memberships[connID]; joined != nil {
		delete(joined, conversationID)
	}
}

func (m *Manager) closeAll() {
	m.mu.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
}
