package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmart/internal/domain/entity"
	"campusmart/internal/usecase"
	"campusmart/pkg/errors"
)

// fakeChat treats conversation "c1" as shared by alice and bob.
type fakeChat struct {
	mu      sync.Mutex
	sends   []string
	reads   []string
	sendErr error
}

func (f *fakeChat) AuthorizeParticipant(ctx context.Context, userID, conversationID string) (bool, error) {
	return conversationID == "c1" && (userID == "alice" || userID == "bob"), nil
}

func (f *fakeChat) SendMessage(ctx context.Context, senderID, conversationID, text string) (*usecase.SentMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if ok, _ := f.AuthorizeParticipant(ctx, senderID, conversationID); !ok {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	f.sends = append(f.sends, text)

	recipient := "bob"
	if senderID == "bob" {
		recipient = "alice"
	}
	return &usecase.SentMessage{
		Message: &entity.Message{
			ID:             "m1",
			ConversationID: conversationID,
			SenderID:       senderID,
			Text:           text,
			CreatedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Recipients: []string{recipient},
	}, nil
}

func (f *fakeChat) MarkAsRead(ctx context.Context, userID, conversationID string) error {
	if ok, _ := f.AuthorizeParticipant(ctx, userID, conversationID); !ok {
		return errors.Forbidden("User is not a participant in this conversation", nil)
	}
	f.mu.Lock()
	f.reads = append(f.reads, userID)
	f.mu.Unlock()
	return nil
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestManager(t *testing.T, chat ChatService) *Manager {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	m := NewManager(chat, NewLocalBroker())
	require.NoError(t, m.Start(ctx))
	return m
}

func connect(m *Manager, userID string) *Client {
	c := NewClient(userID, nil)
	m.Register(c)
	return c
}

func next(t *testing.T, c *Client) received {
	t.Helper()
	select {
	case payload := <-c.send:
		var r received
		require.NoError(t, json.Unmarshal(payload, &r))
		return r
	case <-time.After(time.Second):
		t.Fatalf("no event for client %s (%s)", c.ID, c.UserID)
		return received{}
	}
}

// drain discards queued events.
func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected event for %s: %s", c.UserID, payload)
	default:
	}
}

func frame(t *testing.T, eventType string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	out, err := json.Marshal(IncomingEvent{Type: eventType, Data: raw})
	require.NoError(t, err)
	return out
}

func TestPresenceWithMultipleConnections(t *testing.T) {
	m := newTestManager(t, &fakeChat{})

	watcher := connect(m, "watcher")
	drain(watcher)

	tab1 := connect(m, "alice")
	ev := next(t, watcher)
	assert.Equal(t, EventUserOnline, ev.Type)
	assert.JSONEq(t, `{"user_id":"alice"}`, string(ev.Data))

	tab2 := connect(m, "alice")
	assertSilent(t, watcher)
	assert.True(t, m.IsOnline("alice"))

	m.Unregister(tab1)
	assertSilent(t, watcher)
	assert.True(t, m.IsOnline("alice"))

	m.Unregister(tab2)
	ev = next(t, watcher)
	assert.Equal(t, EventUserOffline, ev.Type)
	assert.False(t, m.IsOnline("alice"))

	// unregistering twice is harmless
	m.Unregister(tab2)
	assertSilent(t, watcher)

	conns, users := m.Stats()
	assert.Equal(t, 1, conns)
	assert.Equal(t, 1, users)
}

func TestJoinRequiresParticipation(t *testing.T) {
	m := newTestManager(t, &fakeChat{})

	alice := connect(m, "alice")
	mallory := connect(m, "mallory")
	drain(alice)
	drain(mallory)

	m.HandleClientMessage(alice, frame(t, EventJoinConversation, ConversationData{ConversationID: "c1"}))
	assert.True(t, m.InRoom(alice, "c1"))

	m.HandleClientMessage(mallory, frame(t, EventJoinConversation, ConversationData{ConversationID: "c1"}))
	assert.False(t, m.InRoom(mallory, "c1"))
	assertSilent(t, mallory)
	assertSilent(t, alice)

	m.HandleClientMessage(alice, frame(t, EventLeaveConversation, ConversationData{ConversationID: "c1"}))
	assert.False(t, m.InRoom(alice, "c1"))
}

func TestTypingFansOutToRoomPeers(t *testing.T) {
	m := newTestManager(t, &fakeChat{})

	alice := connect(m, "alice")
	bob := connect(m, "bob")
	outsider := connect(m, "carol")
	for _, c := range []*Client{alice, bob, outsider} {
		m.Join(c, "c1")
	}
	m.Leave(outsider, "c1")
	drain(alice)
	drain(bob)
	drain(outsider)

	m.HandleClientMessage(alice, frame(t, EventTyping, ConversationData{ConversationID: "c1"}))
	ev := next(t, bob)
	assert.Equal(t, EventUserTyping, ev.Type)
	assert.JSONEq(t, `{"user_id":"alice","conversation_id":"c1"}`, string(ev.Data))
	assertSilent(t, alice)
	assertSilent(t, outsider)

	m.HandleClientMessage(alice, frame(t, EventStopTyping, ConversationData{ConversationID: "c1"}))
	assert.Equal(t, EventUserStopTyping, next(t, bob).Type)

	// typing from outside the room goes nowhere
	m.HandleClientMessage(outsider, frame(t, EventTyping, ConversationData{ConversationID: "c1"}))
	assertSilent(t, alice)
	assertSilent(t, bob)
}

func TestSendMessageBroadcastsAndAcks(t *testing.T) {
	chat := &fakeChat{}
	m := newTestManager(t, chat)

	alice := connect(m, "alice")
	bobInRoom := connect(m, "bob")
	bobOtherTab := connect(m, "bob")
	m.Join(bobInRoom, "c1")
	drain(alice)
	drain(bobInRoom)
	drain(bobOtherTab)

	m.HandleClientMessage(alice, frame(t, EventSendMessage, SendMessageData{
		ConversationID:  "c1",
		Text:            "hi",
		ClientMessageID: "tmp-1",
	}))

	assert.Equal(t, []string{"hi"}, chat.sends)
	assert.True(t, m.InRoom(alice, "c1"))

	ev := next(t, alice)
	assert.Equal(t, EventNewMessage, ev.Type)
	var msg NewMessageData
	require.NoError(t, json.Unmarshal(ev.Data, &msg))
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "alice", msg.SenderID)
	assert.Equal(t, "hi", msg.Text)

	ev = next(t, alice)
	assert.Equal(t, EventMessageAck, ev.Type)
	assert.JSONEq(t, `{"client_message_id":"tmp-1","message_id":"m1","conversation_id":"c1"}`, string(ev.Data))

	assert.Equal(t, EventNewMessage, next(t, bobInRoom).Type)
	assert.Equal(t, EventConversationUpdated, next(t, bobInRoom).Type)

	ev = next(t, bobOtherTab)
	assert.Equal(t, EventConversationUpdated, ev.Type)
	var updated ConversationUpdatedData
	require.NoError(t, json.Unmarshal(ev.Data, &updated))
	assert.Equal(t, "hi", updated.LastMessage)
	assertSilent(t, bobOtherTab)
}

func TestSendMessageFailureIsReportedToSender(t *testing.T) {
	m := newTestManager(t, &fakeChat{})

	mallory := connect(m, "mallory")
	bob := connect(m, "bob")
	m.Join(bob, "c1")
	drain(mallory)
	drain(bob)

	m.HandleClientMessage(mallory, frame(t, EventSendMessage, SendMessageData{
		ConversationID:  "c1",
		Text:            "let me in",
		ClientMessageID: "tmp-9",
	}))

	ev := next(t, mallory)
	assert.Equal(t, EventMessageError, ev.Type)
	var failure MessageErrorData
	require.NoError(t, json.Unmarshal(ev.Data, &failure))
	assert.Equal(t, "tmp-9", failure.ClientMessageID)
	assert.Equal(t, errors.CodeForbidden, failure.Code)
	assert.False(t, m.InRoom(mallory, "c1"))
	assertSilent(t, bob)
}

func TestSendMessageHidesInternalErrors(t *testing.T) {
	m := newTestManager(t, &fakeChat{sendErr: assert.AnError})

	alice := connect(m, "alice")
	drain(alice)

	m.HandleClientMessage(alice, frame(t, EventSendMessage, SendMessageData{ConversationID: "c1", Text: "hi"}))

	ev := next(t, alice)
	assert.Equal(t, EventMessageError, ev.Type)
	var failure MessageErrorData
	require.NoError(t, json.Unmarshal(ev.Data, &failure))
	assert.Equal(t, errors.CodeInternal, failure.Code)
	assert.NotContains(t, failure.Message, assert.AnError.Error())
}

func TestMarkReadAndPing(t *testing.T) {
	chat := &fakeChat{}
	m := newTestManager(t, chat)

	alice := connect(m, "alice")
	mallory := connect(m, "mallory")
	drain(alice)
	drain(mallory)

	m.HandleClientMessage(alice, frame(t, EventMarkRead, ConversationData{ConversationID: "c1"}))
	assert.Equal(t, []string{"alice"}, chat.reads)
	assertSilent(t, alice)

	m.HandleClientMessage(mallory, frame(t, EventMarkRead, ConversationData{ConversationID: "c1"}))
	ev := next(t, mallory)
	assert.Equal(t, EventError, ev.Type)
	assert.Contains(t, string(ev.Data), errors.CodeForbidden)

	m.HandleClientMessage(alice, []byte(`{"type":"ping"}`))
	assert.Equal(t, EventPong, next(t, alice).Type)
}

func TestMalformedFrames(t *testing.T) {
	m := newTestManager(t, &fakeChat{})
	alice := connect(m, "alice")
	drain(alice)

	m.HandleClientMessage(alice, []byte(`not json`))
	assert.Equal(t, EventError, next(t, alice).Type)

	m.HandleClientMessage(alice, []byte(`{"type":"dance"}`))
	assert.Equal(t, EventError, next(t, alice).Type)

	m.HandleClientMessage(alice, []byte(`{"type":"joinConversation","data":{}}`))
	assert.Equal(t, EventError, next(t, alice).Type)
}

func TestBroadcastMessageRemoved(t *testing.T) {
	m := newTestManager(t, &fakeChat{})
	bob := connect(m, "bob")
	m.Join(bob, "c1")
	drain(bob)

	m.BroadcastMessageRemoved(&entity.Message{ID: "m1", ConversationID: "c1"})
	ev := next(t, bob)
	assert.Equal(t, EventMessageRemoved, ev.Type)
	assert.JSONEq(t, `{"id":"m1","conversation_id":"c1"}`, string(ev.Data))
}

func TestUnregisterLeavesRooms(t *testing.T) {
	m := newTestManager(t, &fakeChat{})
	alice := connect(m, "alice")
	m.Join(alice, "c1")

	m.Unregister(alice)
	assert.False(t, m.InRoom(alice, "c1"))

	// a closed client cannot be re-admitted to a room
	m.Join(alice, "c1")
	assert.False(t, m.InRoom(alice, "c1"))
	assert.False(t, alice.Send([]byte("x")))
}

func TestSlowClientIsClosed(t *testing.T) {
	c := NewClient("alice", nil)
	for i := 0; i < sendBufferSize; i++ {
		require.True(t, c.Send([]byte("x")))
	}
	assert.False(t, c.Send([]byte("overflow")))

	select {
	case <-c.closed:
	default:
		t.Fatal("client was not closed")
	}
}
