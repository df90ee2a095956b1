package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmart/pkg/errors"
)

func TestModerationListAndRead(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	mod := NewModerationUseCase(f.store.Conversations(), f.store.Messages(), f.store.Listings())

	conv := f.start(t, buyer, "lamp")
	_, err := f.uc.SendMessage(ctx, buyer, conv.ID, "hello")
	require.NoError(t, err)

	list, total, err := mod.ListAllConversations(ctx, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Desk lamp", list[0].Listing.Title)

	messages, err := mod.GetConversationMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	// reading as an admin leaves the participants' counters alone
	assert.Equal(t, 1, f.conversation(t, conv.ID).UnreadCount[owner])

	_, err = mod.GetConversationMessages(ctx, "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestModerationRemoveMessage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	mod := NewModerationUseCase(f.store.Conversations(), f.store.Messages(), f.store.Listings())

	conv := f.start(t, buyer, "lamp")
	sent, err := f.uc.SendMessage(ctx, buyer, conv.ID, "rude words")
	require.NoError(t, err)

	removed, err := mod.RemoveMessage(ctx, "admin-1", sent.ID)
	require.NoError(t, err)
	assert.True(t, removed.IsDeleted)
	assert.Equal(t, "[Message removed by admin]", removed.Text)
	assert.Equal(t, conv.ID, removed.ConversationID)

	again, err := mod.RemoveMessage(ctx, "admin-1", sent.ID)
	require.NoError(t, err)
	assert.Equal(t, removed, again)

	messages, err := f.uc.GetMessages(ctx, owner, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsDeleted)

	_, err = mod.RemoveMessage(ctx, "admin-1", "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
