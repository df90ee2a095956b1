package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmart/internal/domain/entity"
	"campusmart/internal/usecase"
	"campusmart/pkg/errors"
)

func startConversation(t *testing.T, s *testServer, uid, listingID string) usecase.ConversationResponse {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/v1/conversations", uid, map[string]string{"listing_id": listingID})
	require.Equal(t, http.StatusOK, status, env.Error)

	var conv usecase.ConversationResponse
	decodeData(t, env, &conv)
	require.NotNil(t, conv.Conversation)
	return conv
}

func TestConversationLifecycle(t *testing.T) {
	s := newTestServer(t)

	conv := startConversation(t, s, bob, "lamp")
	assert.ElementsMatch(t, []string{alice, bob}, conv.Participants)
	require.NotNil(t, conv.Listing)
	assert.Equal(t, "Desk lamp", conv.Listing.Title)

	again := startConversation(t, s, bob, "lamp")
	assert.Equal(t, conv.ID, again.ID)

	status, env := s.do(t, http.MethodPost, "/v1/conversations/"+conv.ID+"/messages", bob, map[string]string{"text": "  Is this still available?  "})
	require.Equal(t, http.StatusCreated, status)
	var msg entity.Message
	decodeData(t, env, &msg)
	assert.Equal(t, "Is this still available?", msg.Text)
	assert.Equal(t, bob, msg.SenderID)

	status, env = s.do(t, http.MethodGet, "/v1/conversations", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var list []usecase.ConversationResponse
	decodeData(t, env, &list)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].UnreadCount[alice])
	assert.Equal(t, 0, list[0].UnreadCount[bob])
	assert.Equal(t, "Is this still available?", list[0].LastMessage)

	status, env = s.do(t, http.MethodGet, "/v1/conversations/"+conv.ID+"/messages", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var messages []entity.Message
	decodeData(t, env, &messages)
	require.Len(t, messages, 1)
	assert.Equal(t, msg.ID, messages[0].ID)

	status, env = s.do(t, http.MethodGet, "/v1/conversations/"+conv.ID, alice, nil)
	require.Equal(t, http.StatusOK, status)
	var fetched usecase.ConversationResponse
	decodeData(t, env, &fetched)
	assert.Equal(t, 0, fetched.UnreadCount[alice])

	status, _ = s.do(t, http.MethodPut, "/v1/conversations/"+conv.ID+"/read", bob, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestConversationErrors(t *testing.T) {
	s := newTestServer(t)
	conv := startConversation(t, s, bob, "lamp")

	tests := []struct {
		name       string
		method     string
		path       string
		uid        string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"no token", http.MethodGet, "/v1/conversations", "", nil, http.StatusUnauthorized, errors.CodeUnauthorized},
		{"missing listing id", http.MethodPost, "/v1/conversations", bob, map[string]string{}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"own listing", http.MethodPost, "/v1/conversations", alice, map[string]string{"listing_id": "lamp"}, http.StatusBadRequest, errors.CodeInvalidOperation},
		{"unknown listing", http.MethodPost, "/v1/conversations", bob, map[string]string{"listing_id": "ghost"}, http.StatusNotFound, errors.CodeNotFound},
		{"stranger reads", http.MethodGet, "/v1/conversations/" + conv.ID, carol, nil, http.StatusForbidden, errors.CodeForbidden},
		{"stranger reads messages", http.MethodGet, "/v1/conversations/" + conv.ID + "/messages", carol, nil, http.StatusForbidden, errors.CodeForbidden},
		{"stranger sends", http.MethodPost, "/v1/conversations/" + conv.ID + "/messages", carol, map[string]string{"text": "hi"}, http.StatusForbidden, errors.CodeForbidden},
		{"blank text", http.MethodPost, "/v1/conversations/" + conv.ID + "/messages", bob, map[string]string{"text": "   "}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"unknown conversation", http.MethodPut, "/v1/conversations/nope/read", bob, nil, http.StatusNotFound, errors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, tt.method, tt.path, tt.uid, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestStrangerListsNothing(t *testing.T) {
	s := newTestServer(t)
	startConversation(t, s, bob, "lamp")

	status, env := s.do(t, http.MethodGet, "/v1/conversations", carol, nil)
	require.Equal(t, http.StatusOK, status)
	var list []usecase.ConversationResponse
	decodeData(t, env, &list)
	assert.Empty(t, list)
}

func TestStartConversationOnSoldListing(t *testing.T) {
	s := newTestServer(t)

	conv := startConversation(t, s, bob, "bike")
	require.NotNil(t, conv.Listing)
	assert.Equal(t, entity.ListingStatusSold, conv.Listing.Status)
}
