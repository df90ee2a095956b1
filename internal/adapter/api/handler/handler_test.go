package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"campusmart/internal/adapter/api"
	"campusmart/internal/adapter/api/handler"
	"campusmart/internal/adapter/api/middleware"
	"campusmart/internal/adapter/api/router"
	"campusmart/internal/adapter/repository"
	"campusmart/internal/domain/entity"
	"campusmart/internal/infrastructure/ratelimit"
	"campusmart/internal/infrastructure/token"
	"campusmart/internal/infrastructure/websocket"
	"campusmart/internal/usecase"
	"campusmart/pkg/response"
)

const (
	alice = "alice" // owns the listings
	bob   = "bob"
	carol = "carol"
	admin = "admin"
)

type testServer struct {
	e       *echo.Echo
	jwt     *token.JWTManager
	manager *websocket.Manager
	store   *repository.MemoryStore
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repository.NewMemoryStore()
	for _, id := range []string{alice, bob, carol} {
		store.PutUser(&entity.User{ID: id, Name: id, Role: entity.RoleUser})
	}
	store.PutUser(&entity.User{ID: admin, Name: "Moderator", Role: entity.RoleAdmin})
	store.PutListing(&entity.Listing{ID: "lamp", OwnerID: alice, Title: "Desk lamp", Price: 15, Status: entity.ListingStatusAvailable})
	store.PutListing(&entity.Listing{ID: "bike", OwnerID: alice, Title: "Bike", Price: 120, Status: entity.ListingStatusSold})

	jwtManager := token.NewJWTManager("test-secret", time.Hour)
	authUseCase := usecase.NewAuthUseCase(store.Users(), jwtManager, jwtManager)
	limiter := ratelimit.NewRateLimiter(nil, ratelimit.Limit{})
	chatUseCase := usecase.NewChatUseCase(store.Conversations(), store.Messages(), store.Listings(), usecase.WithRateLimiter(limiter))
	moderationUseCase := usecase.NewModerationUseCase(store.Conversations(), store.Messages(), store.Listings())

	manager := websocket.NewManager(chatUseCase, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, manager.Start(ctx))

	handler.Setup(chatUseCase, moderationUseCase, authUseCase, manager)
	handler.SetupHealthHandler(manager, handler.DependencyCheck{Name: "broker:local", Check: manager.Broker().Ping})

	e := echo.New()
	e.Validator = api.NewValidator()
	wsHandler := handler.NewWebSocketHandler(manager, authUseCase, []string{"*"})
	router.Setup(e, middleware.NewAuthMiddleware(authUseCase), middleware.NewAdminMiddleware(), nil, wsHandler)
	router.SetupDevRouter(e, "development", "jwt")

	return &testServer{e: e, jwt: jwtManager, manager: manager, store: store}
}

func (s *testServer) token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken(context.Background(), uid)
	require.NoError(t, err)
	return tok
}

// do sends a request as uid; an empty uid sends no Authorization header.
func (s *testServer) do(t *testing.T, method, path, uid string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if uid != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token(t, uid))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}
