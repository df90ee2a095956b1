package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"campusmart/internal/adapter/api"
	"campusmart/internal/adapter/api/handler"
	apimiddleware "campusmart/internal/adapter/api/middleware"
	"campusmart/internal/adapter/api/router"
	"campusmart/internal/adapter/repository"
	domainrepo "campusmart/internal/domain/repository"
	"campusmart/internal/infrastructure/firebase"
	"campusmart/internal/infrastructure/ratelimit"
	"campusmart/internal/infrastructure/token"
	"campusmart/internal/infrastructure/websocket"
	"campusmart/internal/usecase"
	"campusmart/pkg/config"
	"campusmart/pkg/logger"
)

type repositories struct {
	conversations domainrepo.ConversationRepository
	messages      domainrepo.MessageRepository
	listings      domainrepo.ListingRepository
	users         domainrepo.UserRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fb *firebase.Clients
	if cfg.UsesFirebase() {
		fb, err = firebase.NewClients(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		defer fb.Close()
	}

	var checks []handler.DependencyCheck
	var repos repositories

	switch cfg.StoreDriver {
	case config.StoreFirestore:
		repos = repositories{
			conversations: repository.NewFirestoreConversationRepository(fb.Firestore),
			messages:      repository.NewFirestoreMessageRepository(fb.Firestore),
			listings:      repository.NewFirestoreListingRepository(fb.Firestore),
			users:         repository.NewFirestoreUserRepository(fb.Firestore),
		}
		checks = append(checks, handler.DependencyCheck{Name: "firestore", Check: fb.PingFirestore})
	default:
		store := repository.NewMemoryStore()
		if cfg.SeedFile != "" {
			if err := store.LoadSeedFile(cfg.SeedFile); err != nil {
				log.Fatalf("Failed to seed memory store: %v", err)
			}
			logger.Info("Memory store seeded from %s", cfg.SeedFile)
		}
		repos = repositories{
			conversations: store.Conversations(),
			messages:      store.Messages(),
			listings:      store.Listings(),
			users:         store.Users(),
		}
		logger.Warn("Using in-memory store, data is lost on restart")
	}

	// The issuer stays a nil interface unless one is configured.
	var verifier usecase.TokenVerifier
	var issuer usecase.TokenIssuer
	switch cfg.AuthProvider {
	case config.AuthFirebase:
		verifier = fb.Auth
	default:
		jwtManager := token.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
		verifier = jwtManager
		issuer = jwtManager
	}

	limiter := ratelimit.NewRateLimiter(map[string]ratelimit.Limit{
		usecase.ActionSendMessage:       {PerMinute: cfg.ChatSendRatePerMinute, Burst: cfg.ChatSendBurst},
		apimiddleware.ActionHTTPRequest: {PerMinute: cfg.HTTPRatePerMinute, Burst: cfg.HTTPBurst},
	}, ratelimit.Limit{})
	limiter.StartCleanupRoutine(ctx, 5*time.Minute)

	authUseCase := usecase.NewAuthUseCase(repos.users, verifier, issuer)
	chatUseCase := usecase.NewChatUseCase(repos.conversations, repos.messages, repos.listings,
		usecase.WithRateLimiter(limiter))
	moderationUseCase := usecase.NewModerationUseCase(repos.conversations, repos.messages, repos.listings)

	var broker websocket.Broker = websocket.NewLocalBroker()
	if cfg.RedisURL != "" {
		var redisClient *redis.Client
		redisClient, err = websocket.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		broker = websocket.NewRedisBroker(redisClient, websocket.DefaultChannel)
	}
	checks = append(checks, handler.DependencyCheck{Name: "broker:" + broker.Name(), Check: broker.Ping})

	wsManager := websocket.NewManager(chatUseCase, broker)
	if err := wsManager.Start(ctx); err != nil {
		log.Fatalf("Failed to start WebSocket manager: %v", err)
	}

	handler.Setup(chatUseCase, moderationUseCase, authUseCase, wsManager)
	handler.SetupHealthHandler(wsManager, checks...)

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger.Default()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authUseCase)
	adminMiddleware := apimiddleware.NewAdminMiddleware()
	apiLimit := apimiddleware.NewRateLimitMiddleware(limiter, apimiddleware.ActionHTTPRequest)
	wsHandler := handler.NewWebSocketHandler(wsManager, authUseCase, cfg.WSAllowedOrigins)

	router.Setup(e, authMiddleware, adminMiddleware, apiLimit, wsHandler)
	router.SetupDevRouter(e, cfg.Environment, cfg.AuthProvider)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
