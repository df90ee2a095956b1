package usecase

import (
	"context"
	"time"
)

// TokenVerifier turns a bearer credential into the uid it was issued for.
// Implemented by the Firebase auth client and the JWT manager.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type TokenIssuer interface {
	GenerateToken(ctx context.Context, uid string) (string, error)
}

// ActionSendMessage is the rate limiter action charged once per sent message.
const ActionSendMessage = "send_message"

type RateLimiter interface {
	Allow(key, action string) (bool, time.Duration)
}
