package usecase

import (
	"context"

	"campusmart/internal/domain/entity"
	"campusmart/internal/domain/repository"
	"campusmart/pkg/errors"
	"campusmart/pkg/logger"
)

type AuthUseCase struct {
	userRepo repository.UserRepository
	verifier TokenVerifier
	issuer   TokenIssuer
}

// NewAuthUseCase wires the identity provider. issuer may be nil when tokens
// are minted elsewhere.
func NewAuthUseCase(userRepo repository.UserRepository, verifier TokenVerifier, issuer TokenIssuer) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
	}
}

// Authenticate resolves a bearer token to a known user. Every failure is
// reported as Unauthorized so callers cannot tell a bad token from an
// unknown account.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, errors.Unauthorized("Authentication token is required", nil)
	}

	uid, err := uc.verifier.VerifyToken(ctx, token)
	if err != nil {
		logger.Debug("Authenticate: token rejected: %v", err)
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Unauthorized("User not found", err)
		}
		return nil, err
	}

	return user, nil
}

// IssueToken mints a token for an existing user.
func (uc *AuthUseCase) IssueToken(ctx context.Context, uid string) (string, error) {
	if uc.issuer == nil {
		return "", errors.InvalidOperation("Token issuing is not enabled", nil)
	}

	if _, err := uc.userRepo.GetByID(ctx, uid); err != nil {
		return "", err
	}

	token, err := uc.issuer.GenerateToken(ctx, uid)
	if err != nil {
		return "", errors.Internal("Failed to generate token", err)
	}
	return token, nil
}
