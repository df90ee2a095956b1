package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	ctx := context.Background()
	m := NewJWTManager("secret", time.Hour)

	tok, err := m.GenerateToken(ctx, "user-1")
	require.NoError(t, err)

	uid, err := m.VerifyToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestVerifyRejects(t *testing.T) {
	ctx := context.Background()
	m := NewJWTManager("secret", time.Hour)

	expired := NewJWTManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.GenerateToken(ctx, "user-1")
	require.NoError(t, err)

	otherSecret, err := NewJWTManager("other", time.Hour).GenerateToken(ctx, "user-1")
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"expired", expiredToken},
		{"wrong secret", otherSecret},
		{"missing subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid, err := m.VerifyToken(ctx, tt.token)
			assert.Error(t, err)
			assert.Empty(t, uid)
		})
	}
}
