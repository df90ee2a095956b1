package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeAndMessageOf(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
		wantStatus  int
	}{
		{"not found", NotFound("Conversation", nil), CodeNotFound, "Conversation not found", http.StatusNotFound},
		{"forbidden", Forbidden("nope", nil), CodeForbidden, "nope", http.StatusForbidden},
		{"invalid input", InvalidInput("empty", nil), CodeInvalidInput, "empty", http.StatusBadRequest},
		{"invalid operation", InvalidOperation("own listing", nil), CodeInvalidOperation, "own listing", http.StatusBadRequest},
		{"unauthorized", Unauthorized("token", nil), CodeUnauthorized, "token", http.StatusUnauthorized},
		{"conflict", Conflict("exists"), CodeConflict, "exists", http.StatusConflict},
		{"too many requests", TooManyRequests("slow down"), CodeTooManyRequests, "slow down", http.StatusTooManyRequests},
		{"internal", Internal("boom", fmt.Errorf("disk")), CodeInternal, "boom", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.Equal(t, tt.wantCode, CodeOf(wrapped))
			assert.Equal(t, tt.wantMessage, MessageOf(wrapped))
			assert.True(t, Is(wrapped, tt.wantCode))
			assert.Equal(t, tt.wantStatus, tt.err.(*AppError).Status)
		})
	}
}

func TestPlainErrorsStayInternal(t *testing.T) {
	err := fmt.Errorf("connection reset")
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, "Internal server error", MessageOf(err))
	assert.False(t, Is(err, CodeNotFound))
}
