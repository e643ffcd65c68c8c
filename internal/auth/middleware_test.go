package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		token   string
		wantErr bool
	}{
		{"Valid", "Bearer hf_abc123", "hf_abc123", false},
		{"Trims Whitespace", "Bearer  hf_abc123 ", "hf_abc123", false},
		{"Missing Scheme", "hf_abc123", "", true},
		{"Wrong Scheme", "Basic dXNlcjpwYXNz", "", true},
		{"Empty Token", "Bearer ", "", true},
		{"Empty Header", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ExtractBearerToken(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestGetAuthContext(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		assert.Nil(t, GetAuthContext(context.Background()))
	})

	t.Run("Present", func(t *testing.T) {
		recruiter := &RecruiterContext{RecruiterID: "rec-001", DisplayName: "Sam"}
		ctx := context.WithValue(context.Background(), AuthContextKey, &AuthContext{RecruiterContext: recruiter})

		authCtx := GetAuthContext(ctx)
		assert.NotNil(t, authCtx)
		assert.Equal(t, "rec-001", authCtx.RecruiterID)
	})
}
