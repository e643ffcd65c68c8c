package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrInvalidToken is returned when the Authorization header does not carry a
// well-formed bearer token.
var ErrInvalidToken = errors.New("invalid bearer token")

// ExtractBearerToken pulls the opaque token out of an Authorization header.
func ExtractBearerToken(authHeader string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return "", fmt.Errorf("authorization header must use the Bearer scheme: %w", ErrInvalidToken)
	}
	token := strings.TrimSpace(authHeader[len(prefix):])
	if token == "" {
		return "", fmt.Errorf("empty token: %w", ErrInvalidToken)
	}
	return token, nil
}

// AuthService resolves API tokens to recruiter contexts.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// GetRecruiterByToken looks up the recruiter owning an API token. Returns
// gorm.ErrRecordNotFound for unknown tokens.
func (as *AuthService) GetRecruiterByToken(ctx context.Context, token string) (*RecruiterContext, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty: %w", ErrInvalidToken)
	}

	var recruiter RecruiterContext
	err := as.db.WithContext(ctx).Where("api_token = ?", token).First(&recruiter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch recruiter context: %w", err)
	}
	return &recruiter, nil
}

// UpsertRecruiter creates or updates a recruiter context. Used during
// onboarding and by seed tooling.
func (as *AuthService) UpsertRecruiter(ctx context.Context, recruiter *RecruiterContext) error {
	if recruiter == nil || recruiter.RecruiterID == "" {
		return fmt.Errorf("recruiter ID is empty")
	}
	if recruiter.APIToken == "" {
		return fmt.Errorf("API token is empty")
	}
	if err := as.db.WithContext(ctx).Save(recruiter).Error; err != nil {
		return fmt.Errorf("failed to upsert recruiter context: %w", err)
	}
	return nil
}
