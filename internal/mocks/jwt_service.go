package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/kanji-api/internal/service/auth"
)

// MockJWTService implements auth.JWTService for testing
type MockJWTService struct {
	Token       string
	GenerateErr error

	Claims      *auth.Claims
	ValidateErr error

	// Tokens records every token passed to ValidateToken.
	Tokens []string
}

var _ auth.JWTService = (*MockJWTService)(nil)

// GenerateToken implements auth.JWTService
func (m *MockJWTService) GenerateToken(_ context.Context, _ string, _ time.Duration) (string, error) {
	return m.Token, m.GenerateErr
}

// ValidateToken implements auth.JWTService
func (m *MockJWTService) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	m.Tokens = append(m.Tokens, token)
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}
	return m.Claims, nil
}
