package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func TestNewJWTService_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService("short")
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(testSecret, WithTimeFunc(func() time.Time { return fixedTime }))
	require.NoError(t, err)

	token, err := svc.GenerateToken(context.Background(), "learner", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "learner", claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	_, err = svc.GenerateToken(context.Background(), "", time.Hour)
	assert.Error(t, err)
	_, err = svc.GenerateToken(context.Background(), "learner", 0)
	assert.Error(t, err)
}

func TestValidateToken_Failures(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewJWTService(testSecret, WithTimeFunc(func() time.Time { return issuedAt }))
	require.NoError(t, err)
	token, err := issuer.GenerateToken(context.Background(), "learner", time.Hour)
	require.NoError(t, err)

	otherKey, err := NewJWTService("another-secret-that-is-long-enough-for-tests")
	require.NoError(t, err)

	later, err := NewJWTService(testSecret, WithTimeFunc(func() time.Time { return issuedAt.Add(2 * time.Hour) }))
	require.NoError(t, err)

	earlier, err := NewJWTService(testSecret, WithTimeFunc(func() time.Time { return issuedAt.Add(-time.Hour) }))
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "learner",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongType, err := unsigned.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		svc   JWTService
		token string
		want  error
	}{
		{"garbage", issuer, "not-a-token", ErrInvalidToken},
		{"wrong key", otherKey, token, ErrInvalidToken},
		{"expired", later, token, ErrExpiredToken},
		{"issued in the future", earlier, token, ErrTokenNotYetValid},
		{"wrong token type", issuer, wrongType, ErrInvalidToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.svc.ValidateToken(context.Background(), tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
