package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/config"
)

func testJWTService() *JWTService {
	return NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})
}

func TestNewJWTService_NilConfigDisablesAuth(t *testing.T) {
	assert.Nil(t, NewJWTService(nil))
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := testJWTService()

	token, err := svc.GenerateToken("cli")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "cli", claims.GetSubject())
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestJWTService_ValidateRejectsEmptyToken(t *testing.T) {
	svc := testJWTService()

	_, err := svc.ValidateToken("")
	require.Error(t, err)
}

func TestJWTService_ValidateRejectsWrongSecret(t *testing.T) {
	other := NewJWTService(&config.JWTConfig{Secret: "other-secret", ExpirationHours: 1})
	token, err := other.GenerateToken("cli")
	require.NoError(t, err)

	_, err = testJWTService().ValidateToken(token)
	require.Error(t, err)
}

func TestJWTService_ValidateRejectsExpiredToken(t *testing.T) {
	svc := testJWTService()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "cli",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims.RegisteredClaims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTService_ValidateRejectsWrongSigningMethod(t *testing.T) {
	svc := testJWTService()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "cli"},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &claims.RegisteredClaims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	require.Error(t, err)
}
