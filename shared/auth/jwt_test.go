package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceTokenRoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("user-api", "member-portal")

	token, err := a.GenerateServiceToken("registry-service", "secret", time.Minute)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = a.ValidateTokenWithClaims(token, "secret", claims)
	require.NoError(t, err)
	assert.Equal(t, "registry-service", claims["sub"])
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	a := NewJWTAuthenticator("user-api", "member-portal")

	token, err := a.GenerateServiceToken("registry-service", "secret", time.Minute)
	require.NoError(t, err)

	_, err = a.ValidateTokenWithClaims(token, "other-secret", jwt.MapClaims{})
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	a := NewJWTAuthenticator("user-api", "member-portal")

	token, err := a.GenerateServiceToken("registry-service", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = a.ValidateTokenWithClaims(token, "secret", jwt.MapClaims{})
	assert.Error(t, err)
}

func TestValidateRejectsWrongAudience(t *testing.T) {
	minting := NewJWTAuthenticator("other-service", "member-portal")
	token, err := minting.GenerateServiceToken("registry-service", "secret", time.Minute)
	require.NoError(t, err)

	validating := NewJWTAuthenticator("user-api", "member-portal")
	_, err = validating.ValidateTokenWithClaims(token, "secret", jwt.MapClaims{})
	assert.Error(t, err)
}
