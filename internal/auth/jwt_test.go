package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	SetSecret("test-signing-key")
	userID := uuid.NewString()

	token, err := GenerateAccessToken(userID, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "smartmark", claims.Issuer)
}

func TestVerifyTokenRejectsWrongKey(t *testing.T) {
	SetSecret("first-key")
	token, err := GenerateAccessToken(uuid.NewString(), "user@example.com")
	require.NoError(t, err)

	// a token signed under a previous key never verifies under the new one
	SetSecret("second-key")
	_, err = VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsEmpty(t *testing.T) {
	SetSecret("test-signing-key")
	_, err := VerifyToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
