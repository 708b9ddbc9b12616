package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueTokenRoundTripsThroughValidateToken(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)

	svc := NewService("test-secret", hash)
	token, err := svc.IssueToken("correct-horse")
	require.NoError(t, err)
	assert.NoError(t, svc.ValidateToken(token))
}

func TestIssueTokenRejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)

	svc := NewService("test-secret", hash)
	_, err = svc.IssueToken("wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService("test-secret", "")
	err := svc.ValidateToken("not-a-real-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)

	issuer := NewService("secret-a", hash)
	token, err := issuer.IssueToken("correct-horse")
	require.NoError(t, err)

	verifier := NewService("secret-b", hash)
	assert.ErrorIs(t, verifier.ValidateToken(token), ErrInvalidToken)
}
