package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateAndTokenRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, "test-secret", 1)

	user, err := svc.CreateUser("mrossi", "segreta123", "Mario Rossi")
	require.NoError(t, err)
	assert.NotEqual(t, "segreta123", user.PasswordHash)

	authed, err := svc.Authenticate("mrossi", "segreta123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	token, err := svc.GenerateToken(authed)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "mrossi", claims["username"])
	assert.Equal(t, "Mario Rossi", claims["technician"])
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, "test-secret", 1)

	_, err := svc.CreateUser("mrossi", "segreta123", "Mario Rossi")
	require.NoError(t, err)

	_, err = svc.Authenticate("mrossi", "sbagliata")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate("sconosciuto", "segreta123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	db := setupTestDB(t)
	issuer := NewAuthService(db, "secret-a", 1)
	verifier := NewAuthService(db, "secret-b", 1)

	user, err := issuer.CreateUser("mrossi", "segreta123", "Mario Rossi")
	require.NoError(t, err)
	token, err := issuer.GenerateToken(user)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, "test-secret", 1)

	_, err := svc.CreateUser("mrossi", "segreta123", "Mario Rossi")
	require.NoError(t, err)
	_, err = svc.CreateUser("mrossi", "altra", "Altro Tecnico")
	assert.Error(t, err)
}
