package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/bookscout/internal/config"
)

func testManager() *Manager {
	return NewManager(config.SessionConfig{Secret: "test-secret", TTLHours: 1})
}

func TestHashPassword(t *testing.T) {
	password := "testpassword123"

	hash, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)
}

func TestCheckPassword(t *testing.T) {
	password := "testpassword123"
	hash, err := HashPassword(password)
	require.NoError(t, err)

	// Correct password
	assert.True(t, CheckPassword(password, hash))

	// Wrong password
	assert.False(t, CheckPassword("wrongpassword", hash))
}

func TestGenerateAndValidate(t *testing.T) {
	m := testManager()

	token, err := m.Generate("owner-1", "reader", false)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.OwnerID)
	assert.Equal(t, "reader", claims.Username)
	assert.False(t, claims.Guest)
}

func TestGuestToken(t *testing.T) {
	m := testManager()

	token, err := m.Generate("guest-owner", "", true)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "guest-owner", claims.OwnerID)
	assert.Empty(t, claims.Username)
	assert.True(t, claims.Guest)
}

func TestValidateInvalidToken(t *testing.T) {
	m := testManager()

	_, err := m.Validate("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := testManager().Generate("owner-1", "reader", false)
	require.NoError(t, err)

	other := NewManager(config.SessionConfig{Secret: "different-secret", TTLHours: 1})
	_, err = other.Validate(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestRefresh(t *testing.T) {
	m := testManager()

	token, err := m.Generate("owner-1", "reader", false)
	require.NoError(t, err)

	newToken, err := m.Refresh(token)
	require.NoError(t, err)
	assert.NotEmpty(t, newToken)

	claims, err := m.Validate(newToken)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.OwnerID)
	assert.Equal(t, "reader", claims.Username)
}
